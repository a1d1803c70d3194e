package prompt

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
)

// Template returns a Source rendering text as a text/template against vars.
// Text without template markers is returned unchanged.
func Template(text string, vars map[string]any) Source {
	return SourceFunc(func(context.Context) (string, error) {
		return renderTemplate(text, vars)
	})
}

var templateFuncs = template.FuncMap{
	"default": func(def any, val any) any {
		if val == nil || val == "" {
			return def
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"join": func(sep string, items []any) string {
		out := make([]string, len(items))
		for i, item := range items {
			out[i] = fmt.Sprint(item)
		}
		return strings.Join(out, sep)
	},
}

func renderTemplate(text string, vars map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}
	tmpl, err := template.New("brief").Option("missingkey=error").Funcs(templateFuncs).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}
