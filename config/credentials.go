package config

import (
	"os"
	"strings"
)

// Credentials resolves the API key for a backend family ("openai",
// "anthropic", "google"). Implementations report a missing key as a
// *ConfigurationError.
type Credentials func(family string) (string, error)

// DefaultCredentialEnv maps backend families to the environment variables read
// by EnvCredentials when no override is configured.
var DefaultCredentialEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// EnvCredentials returns a Credentials source backed by environment variables.
// Entries in env override DefaultCredentialEnv.
func EnvCredentials(env map[string]string) Credentials {
	names := make(map[string]string, len(DefaultCredentialEnv)+len(env))
	for k, v := range DefaultCredentialEnv {
		names[k] = v
	}
	for k, v := range env {
		if v != "" {
			names[k] = v
		}
	}
	return func(family string) (string, error) {
		name, ok := names[family]
		if !ok {
			return "", NewConfigurationError(family, "no credential variable configured for backend family")
		}
		key := strings.TrimSpace(os.Getenv(name))
		if key == "" {
			return "", NewConfigurationError(name, "credential is not set")
		}
		return key, nil
	}
}

// StaticCredentials returns a Credentials source serving fixed keys. Families
// without an entry report a ConfigurationError.
func StaticCredentials(keys map[string]string) Credentials {
	return func(family string) (string, error) {
		if key := keys[family]; key != "" {
			return key, nil
		}
		return "", NewConfigurationError(family, "credential is not set")
	}
}
