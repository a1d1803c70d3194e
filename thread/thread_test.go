package thread

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/brainmesh/config"
	"github.com/hupe1980/brainmesh/internal/testutil"
	"github.com/hupe1980/brainmesh/model"
)

func TestCapability_String(t *testing.T) {
	assert.Equal(t, "read-only", ReadOnly.String())
	assert.Equal(t, "read-write", ReadWrite.String())
	assert.Equal(t, "unknown", Capability(7).String())
}

func TestMockStarter(t *testing.T) {
	m := NewMockStarter(nil)

	th, err := m.Start(context.Background(), Options{Model: "m", Capability: ReadWrite})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Open())

	turn, err := th.Run(context.Background(), "hello", RunOptions{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"hello"}`, turn.FinalResponse)
	assert.Equal(t, th.ID(), turn.ThreadID)

	require.NoError(t, th.Close())
	require.NoError(t, th.Close())
	assert.Equal(t, 0, m.Open())

	_, err = th.Run(context.Background(), "again", RunOptions{})
	assert.Error(t, err)

	assert.Equal(t, []Options{{Model: "m", Capability: ReadWrite}}, m.Starts())
	assert.Equal(t, []string{"hello"}, m.Prompts())
}

func TestMockStarter_ConcurrentRunAndClose(t *testing.T) {
	m := NewMockStarter(nil)
	th, err := m.Start(context.Background(), Options{Capability: ReadOnly})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = th.Run(context.Background(), "x", RunOptions{})
		}()
		go func() {
			defer wg.Done()
			_ = th.Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, m.Open())
	_, err = th.Run(context.Background(), "after", RunOptions{})
	assert.Error(t, err)
}

func TestMockStarter_StartErr(t *testing.T) {
	boom := errors.New("boom")
	m := &MockStarter{StartErr: boom}
	_, err := m.Start(context.Background(), Options{})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, m.Starts(), 1)
	assert.Equal(t, 0, m.Open())
}

func TestRunError(t *testing.T) {
	err := &RunError{Backend: "codex", ExitCode: 2, Stderr: "bad flag", Transient: true, Err: errors.New("exit status 2")}
	assert.ErrorIs(t, err, model.ErrBackend)
	assert.True(t, err.Temporary())
	assert.Equal(t, "codex thread error (exit 2): exit status 2 (stderr: bad flag)", err.Error())
}

func TestExec(t *testing.T) {
	path := testutil.FakeAgent(t, "agent", `cat; echo " $FOO"`)
	out, err := Exec(context.Background(), Command{Backend: "test", Path: path, Env: []string{"FOO=bar"}, Stdin: "in"})
	require.NoError(t, err)
	assert.Equal(t, "in bar\n", string(out))
}

func TestExec_NonZeroExit(t *testing.T) {
	path := testutil.FakeAgent(t, "agent", `echo partial; echo "went wrong" >&2; exit 3`)
	out, err := Exec(context.Background(), Command{Backend: "test", Path: path})
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 3, runErr.ExitCode)
	assert.Equal(t, "went wrong", runErr.Stderr)
	assert.True(t, runErr.Temporary())
	assert.Equal(t, "partial\n", string(out))
}

func TestExec_Missing(t *testing.T) {
	_, err := Exec(context.Background(), Command{Backend: "test", Path: filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, config.ErrConfiguration)

	_, err = LookPath("threads.codex_path", "definitely-not-an-agent-binary")
	assert.ErrorIs(t, err, config.ErrConfiguration)
}

func TestExec_Canceled(t *testing.T) {
	path := testutil.FakeAgent(t, "agent", `sleep 5`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Exec(ctx, Command{Backend: "test", Path: path})
	assert.ErrorIs(t, err, context.Canceled)
}
