package thread

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// MockStarter is an in-memory Starter for tests & examples. It records the
// options of every Start call and answers each turn with Respond, or with a
// wrapped echo of the prompt when Respond is nil.
type MockStarter struct {
	Respond func(ctx context.Context, prompt string, opts RunOptions) (string, error)
	// StartErr, when set, fails every Start call.
	StartErr error

	mu      sync.Mutex
	starts  []Options
	prompts []string
	open    int
}

var _ Starter = (*MockStarter)(nil)

// NewMockStarter returns a MockStarter answering with respond.
func NewMockStarter(respond func(ctx context.Context, prompt string, opts RunOptions) (string, error)) *MockStarter {
	return &MockStarter{Respond: respond}
}

// Start implements Starter.
func (m *MockStarter) Start(ctx context.Context, opts Options) (Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.starts = append(m.starts, opts)
	if m.StartErr != nil {
		return nil, m.StartErr
	}
	m.open++
	return &mockThread{owner: m, id: uuid.NewString()}, nil
}

// Starts returns the options of every Start call, in order.
func (m *MockStarter) Starts() []Options {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Options(nil), m.starts...)
}

// Prompts returns every prompt run so far, in order.
func (m *MockStarter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// Open returns the number of threads started but not yet closed.
func (m *MockStarter) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

type mockThread struct {
	owner  *MockStarter
	id     string
	once   sync.Once
	closed atomic.Bool
}

func (t *mockThread) ID() string { return t.id }

func (t *mockThread) Run(ctx context.Context, prompt string, opts RunOptions) (Turn, error) {
	if t.closed.Load() {
		return Turn{}, fmt.Errorf("thread %s is closed", t.id)
	}
	t.owner.mu.Lock()
	t.owner.prompts = append(t.owner.prompts, prompt)
	t.owner.mu.Unlock()

	var (
		text string
		err  error
	)
	if t.owner.Respond != nil {
		text, err = t.owner.Respond(ctx, prompt, opts)
	} else {
		var data []byte
		data, err = json.Marshal(map[string]string{"value": prompt})
		text = string(data)
	}
	if err != nil {
		return Turn{}, err
	}
	return Turn{ThreadID: t.id, FinalResponse: text}, nil
}

func (t *mockThread) Close() error {
	t.once.Do(func() {
		t.closed.Store(true)
		t.owner.mu.Lock()
		t.owner.open--
		t.owner.mu.Unlock()
	})
	return nil
}
