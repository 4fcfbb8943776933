package ocr

import (
	"context"
	"sync"
	"sync/atomic"
)

const EngineNameMock = "mock"

// Mock is an Engine for testing.
type Mock struct {
	// Text is returned for every recognition unless TextFor matches first.
	Text string
	// TextFor maps "<image bytes as string>|<language>" keys to responses.
	TextFor map[string]string
	// Err, when set, is returned by every call.
	Err error

	mu        sync.Mutex
	calls     atomic.Int64
	languages []string
}

// Name returns the engine identifier.
func (m *Mock) Name() string { return EngineNameMock }

// Recognize returns the configured response and records the invocation.
func (m *Mock) Recognize(_ context.Context, in Input) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.languages = append(m.languages, in.Language)
	m.mu.Unlock()

	if m.Err != nil {
		return "", m.Err
	}
	if m.TextFor != nil {
		if text, ok := m.TextFor[string(in.Image)+"|"+in.Language]; ok {
			return text, nil
		}
	}
	return m.Text, nil
}

// Calls returns the number of Recognize invocations.
func (m *Mock) Calls() int64 {
	return m.calls.Load()
}

// Languages returns the language of each invocation in call order.
func (m *Mock) Languages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.languages))
	copy(out, m.languages)
	return out
}
