package scorer

import (
	"context"
	"sync"
)

// Call-counting mocks for tests. The auto-block short-circuit contract is
// verified by asserting zero judge invocations, so the counters matter.

type MockClassifier struct {
	Result Score
	Err    error

	mu    sync.Mutex
	calls int
}

var _ Classifier = (*MockClassifier)(nil)

func (m *MockClassifier) Classify(ctx context.Context, text string) (Score, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return Score{}, m.Err
	}
	return m.Result, nil
}

func (m *MockClassifier) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type MockJudge struct {
	Result JudgeResult
	Err    error

	mu    sync.Mutex
	calls int
}

var _ Judge = (*MockJudge)(nil)

func (m *MockJudge) Judge(ctx context.Context, text string) (JudgeResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return JudgeResult{}, m.Err
	}
	return m.Result, nil
}

func (m *MockJudge) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
