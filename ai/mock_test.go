package ai

import (
	"context"
	"errors"
)

// MockProvider replays a canned response or error.
type MockProvider struct {
	name     string
	Response string
	Err      error
	Calls    int
	Prompts  []string
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Generate(_ context.Context, prompt string) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

var errUnavailable = errors.New("503 service unavailable")
