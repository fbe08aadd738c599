package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"compliance_backend/internal/feature/compliance/domain/entity"
	"compliance_backend/internal/feature/compliance/usecase"
)

// ErrLLM はモックと期待値の間で共有されるセンチネルエラーです。
var ErrLLM = errors.New("llm transport error")

// mockCompleter はCompleterインターフェースのモック実装です。
type mockCompleter struct {
	mu           sync.Mutex
	CompleteFunc func(ctx context.Context, prompt string) (string, error)
	Prompts      []string
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "SECTION|GAP|missing policy|High", nil
}

func (m *mockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}

// mockRegulations はRegulationProviderとRegulationCatalogのモック実装です。
type mockRegulations struct {
	mu               sync.Mutex
	RequirementsFunc func(ctx context.Context, code entity.RegulationCode) (string, error)
	ListFunc         func(ctx context.Context) ([]entity.Regulation, error)
	Requested        []entity.RegulationCode
}

func (m *mockRegulations) Requirements(ctx context.Context, code entity.RegulationCode) (string, error) {
	m.mu.Lock()
	m.Requested = append(m.Requested, code)
	m.mu.Unlock()
	if m.RequirementsFunc != nil {
		return m.RequirementsFunc(ctx, code)
	}
	return string(code) + " requirements", nil
}

func (m *mockRegulations) List(ctx context.Context) ([]entity.Regulation, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

// mockParser はDocumentParserインターフェースのモック実装です。
type mockParser struct {
	mu         sync.Mutex
	ParseFunc  func(ctx context.Context, paths []string) ([]entity.DocumentChunk, error)
	ParseCalls int
	LastPaths  []string
}

func (m *mockParser) Parse(ctx context.Context, paths []string) ([]entity.DocumentChunk, error) {
	m.mu.Lock()
	m.ParseCalls++
	m.LastPaths = paths
	m.mu.Unlock()
	if m.ParseFunc != nil {
		return m.ParseFunc(ctx, paths)
	}
	return []entity.DocumentChunk{{Content: "We enforce MFA for all staff."}}, nil
}

// mockPlanner はPlannerインターフェースのモック実装です。
type mockPlanner struct {
	PlanFunc  func(ctx context.Context, intent string, tools usecase.ToolExecutor) (usecase.PlanResult, error)
	PlanCalls int
	Intents   []string
}

func (m *mockPlanner) Plan(ctx context.Context, intent string, tools usecase.ToolExecutor) (usecase.PlanResult, error) {
	m.PlanCalls++
	m.Intents = append(m.Intents, intent)
	if m.PlanFunc != nil {
		return m.PlanFunc(ctx, intent, tools)
	}
	return usecase.PlanResult{}, errors.New("PlanFunc is not implemented")
}

// mockRemover はUploadRemoverインターフェースのモック実装です。
type mockRemover struct {
	mu      sync.Mutex
	Removed []string
}

func (m *mockRemover) Remove(paths ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Removed = append(m.Removed, paths...)
	return nil
}

// recordingExecutor wraps a ToolExecutor and records every call.
type recordingExecutor struct {
	inner usecase.ToolExecutor
	calls []usecase.ToolCall
}

func (r *recordingExecutor) Specs() []usecase.ToolSpec { return r.inner.Specs() }

func (r *recordingExecutor) Execute(ctx context.Context, name string, args map[string]any) (usecase.ToolResult, error) {
	r.calls = append(r.calls, usecase.ToolCall{Name: name, Args: args})
	return r.inner.Execute(ctx, name, args)
}

// stubExecutor returns a fixed result for every tool.
type stubExecutor struct {
	result usecase.ToolResult
	err    error
	calls  []usecase.ToolCall
}

func (s *stubExecutor) Specs() []usecase.ToolSpec { return nil }

func (s *stubExecutor) Execute(_ context.Context, name string, args map[string]any) (usecase.ToolResult, error) {
	s.calls = append(s.calls, usecase.ToolCall{Name: name, Args: args})
	return s.result, s.err
}

// observation is one ObserveDispatch notification.
type observation struct {
	operation string
	path      entity.DispatchPath
}

type recordingObserver struct {
	seen []observation
}

func (o *recordingObserver) ObserveDispatch(operation string, path entity.DispatchPath, _ time.Duration) {
	o.seen = append(o.seen, observation{operation: operation, path: path})
}

// failingPlanner always fails, as a broken agent would.
func failingPlanner() *mockPlanner {
	return &mockPlanner{PlanFunc: func(context.Context, string, usecase.ToolExecutor) (usecase.PlanResult, error) {
		return usecase.PlanResult{}, errors.New("could not parse LLM output")
	}}
}

func chunks(n int, format func(i int) string) []entity.DocumentChunk {
	out := make([]entity.DocumentChunk, n)
	for i := range out {
		out[i] = entity.DocumentChunk{Content: format(i)}
	}
	return out
}
