package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"compliance_backend/internal/feature/compliance/usecase"
	"compliance_backend/internal/shared/ratelimiter"
)

const (
	// DefaultMaxSteps bounds the number of model turns in one plan.
	DefaultMaxSteps = 6

	plannerInstruction = `You are a compliance assessment assistant. Use the provided tools to fulfil the user's request.
Call tools in the order the workflow needs them: ingest_company_documents, process_uploaded_files,
compliance_gap_analysis, generate_compliance_report. Only call the tools needed for the request.
When you are done, reply with a short plain-text summary of what was done, or with a JSON object
{"action": "Final Answer", "action_input": "<summary>"}.`
)

var (
	// ErrEmptyPlan is returned when the model ends a plan with no usable text.
	ErrEmptyPlan = errors.New("planner returned no output")
	// ErrMaxSteps is returned when a plan does not finish within the step budget.
	ErrMaxSteps = errors.New("planner exceeded the maximum number of steps")
)

// Planner lets Gemini choose and sequence compliance tools through function calling.
type Planner struct {
	models      contentGenerator
	model       string
	maxSteps    int
	timeout     time.Duration
	rateLimiter ratelimiter.RateLimiterInterface
}

// Compile-time check that Planner implements usecase.Planner.
var _ usecase.Planner = (*Planner)(nil)

// NewPlanner creates a Planner on client. Zero values fall back to the package defaults.
func NewPlanner(client *genai.Client, model string, maxSteps int, timeout time.Duration, rl ratelimiter.RateLimiterInterface) *Planner {
	return newPlanner(client.Models, model, maxSteps, timeout, rl)
}

func newPlanner(models contentGenerator, model string, maxSteps int, timeout time.Duration, rl ratelimiter.RateLimiterInterface) *Planner {
	if model == "" {
		model = DefaultModel
	}
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Planner{models: models, model: model, maxSteps: maxSteps, timeout: timeout, rateLimiter: rl}
}

// Plan runs the function-calling loop for intent. A tool marked ReturnDirect
// ends the plan with that tool's output. Any tool error aborts the plan.
func (p *Planner) Plan(ctx context.Context, intent string, tools usecase.ToolExecutor) (usecase.PlanResult, error) {
	specs := tools.Specs()
	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(plannerInstruction, genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: declarations(specs)}},
		Temperature:       &temp,
	}
	contents := []*genai.Content{genai.NewContentFromText(intent, genai.RoleUser)}

	for step := 0; step < p.maxSteps; step++ {
		resp, err := p.generate(ctx, contents, cfg)
		if err != nil {
			return usecase.PlanResult{}, err
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return usecase.PlanResult{}, ErrEmptyPlan
		}

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			return parseFinalAnswer(resp.Text())
		}

		contents = append(contents, resp.Candidates[0].Content)
		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := tools.Execute(ctx, call.Name, call.Args)
			if err != nil {
				return usecase.PlanResult{}, fmt.Errorf("tool %s: %w", call.Name, err)
			}
			if result.ReturnDirect {
				return usecase.PlanResult{Kind: usecase.PlanPlainText, Text: result.Output}, nil
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, map[string]any{"output": result.Output}))
		}
		contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: parts})
	}
	return usecase.PlanResult{}, ErrMaxSteps
}

func (p *Planner) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	if p.rateLimiter != nil {
		p.rateLimiter.WaitIfNeeded()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	resp, err := p.models.GenerateContent(ctx, p.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API request failed: %w", err)
	}
	return resp, nil
}

// declarations maps tool specs to Gemini function declarations.
func declarations(specs []usecase.ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, s := range specs {
		decl := &genai.FunctionDeclaration{Name: s.Name, Description: s.Description}
		if len(s.Params) > 0 {
			schema := &genai.Schema{Type: genai.TypeObject, Properties: make(map[string]*genai.Schema, len(s.Params))}
			for _, prm := range s.Params {
				typ := genai.TypeString
				if prm.Type == "integer" {
					typ = genai.TypeInteger
				}
				schema.Properties[prm.Name] = &genai.Schema{Type: typ, Description: prm.Description}
				if prm.Required {
					schema.Required = append(schema.Required, prm.Name)
				}
			}
			decl.Parameters = schema
		}
		decls = append(decls, decl)
	}
	return decls
}

// parseFinalAnswer classifies the model's closing text. A JSON object carrying
// "action_input" becomes a structured action; anything else is plain text.
func parseFinalAnswer(text string) (usecase.PlanResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return usecase.PlanResult{}, ErrEmptyPlan
	}

	body := stripCodeFence(text)
	if strings.HasPrefix(body, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(body), &obj); err == nil {
			if input, ok := obj["action_input"]; ok {
				action, _ := obj["action"].(string)
				return usecase.PlanResult{
					Kind:        usecase.PlanStructuredAction,
					Action:      action,
					ActionInput: stringify(input),
				}, nil
			}
		}
	}
	return usecase.PlanResult{Kind: usecase.PlanPlainText, Text: text}, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}
