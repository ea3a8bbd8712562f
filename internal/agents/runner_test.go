package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/adapters/ai"
	"advisor/internal/tools"
)

// stubProvider replays a script of responses; a nil entry means an error.
type stubProvider struct {
	script   []*ai.ChatResponse
	calls    int
	requests []ai.ChatRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, req ai.ChatRequest) (*ai.ChatResponse, error) {
	s.requests = append(s.requests, req)
	if s.calls >= len(s.script) || s.script[s.calls] == nil {
		s.calls++
		return nil, errors.New("model unavailable")
	}
	resp := s.script[s.calls]
	s.calls++
	return resp, nil
}

func textResponse(content string) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, Content: content},
			FinishReason: ai.FinishReasonStop,
		}},
		Usage: ai.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

func toolCallResponse(calls ...ai.ToolCall) *ai.ChatResponse {
	return &ai.ChatResponse{
		Choices: []ai.Choice{{
			Message:      ai.Message{Role: ai.RoleAssistant, ToolCalls: calls},
			FinishReason: ai.FinishReasonToolCalls,
		}},
	}
}

func echoRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry()
	reg.Register(tools.New("echo", "echoes its input", nil, func(_ context.Context, args tools.Args) (string, error) {
		return "echo: " + args.String("text", ""), nil
	}))
	reg.Register(tools.New("broken", "always fails", nil, func(_ context.Context, _ tools.Args) (string, error) {
		return "", errors.New("boom")
	}))
	return reg
}

func TestRunner_PlainChatFinishesFirstTurn(t *testing.T) {
	provider := &stubProvider{script: []*ai.ChatResponse{textResponse("你好")}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentGeneralQA, SystemPrompt: "你是一个助手"}
	result, err := runner.Run(context.Background(), agent, "hi")
	require.NoError(t, err)

	assert.Equal(t, "你好", result.Output)
	assert.Equal(t, 1, result.Iterations)
	assert.Equal(t, 0, result.ToolCalls)
	assert.Equal(t, 15, result.Usage.TotalTokens)
}

func TestRunner_ExecutesToolThenAnswers(t *testing.T) {
	provider := &stubProvider{script: []*ai.ChatResponse{
		toolCallResponse(ai.ToolCall{
			ID:   "call_1",
			Type: "function",
			Function: ai.FunctionCall{
				Name:      "echo",
				Arguments: `{"text": "ping"}`,
			},
		}),
		textResponse("done"),
	}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentFundamentalAnalyst, Registry: echoRegistry(t)}
	result, err := runner.Run(context.Background(), agent, "use the tool")
	require.NoError(t, err)

	assert.Equal(t, "done", result.Output)
	assert.Equal(t, 2, result.Iterations)
	assert.Equal(t, 1, result.ToolCalls)

	// The second request must carry the tool observation, bound to the
	// call id.
	secondReq := provider.requests[1]
	last := secondReq.Messages[len(secondReq.Messages)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Equal(t, "call_1", last.ToolCallID)
	assert.Equal(t, "echo: ping", last.Content)
}

func TestRunner_ToolErrorBecomesObservation(t *testing.T) {
	provider := &stubProvider{script: []*ai.ChatResponse{
		toolCallResponse(ai.ToolCall{
			ID:       "call_1",
			Type:     "function",
			Function: ai.FunctionCall{Name: "broken", Arguments: `{}`},
		}),
		textResponse("recovered"),
	}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentTechnicalAnalyst, Registry: echoRegistry(t)}
	result, err := runner.Run(context.Background(), agent, "try")
	require.NoError(t, err)
	assert.Equal(t, "recovered", result.Output)

	secondReq := provider.requests[1]
	last := secondReq.Messages[len(secondReq.Messages)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Contains(t, last.Content, "调用失败")
}

func TestRunner_UnknownToolBecomesObservation(t *testing.T) {
	provider := &stubProvider{script: []*ai.ChatResponse{
		toolCallResponse(ai.ToolCall{
			ID:       "call_1",
			Type:     "function",
			Function: ai.FunctionCall{Name: "missing", Arguments: `{}`},
		}),
		textResponse("ok"),
	}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentValuationAnalyst, Registry: echoRegistry(t)}
	result, err := runner.Run(context.Background(), agent, "try")
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Output)

	last := provider.requests[1].Messages[len(provider.requests[1].Messages)-1]
	assert.Contains(t, last.Content, "不存在")
}

func TestRunner_ModelErrorPropagates(t *testing.T) {
	provider := &stubProvider{script: []*ai.ChatResponse{nil}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentSummarizer}
	_, err := runner.Run(context.Background(), agent, "hi")
	assert.Error(t, err)
}

func TestRunner_IterationExhaustionReturnsPartialText(t *testing.T) {
	// The model calls a tool forever; the runner trips the cap and hands
	// back whatever text the model produced along the way.
	script := make([]*ai.ChatResponse, 3)
	for i := range script {
		script[i] = toolCallResponse(ai.ToolCall{
			ID:       "call",
			Type:     "function",
			Function: ai.FunctionCall{Name: "echo", Arguments: `{"text": "loop"}`},
		})
	}
	// The middle turn carries interim reasoning text next to its tool call.
	script[1].Choices[0].Message.Content = "初步判断：数据仍在收集。"
	provider := &stubProvider{script: script}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test", MaxIterations: 3})

	agent := &Agent{Type: AgentNewsAnalyst, Registry: echoRegistry(t)}
	result, err := runner.Run(context.Background(), agent, "go")
	require.NoError(t, err)
	assert.True(t, result.Exhausted)
	assert.Equal(t, "初步判断：数据仍在收集。", result.Output)
	assert.Equal(t, 3, result.Iterations)
	assert.Equal(t, 3, provider.calls)
}

func TestRunner_ExhaustionWithoutTextUsesFixedMessage(t *testing.T) {
	script := make([]*ai.ChatResponse, 2)
	for i := range script {
		script[i] = toolCallResponse(ai.ToolCall{
			ID:       "call",
			Type:     "function",
			Function: ai.FunctionCall{Name: "echo", Arguments: `{}`},
		})
	}
	provider := &stubProvider{script: script}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test", MaxIterations: 2})

	agent := &Agent{Type: AgentNewsAnalyst, Registry: echoRegistry(t)}
	result, err := runner.Run(context.Background(), agent, "go")
	require.NoError(t, err)
	assert.True(t, result.Exhausted)
	assert.Equal(t, ExhaustedOutput, result.Output)
}

func TestRunner_NoToolCapIsLower(t *testing.T) {
	// A tool-less agent uses the smaller cap even when the model never
	// produces a final answer.
	script := []*ai.ChatResponse{}
	for i := 0; i < 2; i++ {
		script = append(script, &ai.ChatResponse{
			Choices: []ai.Choice{{
				Message:      ai.Message{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "x", Type: "function"}}},
				FinishReason: ai.FinishReasonToolCalls,
			}},
		})
	}
	provider := &stubProvider{script: script}
	runner := NewRunner(RunnerConfig{
		Provider:            provider,
		Model:               "test",
		MaxIterations:       25,
		MaxIterationsNoTool: 2,
	})

	agent := &Agent{Type: AgentGeneralQA}
	result, err := runner.Run(context.Background(), agent, "hi")
	require.NoError(t, err)
	assert.True(t, result.Exhausted)
	assert.Equal(t, 2, provider.calls)
}

func TestRunner_SmallCompletionCapKeepsFullHistory(t *testing.T) {
	// MaxTokens only caps one completion; it must not shrink the
	// conversation budget and compress away the tool exchange.
	provider := &stubProvider{script: []*ai.ChatResponse{
		toolCallResponse(ai.ToolCall{
			ID:       "call_1",
			Type:     "function",
			Function: ai.FunctionCall{Name: "echo", Arguments: `{"text": "ping"}`},
		}),
		textResponse("done"),
	}}
	runner := NewRunner(RunnerConfig{Provider: provider, Model: "test"})

	agent := &Agent{Type: AgentFundamentalAnalyst, Registry: echoRegistry(t), MaxTokens: 16}
	result, err := runner.Run(context.Background(), agent, "use the tool")
	require.NoError(t, err)
	assert.Equal(t, "done", result.Output)

	secondReq := provider.requests[1]
	assert.Equal(t, 16, secondReq.MaxTokens)
	last := secondReq.Messages[len(secondReq.Messages)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Equal(t, "echo: ping", last.Content)
}
