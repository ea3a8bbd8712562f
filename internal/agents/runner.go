package agents

import (
	"context"
	"encoding/json"
	"fmt"

	"advisor/internal/adapters/ai"
	"advisor/internal/tools"
	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

const (
	// DefaultMaxIterations bounds tool-augmented runs. Each iteration is
	// one model call, so a run can observe at most this many times.
	DefaultMaxIterations = 25

	// DefaultMaxIterationsNoTool bounds plain chat agents, which should
	// answer in one turn but may be retried by upstream logic.
	DefaultMaxIterationsNoTool = 10
)

// ExhaustedOutput stands in for the final answer when the loop hits its
// cap without the model ever producing text.
const ExhaustedOutput = "未能在限定步数内完成分析"

// Result is the outcome of one agent run.
type Result struct {
	Output     string
	Iterations int
	ToolCalls  int
	Usage      ai.Usage

	// Exhausted marks a run that hit the iteration cap. Output then
	// holds the last assistant text, or ExhaustedOutput if there was
	// none. Callers treat it as degraded content, not as an error.
	Exhausted bool
}

// Runner drives the reason/act loop: call the model, execute any tool
// calls it requests, feed observations back, repeat until the model
// stops or the iteration cap trips.
type Runner struct {
	provider            ai.ChatProvider
	model               string
	maxIterations       int
	maxIterationsNoTool int
	log                 *logger.Logger
}

// RunnerConfig holds runner construction options.
type RunnerConfig struct {
	Provider            ai.ChatProvider
	Model               string
	MaxIterations       int
	MaxIterationsNoTool int
}

// NewRunner creates a runner. Zero caps fall back to the defaults.
func NewRunner(cfg RunnerConfig) *Runner {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	maxIterNoTool := cfg.MaxIterationsNoTool
	if maxIterNoTool <= 0 {
		maxIterNoTool = DefaultMaxIterationsNoTool
	}

	return &Runner{
		provider:            cfg.Provider,
		model:               cfg.Model,
		maxIterations:       maxIter,
		maxIterationsNoTool: maxIterNoTool,
		log:                 logger.Get().With("component", "agent_runner"),
	}
}

// Run executes an agent against one input until it produces a final
// answer. Model errors propagate; tool errors are converted into tool
// observations so the model can recover or report them.
func (r *Runner) Run(ctx context.Context, agent *Agent, input string) (*Result, error) {
	conv := NewConversationManager(agent.SystemPrompt, agent.ContextTokens)
	conv.Add(ai.Message{Role: ai.RoleUser, Content: input})

	var defs []ai.ToolDefinition
	maxIter := r.maxIterationsNoTool
	if agent.HasTools() {
		defs = agent.Registry.Definitions()
		maxIter = r.maxIterations
	}

	result := &Result{}
	log := r.log.With("agent", string(agent.Type))

	for iteration := 1; iteration <= maxIter; iteration++ {
		result.Iterations = iteration

		resp, err := r.provider.Chat(ctx, ai.ChatRequest{
			Model:       r.model,
			Messages:    conv.Messages(),
			Tools:       defs,
			Temperature: agent.Temperature,
			MaxTokens:   agent.MaxTokens,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "agent %s iteration %d", agent.Type, iteration)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.Wrapf(errors.ErrExternal, "agent %s: empty response", agent.Type)
		}

		result.Usage.PromptTokens += resp.Usage.PromptTokens
		result.Usage.CompletionTokens += resp.Usage.CompletionTokens
		result.Usage.TotalTokens += resp.Usage.TotalTokens

		choice := resp.Choices[0]
		conv.Add(choice.Message)
		if choice.Message.Content != "" {
			result.Output = choice.Message.Content
		}

		if len(choice.Message.ToolCalls) == 0 {
			log.Debugf("Run finished after %d iterations, %d tool calls", iteration, result.ToolCalls)
			return result, nil
		}

		// Execute tool calls in the order the model requested them.
		for _, call := range choice.Message.ToolCalls {
			result.ToolCalls++
			observation := r.executeTool(ctx, agent, call)
			conv.Add(ai.Message{
				Role:       ai.RoleTool,
				Content:    observation,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
			})
		}
	}

	// Exhaustion is not an error: whatever partial text exists is handed
	// back and the calling stage decides how to degrade.
	result.Exhausted = true
	if result.Output == "" {
		result.Output = ExhaustedOutput
	}
	log.Warnf("Run exhausted %d iterations without a final answer", maxIter)
	return result, nil
}

// executeTool dispatches one tool call; failures become observation text.
func (r *Runner) executeTool(ctx context.Context, agent *Agent, call ai.ToolCall) string {
	name := call.Function.Name

	if agent.Registry == nil {
		r.log.Warnf("Agent %s has no tools but called %s", agent.Type, name)
		return fmt.Sprintf("工具 %s 不存在", name)
	}

	tool, ok := agent.Registry.Get(name)
	if !ok {
		r.log.Warnf("Agent %s called unknown tool %s", agent.Type, name)
		return fmt.Sprintf("工具 %s 不存在", name)
	}

	var args tools.Args
	if call.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
			return fmt.Sprintf("工具 %s 参数解析失败: %v", name, err)
		}
	}

	output, err := tool.Execute(ctx, args)
	if err != nil {
		r.log.Warnf("Tool %s failed: %v", name, err)
		return fmt.Sprintf("工具 %s 调用失败: %v", name, err)
	}
	return output
}
