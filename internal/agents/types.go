package agents

import "advisor/internal/tools"

// AgentType enumerates supported agent specializations.
type AgentType string

const (
	AgentPlanner            AgentType = "planner"
	AgentFundamentalAnalyst AgentType = "fundamental_analyst"
	AgentTechnicalAnalyst   AgentType = "technical_analyst"
	AgentValuationAnalyst   AgentType = "valuation_analyst"
	AgentNewsAnalyst        AgentType = "news_analyst"
	AgentSummarizer         AgentType = "summarizer"
	AgentCompanyQA          AgentType = "company_qa"
	AgentGeneralQA          AgentType = "general_qa"
	AgentClassifier         AgentType = "classifier"
	AgentIndustry           AgentType = "industry"
)

// Agent is one configured specialist: its instructions plus the tools it
// may call. A nil or empty registry makes it a plain chat agent.
type Agent struct {
	Type         AgentType
	Name         string
	SystemPrompt string
	Registry     *tools.Registry
	Temperature  float64

	// MaxTokens caps one completion (the API max_tokens parameter).
	MaxTokens int

	// ContextTokens budgets the whole conversation; the manager starts
	// compressing old tool exchanges past it. Zero uses the default.
	ContextTokens int
}

// HasTools reports whether the agent can call any tool.
func (a *Agent) HasTools() bool {
	return a.Registry != nil && len(a.Registry.List()) > 0
}
