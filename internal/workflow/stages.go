package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/agents"
	"advisor/internal/metrics"
	"advisor/internal/tools"
	"advisor/internal/tools/knowledge"
	"advisor/internal/tools/stock"
	"advisor/pkg/logger"
)

// noDataPlaceholder stands in for an analyst section that failed or
// produced nothing.
const noDataPlaceholder = "暂无数据"

// StageDeps carries everything the stage handlers need.
type StageDeps struct {
	Runner    *agents.Runner
	StockDeps stock.Deps

	// Knowledge domain retrievers. Either may be nil, the corresponding
	// agents then run without retrieval.
	StockKnowledge   knowledge.Searcher
	CompanyKnowledge knowledge.Searcher

	Metrics *metrics.Workflow
}

// NewHandlers wires the full stage handler set.
func NewHandlers(deps StageDeps) map[Stage]Handler {
	s := &stages{
		runner:  deps.Runner,
		deps:    deps,
		log:     logger.Get().With("component", "workflow_stages"),
		metrics: deps.Metrics,
	}
	s.buildAgents()

	return map[Stage]Handler{
		StageClassify:    s.classify,
		StagePlanner:     s.plan,
		StageFundamental: s.analyst(StageFundamental, s.fundamentalAgent, "基本面分析失败"),
		StageTechnical:   s.analyst(StageTechnical, s.technicalAgent, "技术面分析失败"),
		StageValuation:   s.analyst(StageValuation, s.valuationAgent, "估值分析失败"),
		StageNews:        s.analyst(StageNews, s.newsAgent, "消息面分析失败"),
		StageSummarizer:  s.summarize,
		StageCompanyQA:   s.companyQA,
		StageGeneralQA:   s.generalQA,
	}
}

type stages struct {
	runner     *agents.Runner
	deps       StageDeps
	classifier *Classifier
	log        *logger.Logger
	metrics    *metrics.Workflow

	plannerAgent     *agents.Agent
	fundamentalAgent *agents.Agent
	technicalAgent   *agents.Agent
	valuationAgent   *agents.Agent
	newsAgent        *agents.Agent
	summarizerAgent  *agents.Agent
	industryAgent    *agents.Agent
	companyQAAgent   *agents.Agent
	generalQAAgent   *agents.Agent
}

// buildAgents assembles each specialist with its tool registry.
func (s *stages) buildAgents() {
	s.classifier = NewClassifier(s.runner)

	lookup := tools.NewRegistry()
	lookup.Register(stock.NewLookupCodeTool())
	s.plannerAgent = &agents.Agent{
		Type:         agents.AgentPlanner,
		Name:         "任务规划器",
		SystemPrompt: plannerPrompt,
		Registry:     lookup,
		Temperature:  0,
	}

	fundamental := tools.NewRegistry()
	for _, t := range stock.NewReportTools(s.deps.StockDeps) {
		fundamental.Register(t)
	}
	if s.deps.StockKnowledge != nil {
		fundamental.Register(knowledge.NewSearchTool("stock", "个股研究", s.deps.StockKnowledge))
	}
	s.fundamentalAgent = &agents.Agent{
		Type:         agents.AgentFundamentalAnalyst,
		Name:         "基本面分析师",
		SystemPrompt: fundamentalPrompt,
		Registry:     fundamental,
		Temperature:  0.3,
	}

	technical := tools.NewRegistry()
	technical.Register(stock.NewGetKlineTool(s.deps.StockDeps))
	technical.Register(stock.NewIndicatorsTool(s.deps.StockDeps))
	s.technicalAgent = &agents.Agent{
		Type:         agents.AgentTechnicalAnalyst,
		Name:         "技术分析师",
		SystemPrompt: technicalPrompt,
		Registry:     technical,
		Temperature:  0.3,
	}

	valuation := tools.NewRegistry()
	valuation.Register(stock.NewValuationTool(s.deps.StockDeps))
	valuation.Register(stock.NewGetQuoteTool(s.deps.StockDeps))
	valuation.Register(stock.NewDividendTool(s.deps.StockDeps))
	valuation.Register(stock.NewIndustryTool(s.deps.StockDeps))
	valuation.Register(stock.NewIndexConstituentsTool(s.deps.StockDeps))
	valuation.Register(stock.NewProfitTool(s.deps.StockDeps))
	s.valuationAgent = &agents.Agent{
		Type:         agents.AgentValuationAnalyst,
		Name:         "估值分析师",
		SystemPrompt: valuationPrompt,
		Registry:     valuation,
		Temperature:  0.3,
	}

	news := tools.NewRegistry()
	news.Register(stock.NewGetNewsTool(s.deps.StockDeps))
	s.newsAgent = &agents.Agent{
		Type:         agents.AgentNewsAnalyst,
		Name:         "新闻分析师",
		SystemPrompt: newsPrompt,
		Registry:     news,
		Temperature:  0.3,
	}

	s.summarizerAgent = &agents.Agent{
		Type:         agents.AgentSummarizer,
		Name:         "首席顾问",
		SystemPrompt: summarizerPrompt,
		Temperature:  0.5,
	}

	s.industryAgent = &agents.Agent{
		Type:         agents.AgentIndustry,
		Name:         "行业分类",
		SystemPrompt: industryPrompt,
		Temperature:  0,
	}

	companyQA := tools.NewRegistry()
	if s.deps.CompanyKnowledge != nil {
		companyQA.Register(knowledge.NewSearchTool("company", "公司内部知识", s.deps.CompanyKnowledge))
	}
	s.companyQAAgent = &agents.Agent{
		Type:         agents.AgentCompanyQA,
		Name:         "公司问答顾问",
		SystemPrompt: companyQAPrompt,
		Registry:     companyQA,
		Temperature:  0.5,
	}

	s.generalQAAgent = &agents.Agent{
		Type:         agents.AgentGeneralQA,
		Name:         "通用助手",
		SystemPrompt: generalQAPrompt,
		Temperature:  0.7,
	}
}

func (s *stages) classify(ctx context.Context, state *State) (Stage, error) {
	intent, method := s.classifyWithMethod(ctx, state.Query)
	state.Intent = intent
	s.metrics.IntentClassified(string(intent), method)

	switch intent {
	case IntentStock:
		return StagePlanner, nil
	case IntentCompany:
		return StageCompanyQA, nil
	default:
		return StageGeneralQA, nil
	}
}

func (s *stages) classifyWithMethod(ctx context.Context, query string) (Intent, string) {
	if intent, ok := classifyByRules(query); ok {
		return intent, "rules"
	}
	return s.classifier.Classify(ctx, query), "model"
}

// plan extracts the analysis target. An unresolvable target or a dead
// planner model downgrades the run to general QA instead of failing it.
func (s *stages) plan(ctx context.Context, state *State) (Stage, error) {
	result, err := s.runner.Run(ctx, s.plannerAgent, state.Query)
	if err != nil {
		s.log.Warnf("Planner failed, downgrading to general: %v", err)
		state.RecordError(StagePlanner, fmt.Sprintf("任务规划失败: %v", err))
		state.StockName, state.StockCode, state.Market = "", "", ""
		state.Intent = IntentGeneral
		return StageGeneralQA, nil
	}

	p, err := parsePlan(result.Output)
	if err == nil {
		state.StockName, state.StockCode, err = resolveTarget(p)
	}
	if err != nil {
		s.log.Warnf("Target unresolved, downgrading to general: %v", err)
		state.RecordError(StagePlanner, fmt.Sprintf("无法确定股票代码: %v", err))
		state.StockName, state.StockCode, state.Market = "", "", ""
		state.Intent = IntentGeneral
		return StageGeneralQA, nil
	}

	state.Market = marketdata.MarketName(state.StockCode)
	s.log.Infof("Analysis target: %s (%s, %s)", state.StockName, state.StockCode, state.Market)
	return StageFundamental, nil
}

// analyst builds a degradable handler for one analyst stage. Failures
// are recorded in the section and the run moves on.
func (s *stages) analyst(stage Stage, agent *agents.Agent, failurePrefix string) Handler {
	next := map[Stage]Stage{
		StageFundamental: StageTechnical,
		StageTechnical:   StageValuation,
		StageValuation:   StageNews,
		StageNews:        StageSummarizer,
	}[stage]

	return func(ctx context.Context, state *State) (Stage, error) {
		input := fmt.Sprintf("请分析股票 %s（代码 %s）。用户问题：%s", state.StockName, state.StockCode, state.Query)

		result, err := s.runner.Run(ctx, agent, input)
		section := ""
		status := "success"
		switch {
		case err != nil:
			section = fmt.Sprintf("%s: %v", failurePrefix, err)
			state.RecordError(stage, section)
			status = "error"
			s.log.Warnf("Stage %s degraded: %v", stage, err)
		case result.Exhausted:
			// Cap exhaustion keeps whatever partial analysis exists but
			// still marks the stage degraded.
			section = result.Output
			state.RecordError(stage, fmt.Sprintf("%s: 达到迭代上限", failurePrefix))
			status = "error"
			s.log.Warnf("Stage %s exhausted its iteration cap", stage)
		default:
			section = result.Output
			metrics.AgentTokens.WithLabelValues(string(agent.Type), "input").Add(float64(result.Usage.PromptTokens))
			metrics.AgentTokens.WithLabelValues(string(agent.Type), "output").Add(float64(result.Usage.CompletionTokens))
		}
		metrics.AgentCalls.WithLabelValues(string(agent.Type), status).Inc()

		switch stage {
		case StageFundamental:
			state.Fundamental = section
		case StageTechnical:
			state.Technical = section
		case StageValuation:
			state.Valuation = section
		case StageNews:
			state.News = section
		}

		return next, nil
	}
}

func (s *stages) summarize(ctx context.Context, state *State) (Stage, error) {
	input := buildSummaryInput(state)
	if blob := s.supplementaryKnowledge(ctx, state); blob != "" {
		input += "\n\n【参考资料】\n" + blob
	}

	result, err := s.runner.Run(ctx, s.summarizerAgent, input)
	if err != nil {
		// The report is produced even when the final synthesis dies; the
		// caller gets a failure body, not an aborted run.
		state.RecordError(StageSummarizer, fmt.Sprintf("报告生成失败: %v", err))
		state.Answer = fmt.Sprintf("报告生成失败: %v", err)
		return StageDone, nil
	}
	if result.Exhausted {
		state.RecordError(StageSummarizer, "报告生成未完成: 达到迭代上限")
	}

	state.Answer = reportHeader(state) + result.Output
	return StageDone, nil
}

// supplementaryKnowledge retrieves domain knowledge for the summarizer,
// narrowing the query with a best-effort industry label. Any failure
// along the way yields "" and the summary runs without supplements.
func (s *stages) supplementaryKnowledge(ctx context.Context, state *State) string {
	if s.deps.StockKnowledge == nil {
		return ""
	}

	query := state.StockName
	if industry := s.inferIndustry(ctx, state.StockName); industry != "" {
		query += " " + industry
	}
	return s.deps.StockKnowledge.Search(ctx, query)
}

// inferIndustry asks the model for the company's industry label. The
// answer is unverifiable, so it is only used to narrow retrieval: first
// line, length-capped, empty on any failure.
func (s *stages) inferIndustry(ctx context.Context, name string) string {
	result, err := s.runner.Run(ctx, s.industryAgent, name)
	if err != nil {
		s.log.Warnf("Industry inference failed: %v", err)
		return ""
	}

	label := strings.TrimSpace(result.Output)
	if i := strings.IndexAny(label, "\n\r"); i >= 0 {
		label = strings.TrimSpace(label[:i])
	}
	runes := []rune(label)
	if len(runes) > 20 {
		label = string(runes[:20])
	}
	return label
}

// reportHeader prepends generation metadata to the final report.
func reportHeader(state *State) string {
	var sb strings.Builder
	sb.WriteString("# 股票分析报告\n\n")
	fmt.Fprintf(&sb, "- 生成时间：%s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "- 公司：%s\n", state.StockName)
	fmt.Fprintf(&sb, "- 代码：%s\n", state.StockCode)
	fmt.Fprintf(&sb, "- 市场：%s\n\n", state.Market)
	return sb.String()
}

// buildSummaryInput assembles the summarizer prompt from the analyst
// sections, substituting the placeholder for anything missing.
func buildSummaryInput(state *State) string {
	section := func(text string) string {
		if strings.TrimSpace(text) == "" {
			return noDataPlaceholder
		}
		return text
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "用户问题：%s\n", state.Query)
	fmt.Fprintf(&sb, "分析标的：%s（%s）\n\n", state.StockName, state.StockCode)
	fmt.Fprintf(&sb, "【基本面分析】\n%s\n\n", section(state.Fundamental))
	fmt.Fprintf(&sb, "【技术面分析】\n%s\n\n", section(state.Technical))
	fmt.Fprintf(&sb, "【估值分析】\n%s\n\n", section(state.Valuation))
	fmt.Fprintf(&sb, "【消息面分析】\n%s", section(state.News))
	return sb.String()
}

func (s *stages) companyQA(ctx context.Context, state *State) (Stage, error) {
	result, err := s.runner.Run(ctx, s.companyQAAgent, state.Query)
	if err != nil {
		state.RecordError(StageCompanyQA, fmt.Sprintf("公司知识查询失败: %v", err))
		state.Answer = fmt.Sprintf("公司知识查询失败: %v", err)
		return StageDone, nil
	}
	if result.Exhausted {
		state.RecordError(StageCompanyQA, "公司知识查询未完成: 达到迭代上限")
	}
	state.Answer = result.Output
	return StageDone, nil
}

func (s *stages) generalQA(ctx context.Context, state *State) (Stage, error) {
	result, err := s.runner.Run(ctx, s.generalQAAgent, state.Query)
	if err != nil {
		state.RecordError(StageGeneralQA, fmt.Sprintf("回答生成失败: %v", err))
		state.Answer = fmt.Sprintf("回答生成失败: %v", err)
		return StageDone, nil
	}
	if result.Exhausted {
		state.RecordError(StageGeneralQA, "回答未完成: 达到迭代上限")
	}
	state.Answer = result.Output
	return StageDone, nil
}
