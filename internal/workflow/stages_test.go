package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/agents"
	"advisor/internal/metrics"
	"advisor/internal/tools/stock"
)

func newTestEngine(t *testing.T, provider *scriptedProvider) *Engine {
	t.Helper()

	runner := agents.NewRunner(agents.RunnerConfig{Provider: provider, Model: "test"})
	handlers := NewHandlers(StageDeps{
		Runner:    runner,
		StockDeps: stock.Deps{Market: marketdata.NewReferenceClient()},
		Metrics:   metrics.NewWorkflow(),
	})

	engine, err := NewEngine(handlers, time.Minute, metrics.NewWorkflow())
	require.NoError(t, err)
	return engine
}

func TestFullAnalysis_MaotaiScenario(t *testing.T) {
	// "分析贵州茅台" classifies by rules, so the script starts at the
	// planner: JSON plan, four analyst sections, final summary.
	provider := &scriptedProvider{outputs: []string{
		`{"stock_name": "贵州茅台", "stock_code": "sh.600519"}`,
		"基本面结论：盈利能力强。",
		"技术面结论：趋势向上。",
		"估值结论：估值合理。",
		"消息面结论：无重大负面新闻。",
		"综合结论：建议关注。",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "分析贵州茅台")
	require.NoError(t, err)

	assert.Equal(t, IntentStock, state.Intent)
	assert.Equal(t, "贵州茅台", state.StockName)
	assert.Equal(t, "sh.600519", state.StockCode)
	assert.Equal(t, "上海证券交易所", state.Market)
	assert.Equal(t, "基本面结论：盈利能力强。", state.Fundamental)
	assert.Equal(t, "技术面结论：趋势向上。", state.Technical)
	assert.Equal(t, "估值结论：估值合理。", state.Valuation)
	assert.Equal(t, "消息面结论：无重大负面新闻。", state.News)
	assert.Contains(t, state.Answer, "# 股票分析报告")
	assert.Contains(t, state.Answer, "上海证券交易所")
	assert.Contains(t, state.Answer, "综合结论：建议关注。")
	assert.False(t, state.Degraded())

	// The summarizer saw every analyst section.
	summaryReq := provider.requests[len(provider.requests)-1]
	input := summaryReq.Messages[len(summaryReq.Messages)-1].Content
	assert.Contains(t, input, "基本面结论")
	assert.Contains(t, input, "技术面结论")
	assert.Contains(t, input, "估值结论")
	assert.Contains(t, input, "消息面结论")
}

type stubSearcher struct {
	blob    string
	queries []string
}

func (s *stubSearcher) Search(_ context.Context, query string) string {
	s.queries = append(s.queries, query)
	return s.blob
}

func TestSummarizer_AugmentsWithKnowledge(t *testing.T) {
	// With a stock knowledge searcher configured, the summarizer infers
	// an industry label and retrieves supplements before synthesizing.
	provider := &scriptedProvider{outputs: []string{
		`{"stock_name": "贵州茅台", "stock_code": "sh.600519"}`,
		"基本面结论。",
		"技术面结论。",
		"估值结论。",
		"消息面结论。",
		"白酒",
		"综合结论。",
	}}
	searcher := &stubSearcher{blob: "【来源: 行业研报.txt 第1页】\n白酒行业景气度高。"}

	runner := agents.NewRunner(agents.RunnerConfig{Provider: provider, Model: "test"})
	handlers := NewHandlers(StageDeps{
		Runner:         runner,
		StockDeps:      stock.Deps{Market: marketdata.NewReferenceClient()},
		StockKnowledge: searcher,
		Metrics:        metrics.NewWorkflow(),
	})
	engine, err := NewEngine(handlers, time.Minute, metrics.NewWorkflow())
	require.NoError(t, err)

	state, err := engine.Run(context.Background(), "分析贵州茅台")
	require.NoError(t, err)

	require.Len(t, searcher.queries, 1)
	assert.Equal(t, "贵州茅台 白酒", searcher.queries[0])

	summaryReq := provider.requests[len(provider.requests)-1]
	input := summaryReq.Messages[len(summaryReq.Messages)-1].Content
	assert.Contains(t, input, "【参考资料】")
	assert.Contains(t, input, "白酒行业景气度高")
	assert.Contains(t, state.Answer, "综合结论。")
}

func TestFullAnalysis_UnresolvedTargetDowngrades(t *testing.T) {
	// The planner cannot name a code; the run degrades to general QA
	// instead of failing.
	provider := &scriptedProvider{outputs: []string{
		`{"stock_name": "某不知名小公司", "stock_code": ""}`,
		"抱歉，无法确定您要分析的股票。",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "分析某不知名小公司的股票")
	require.NoError(t, err)

	assert.Equal(t, IntentGeneral, state.Intent)
	assert.Empty(t, state.StockName)
	assert.Empty(t, state.StockCode)
	assert.True(t, state.Degraded())
	assert.Equal(t, "抱歉，无法确定您要分析的股票。", state.Answer)
}

func TestFullAnalysis_AnalystFailureDegrades(t *testing.T) {
	// The script runs out during the fundamental stage, so that agent
	// errors; later stages still run off the remaining script.
	provider := &scriptedProvider{outputs: []string{
		`{"stock_name": "贵州茅台", "stock_code": "sh.600519"}`,
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "分析贵州茅台")

	// All four analysts and then the summarizer fail once the script is
	// exhausted; the run still completes with a failure report.
	require.NoError(t, err)
	assert.True(t, state.Degraded())
	assert.Contains(t, state.Fundamental, "基本面分析失败")
	assert.Contains(t, state.Answer, "报告生成失败")
}

func TestFullAnalysis_SummarizerFailureKeepsSections(t *testing.T) {
	// Every analyst succeeds; only the final synthesis call errors. The
	// user still gets an answer naming the failure.
	provider := &scriptedProvider{outputs: []string{
		`{"stock_name": "贵州茅台", "stock_code": "sh.600519"}`,
		"基本面结论。",
		"技术面结论。",
		"估值结论。",
		"消息面结论。",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "分析贵州茅台")
	require.NoError(t, err)

	assert.Equal(t, "基本面结论。", state.Fundamental)
	assert.Equal(t, "消息面结论。", state.News)
	assert.Contains(t, state.Answer, "报告生成失败")
	assert.True(t, state.Degraded())
}

func TestGeneralQuery_RoutesToGeneralQA(t *testing.T) {
	provider := &scriptedProvider{outputs: []string{
		"general",
		"你好！",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "你好")
	require.NoError(t, err)

	assert.Equal(t, IntentGeneral, state.Intent)
	assert.Equal(t, "你好！", state.Answer)
}

func TestCompanyQuery_RoutesToCompanyQA(t *testing.T) {
	provider := &scriptedProvider{outputs: []string{
		"请假流程：在OA系统提交申请，直属主管审批。",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "公司请假流程是什么")
	require.NoError(t, err)

	assert.Equal(t, IntentCompany, state.Intent)
	assert.Contains(t, state.Answer, "请假流程")
}

func TestGeneralQuery_ModelFailureStillAnswers(t *testing.T) {
	// The classifier routes by model, then the QA call errors. The run
	// completes with a failure answer instead of aborting empty.
	provider := &scriptedProvider{outputs: []string{
		"general",
	}}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "什么是人工智能")
	require.NoError(t, err)

	assert.Equal(t, IntentGeneral, state.Intent)
	assert.NotEmpty(t, state.Answer)
	assert.Contains(t, state.Answer, "回答生成失败")
	assert.True(t, state.Degraded())
}

func TestCompanyQuery_ModelFailureStillAnswers(t *testing.T) {
	provider := &scriptedProvider{}
	engine := newTestEngine(t, provider)

	state, err := engine.Run(context.Background(), "如何报销差旅费")
	require.NoError(t, err)

	assert.Equal(t, IntentCompany, state.Intent)
	assert.Contains(t, state.Answer, "公司知识查询失败")
}

func TestBuildSummaryInput_PlaceholderForMissingSections(t *testing.T) {
	state := NewState("分析贵州茅台")
	state.StockName = "贵州茅台"
	state.StockCode = "sh.600519"
	state.Fundamental = "有数据"

	input := buildSummaryInput(state)
	assert.Contains(t, input, "有数据")
	assert.Contains(t, input, noDataPlaceholder)
}
