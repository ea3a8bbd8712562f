package workflow

import (
	"context"
	"regexp"
	"strings"

	"advisor/internal/adapters/marketdata"
	"advisor/internal/agents"
	"advisor/pkg/logger"
)

// classifierPrompt asks the model for a bare label; anything else is
// treated as general.
const classifierPrompt = `你是一个意图分类器。判断用户问题属于哪一类，只输出一个词：
stock - 要求分析某只具体股票或证券投资问题（给出了公司名称、股票代码或财经术语）
company - 询问公司内部制度或流程（请假、报销、员工手册、考勤等）
general - 其他所有问题

只输出 stock、company 或 general，不要输出任何其他内容。`

// codeInQueryRe finds an embedded stock code with or without the
// exchange prefix.
var codeInQueryRe = regexp.MustCompile(`(?:sh|sz|SH|SZ)\.\d{6}|\b\d{6}\b`)

// stockKeywords are financial and investment terms. Any hit means the
// user wants a stock analysis, even when the target turns out to be
// unresolvable (the planner downgrades those).
var stockKeywords = []string{
	"股票", "股价", "走势", "分析", "估值", "市盈率", "市净率", "财报",
	"投资价值", "K线", "k线", "成交量", "基本面", "技术面", "分红",
	"能买", "值得买", "建仓", "涨停", "跌停",
}

// companyKeywords are internal process terms answered from the company
// knowledge base.
var companyKeywords = []string{
	"请假", "报销", "员工手册", "手册", "考勤", "入职", "离职",
	"规章制度", "薪酬", "福利", "公积金", "社保", "年假", "加班",
}

// Classifier decides the intent of a query: deterministic keyword rules
// first, model fallback for everything ambiguous.
type Classifier struct {
	runner *agents.Runner
	agent  *agents.Agent
	log    *logger.Logger
}

// NewClassifier builds the hybrid classifier.
func NewClassifier(runner *agents.Runner) *Classifier {
	return &Classifier{
		runner: runner,
		agent: &agents.Agent{
			Type:         agents.AgentClassifier,
			Name:         "意图分类器",
			SystemPrompt: classifierPrompt,
			Temperature:  0,
			MaxTokens:    16,
		},
		log: logger.Get().With("component", "intent_classifier"),
	}
}

// Classify routes a query to an intent. It never fails: when both the
// rules and the model are inconclusive the query is general.
func (c *Classifier) Classify(ctx context.Context, query string) Intent {
	if intent, ok := classifyByRules(query); ok {
		c.log.Debugf("Rule classification: %s", intent)
		return intent
	}

	result, err := c.runner.Run(ctx, c.agent, query)
	if err != nil {
		c.log.Warnf("Model classification failed, defaulting to general: %v", err)
		return IntentGeneral
	}

	intent := Intent(strings.ToLower(strings.TrimSpace(result.Output)))
	if !intent.Valid() {
		c.log.Warnf("Model returned unknown intent %q, defaulting to general", result.Output)
		return IntentGeneral
	}

	c.log.Debugf("Model classification: %s", intent)
	return intent
}

// classifyByRules applies the deterministic rules, first match wins:
// a financial term, a known company name or an embedded code reads as
// stock; internal process terms read as company. Stock wins ties, so
// "分析XX公司" is an analysis request even though it mentions 公司.
func classifyByRules(query string) (Intent, bool) {
	if containsAny(query, stockKeywords) || mentionsStockTarget(query) {
		return IntentStock, true
	}

	if containsAny(query, companyKeywords) {
		return IntentCompany, true
	}

	return "", false
}

func mentionsStockTarget(query string) bool {
	if codeInQueryRe.MatchString(query) {
		return true
	}
	for _, name := range marketdata.KnownNames() {
		if strings.Contains(query, name) {
			return true
		}
	}
	return false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
