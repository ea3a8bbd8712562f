package workflow

import (
	"encoding/json"
	"strings"

	"advisor/internal/adapters/marketdata"
	"advisor/pkg/errors"
)

// plan is the planner agent's structured output.
type plan struct {
	StockName string `json:"stock_name"`
	StockCode string `json:"stock_code"`
}

// parsePlan decodes the planner's answer. Models wrap JSON in prose and
// code fences often enough that parsing falls back to extracting the
// outermost brace pair before giving up.
func parsePlan(output string) (*plan, error) {
	candidates := []string{
		strings.TrimSpace(output),
		stripCodeFence(output),
		extractBraces(output),
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		var p plan
		if err := json.Unmarshal([]byte(candidate), &p); err == nil {
			return &p, nil
		}
	}

	return nil, errors.Wrapf(errors.ErrInvalidInput, "planner output is not JSON: %q", truncate(output, 200))
}

// resolveTarget fills in the stock code, curated table first, then the
// planner's own answer. An empty code after both means the target is
// unresolvable.
func resolveTarget(p *plan) (name, code string, err error) {
	name = strings.TrimSpace(p.StockName)

	if name != "" {
		if mapped, ok := marketdata.LookupCode(name); ok {
			return name, mapped, nil
		}
	}

	raw := strings.TrimSpace(p.StockCode)
	if raw != "" {
		code, err := marketdata.NormalizeCode(raw)
		if err == nil {
			return name, code, nil
		}
	}

	return name, "", errors.Wrapf(errors.ErrCodeUnresolved, "no code for %q", name)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return ""
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func extractBraces(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
