package knowledge

import (
	"context"
	"fmt"

	"advisor/internal/tools"
	"advisor/pkg/errors"
)

// Searcher is the retrieval surface the tool needs.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// NewSearchTool exposes one knowledge domain index as an agent tool.
// The tool name embeds the domain ("search_stock_knowledge") so agents
// with access to several domains can target the right one.
func NewSearchTool(domain, label string, retriever Searcher) tools.Tool {
	params := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "检索问题或关键词",
			},
		},
		"required": []string{"query"},
	}

	name := fmt.Sprintf("search_%s_knowledge", domain)
	description := fmt.Sprintf("在%s知识库中检索相关资料", label)

	return tools.New(name, description, params, func(ctx context.Context, args tools.Args) (string, error) {
		query := args.String("query", "")
		if query == "" {
			return "", errors.Wrapf(errors.ErrInvalidInput, "%s: query is required", name)
		}

		blob := retriever.Search(ctx, query)
		if blob == "" {
			return "知识库中没有找到相关内容", nil
		}
		return blob, nil
	})
}
