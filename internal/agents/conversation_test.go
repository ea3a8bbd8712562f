package agents

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"advisor/internal/adapters/ai"
)

func TestConversationManager_SystemPromptFirst(t *testing.T) {
	cm := NewConversationManager("system rules", 1000)
	cm.Add(ai.Message{Role: ai.RoleUser, Content: "question"})

	msgs := cm.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, ai.RoleSystem, msgs[0].Role)
	assert.Equal(t, "system rules", msgs[0].Content)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
}

func TestConversationManager_NoSystemPrompt(t *testing.T) {
	cm := NewConversationManager("", 1000)
	cm.Add(ai.Message{Role: ai.RoleUser, Content: "question"})

	msgs := cm.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, ai.RoleUser, msgs[0].Role)
}

func TestConversationManager_CompressionDropsOldToolExchanges(t *testing.T) {
	// Tiny budget forces compression as soon as exchanges accumulate.
	cm := NewConversationManager("sys", 200)

	cm.Add(ai.Message{Role: ai.RoleUser, Content: "analyze something"})

	// Three tool exchanges, each bulky enough to overflow the budget.
	for i := 0; i < 3; i++ {
		cm.Add(ai.Message{
			Role: ai.RoleAssistant,
			ToolCalls: []ai.ToolCall{{
				ID:       "call",
				Type:     "function",
				Function: ai.FunctionCall{Name: "get_data", Arguments: strings.Repeat("x", 300)},
			}},
		})
		cm.Add(ai.Message{Role: ai.RoleTool, Content: strings.Repeat("y", 300), ToolCallID: "call"})
	}

	msgs := cm.Messages()

	// The first user message survives compression.
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Equal(t, ai.RoleUser, msgs[1].Role)
	assert.Equal(t, "analyze something", msgs[1].Content)

	// Compression removed whole exchanges, never a dangling tool reply.
	for i, msg := range msgs {
		if msg.Role == ai.RoleTool {
			require.Greater(t, i, 0)
			prev := msgs[i-1]
			validPredecessor := prev.Role == ai.RoleTool || len(prev.ToolCalls) > 0
			assert.True(t, validPredecessor, "tool message %d has no matching call", i)
		}
	}

	assert.LessOrEqual(t, cm.Tokens(), 200+160)
}
