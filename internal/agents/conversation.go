package agents

import (
	"advisor/internal/adapters/ai"
)

// ConversationManager manages an agent run's message history with token
// tracking and compression, so a long tool loop cannot blow the model's
// context window.
type ConversationManager struct {
	history       []ai.Message
	systemPrompt  string
	maxTokens     int
	currentTokens int
	compressionOn bool
}

// NewConversationManager creates a new conversation manager.
func NewConversationManager(systemPrompt string, maxTokens int) *ConversationManager {
	if maxTokens <= 0 {
		maxTokens = 50000
	}

	return &ConversationManager{
		history:       make([]ai.Message, 0, 32),
		systemPrompt:  systemPrompt,
		maxTokens:     maxTokens,
		currentTokens: estimateTokens(systemPrompt),
		compressionOn: true,
	}
}

// Add appends a message and updates the token estimate.
func (cm *ConversationManager) Add(msg ai.Message) {
	cm.history = append(cm.history, msg)
	cm.currentTokens += estimateMessageTokens(msg)

	if cm.compressionOn && cm.currentTokens > cm.maxTokens {
		cm.compress()
	}
}

// Messages returns the full request message list, system prompt first.
func (cm *ConversationManager) Messages() []ai.Message {
	msgs := make([]ai.Message, 0, len(cm.history)+1)
	if cm.systemPrompt != "" {
		msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: cm.systemPrompt})
	}
	return append(msgs, cm.history...)
}

// Tokens returns the current estimated token count.
func (cm *ConversationManager) Tokens() int {
	return cm.currentTokens
}

// compress drops the oldest complete tool exchange while keeping the
// first user message, which carries the task itself. Assistant tool-call
// messages and their tool results are removed together so the remaining
// history stays well-formed.
func (cm *ConversationManager) compress() {
	for cm.currentTokens > cm.maxTokens {
		idx := -1
		for i, msg := range cm.history {
			if i == 0 && msg.Role == ai.RoleUser {
				continue
			}
			if msg.Role == ai.RoleAssistant && len(msg.ToolCalls) > 0 {
				idx = i
				break
			}
		}
		if idx == -1 {
			return
		}

		end := idx + 1
		for end < len(cm.history) && cm.history[end].Role == ai.RoleTool {
			end++
		}

		for _, msg := range cm.history[idx:end] {
			cm.currentTokens -= estimateMessageTokens(msg)
		}
		cm.history = append(cm.history[:idx], cm.history[end:]...)
	}
}

// estimateTokens approximates token count as chars/4, which tracks
// OpenAI-family tokenizers closely enough for budgeting.
func estimateTokens(text string) int {
	return len(text) / 4
}

func estimateMessageTokens(msg ai.Message) int {
	n := estimateTokens(msg.Content)
	for _, tc := range msg.ToolCalls {
		n += estimateTokens(tc.Function.Name) + estimateTokens(tc.Function.Arguments) + 8
	}
	return n + 4
}
