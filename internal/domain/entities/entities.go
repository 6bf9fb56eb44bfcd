// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

// KnowledgeEntry is one curated question/answer pair from the knowledge base.
// Entries are immutable once loaded; their order is the corpus order.
type KnowledgeEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Source   string `json:"source,omitempty"`
}

// RetrievalResult pairs a knowledge entry with its similarity to a query.
type RetrievalResult struct {
	Entry KnowledgeEntry
	Score float64 // Cosine similarity in [0,1]
}

// InteractionLogEntry is one persisted query/response pair.
// Field names on disk match the historical chat_logs.json layout.
type InteractionLogEntry struct {
	Timestamp string `json:"timestamp"` // ISO-8601
	UserText  string `json:"user"`
	BotText   string `json:"bot"`
}

// Message roles understood by completion services.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single instruction or conversation turn.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is an inbound user question.
type ChatRequest struct {
	Message string
}

// ChatResponse is the reply plus what grounded it.
type ChatResponse struct {
	Reply    string
	Grounded bool
	TopScore float64
	Sources  []RetrievalResult
}
