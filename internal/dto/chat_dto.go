package dto

// ConversationTurn is one caller-held turn of chat history. History is
// never persisted by this service; the client re-sends it each request
// and only the most recent turns are forwarded to the router.
type ConversationTurn struct {
	Role    string `json:"role" validate:"required,oneof=human assistant"`
	Content string `json:"content" validate:"required"`
}

type ChatRequest struct {
	Question   string             `json:"question" validate:"required"`
	History    []ConversationTurn `json:"history,omitempty"`
	DatasetTag string             `json:"datasetTag,omitempty"`
}

type ChatResponse struct {
	Answer string `json:"answer"`
}
