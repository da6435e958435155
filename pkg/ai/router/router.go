package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ai-studypdf-be/internal/pkg/logger"
	"ai-studypdf-be/pkg/llm"
)

// ErrEmptyQuestion is returned when the question is blank after trimming.
var ErrEmptyQuestion = errors.New("question must not be empty")

// maxHistoryTurns caps how much conversation history is replayed into
// the routing and synthesis prompts.
const maxHistoryTurns = 6

type ToolKind string

const (
	ToolStructure    ToolKind = "structure"
	ToolScopedSearch ToolKind = "scoped_search"
	ToolSummarize    ToolKind = "summarize"
)

// ToolCall is the router's routing decision: which tool to run and with
// what arguments. Chapter is optional for scoped_search, required for
// summarize, ignored for structure.
type ToolCall struct {
	Kind    ToolKind `json:"tool"`
	Chapter string   `json:"chapter,omitempty"`
	Query   string   `json:"query,omitempty"`
}

// Toolset is the set of retrieval tools the router chooses between.
// Implementations return plain-text context for synthesis.
type Toolset interface {
	StructureLookup(ctx context.Context) (string, error)
	ScopedSearch(ctx context.Context, chapter string, query string) (string, error)
	SummarizeScope(ctx context.Context, chapter string) (string, error)
}

type Turn struct {
	Role    string
	Content string
}

const routingPromptTemplate = `You are a routing assistant for a study helper that answers questions about an uploaded book.
Pick exactly ONE tool for the question below and reply with ONLY a JSON object, no prose, no markdown.

Tools:
- "structure": the question asks about the book's table of contents, chapter list or overall organization.
- "summarize": the question asks for a summary or overview of one specific chapter. Requires "chapter".
- "scoped_search": anything else, i.e. a content question. Optionally takes "chapter" to narrow the search and "query" with the search text.

Reply format: {"tool": "scoped_search", "chapter": "3", "query": "..."}
%s
Question: %s`

const synthesisPromptTemplate = `You are a helpful study assistant answering questions about an uploaded book.
Answer the question using ONLY the retrieved context below. If the context does not contain the answer, say plainly that the book does not seem to cover it. Do not invent facts.

RETRIEVED CONTEXT:
%s
%s
Question: %s`

// Router drives a single-shot tool loop: one routing decision, one tool
// invocation, one synthesis call. It never invokes a second tool for the
// same question.
type Router struct {
	llmProvider llm.LLMProvider
	logger      logger.ILogger
}

func NewRouter(llmProvider llm.LLMProvider, logger logger.ILogger) *Router {
	return &Router{
		llmProvider: llmProvider,
		logger:      logger,
	}
}

// WithProvider returns a copy of the router backed by a different LLM
// provider. Used when the caller supplies their own API keys.
func (r *Router) WithProvider(provider llm.LLMProvider) *Router {
	return &Router{
		llmProvider: provider,
		logger:      r.logger,
	}
}

// Answer routes the question to one tool, then synthesizes an answer
// from the tool's output. A tool failure degrades to an honest "could
// not find" answer instead of an error.
func (r *Router) Answer(ctx context.Context, tools Toolset, question string, history []Turn) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}

	call := r.chooseTool(ctx, question, history)

	r.logger.Info("router", "tool selected", map[string]interface{}{
		"tool":    string(call.Kind),
		"chapter": call.Chapter,
	})

	contextText, err := r.invokeTool(ctx, tools, call, question)
	if err != nil {
		r.logger.Warn("router", "tool invocation failed, degrading", map[string]interface{}{
			"tool":  string(call.Kind),
			"error": err.Error(),
		})
		return "I couldn't find relevant information in the uploaded document to answer that. Could you rephrase the question, or ask about a specific chapter?", nil
	}

	return r.synthesize(ctx, question, contextText, history)
}

// chooseTool asks the LLM for a routing decision, falling back to
// keyword heuristics when the model's reply cannot be parsed.
func (r *Router) chooseTool(ctx context.Context, question string, history []Turn) ToolCall {
	prompt := fmt.Sprintf(routingPromptTemplate, formatHistory(history), question)

	raw, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.0))
	if err != nil {
		r.logger.Warn("router", "routing call failed, using keyword fallback", map[string]interface{}{"error": err.Error()})
		return fallbackToolCall(question)
	}

	var call ToolCall
	if err := json.Unmarshal([]byte(stripMarkdownFences(raw)), &call); err != nil {
		r.logger.Warn("router", "unparseable routing reply, using keyword fallback", map[string]interface{}{"reply": raw})
		return fallbackToolCall(question)
	}

	switch call.Kind {
	case ToolStructure, ToolScopedSearch, ToolSummarize:
	default:
		return fallbackToolCall(question)
	}

	// Summarize without a chapter cannot run; search handles it instead.
	if call.Kind == ToolSummarize && strings.TrimSpace(call.Chapter) == "" {
		call = ToolCall{Kind: ToolScopedSearch}
	}

	if call.Kind == ToolScopedSearch && strings.TrimSpace(call.Query) == "" {
		call.Query = question
	}

	return call
}

func (r *Router) invokeTool(ctx context.Context, tools Toolset, call ToolCall, question string) (string, error) {
	switch call.Kind {
	case ToolStructure:
		return tools.StructureLookup(ctx)
	case ToolSummarize:
		return tools.SummarizeScope(ctx, call.Chapter)
	default:
		query := call.Query
		if strings.TrimSpace(query) == "" {
			query = question
		}
		return tools.ScopedSearch(ctx, call.Chapter, query)
	}
}

func (r *Router) synthesize(ctx context.Context, question, contextText string, history []Turn) (string, error) {
	prompt := fmt.Sprintf(synthesisPromptTemplate, contextText, formatHistory(history), question)

	answer, err := r.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.4))
	if err != nil {
		return "", fmt.Errorf("answer synthesis failed: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// fallbackToolCall is the deterministic routing used when the LLM reply
// is unusable.
func fallbackToolCall(question string) ToolCall {
	lower := strings.ToLower(question)

	structureKeywords := []string{"table of contents", "chapters", "chapter list", "structure", "organized", "outline"}
	for _, kw := range structureKeywords {
		if strings.Contains(lower, kw) {
			return ToolCall{Kind: ToolStructure}
		}
	}

	summaryKeywords := []string{"summarize", "summary of", "overview of", "recap"}
	for _, kw := range summaryKeywords {
		if strings.Contains(lower, kw) {
			if ch := extractChapterNumber(lower); ch != "" {
				return ToolCall{Kind: ToolSummarize, Chapter: ch}
			}
		}
	}

	return ToolCall{Kind: ToolScopedSearch, Query: question}
}

// extractChapterNumber pulls the digits following "chapter " if present.
func extractChapterNumber(lower string) string {
	idx := strings.Index(lower, "chapter ")
	if idx == -1 {
		return ""
	}
	rest := lower[idx+len("chapter "):]
	var digits strings.Builder
	for _, r := range rest {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	return digits.String()
}

func formatHistory(history []Turn) string {
	if len(history) == 0 {
		return ""
	}
	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}

	var sb strings.Builder
	sb.WriteString("\nCONVERSATION SO FAR:\n")
	for _, t := range history {
		sb.WriteString(fmt.Sprintf("%s: %s\n", t.Role, t.Content))
	}
	return sb.String()
}

// stripMarkdownFences removes a surrounding ```json ... ``` block that
// some models wrap around JSON replies.
func stripMarkdownFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
