package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ToolCall records one tool invocation the orchestrator made for a query.
type ToolCall struct {
	Tool  string         `json:"tool"`
	Input map[string]any `json:"input"`
}

// Result is the orchestrator's answer to a query.
type Result struct {
	Response   string     `json:"response"`
	AgentUsed  bool       `json:"agent_used"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	Model      string     `json:"model,omitempty"`
	Iterations int        `json:"iterations,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Orchestrator routes natural language queries to the tool catalogue. The
// routing is deterministic keyword matching standing in for a model-driven
// loop; the Result shape already carries the model/iteration fields that
// loop will fill in.
type Orchestrator struct {
	registry *Registry
	logger   *zap.Logger
}

// NewOrchestrator constructs the orchestrator.
func NewOrchestrator(registry *Registry, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, logger: logger}
}

// Capabilities describes what the assistant can do.
type Capabilities struct {
	Enabled  bool     `json:"enabled"`
	Model    string   `json:"model,omitempty"`
	Tools    []string `json:"tools"`
	Features []string `json:"features"`
}

// Capabilities reports the assistant's tool catalogue and feature set.
func (o *Orchestrator) Capabilities() Capabilities {
	return Capabilities{
		Enabled: true,
		Tools:   o.registry.Names(),
		Features: []string{
			"Natural language search",
			"Repair booking assistance",
			"Status inquiries",
			"Device recommendations",
		},
	}
}

// Execute answers one user query, invoking at most one tool.
func (o *Orchestrator) Execute(ctx context.Context, query, userID string, chatContext map[string]any) Result {
	o.logger.Info("chat query", zap.String("user_id", userID), zap.String("query", query))

	toolName, input := o.route(query, chatContext)
	if toolName == "" {
		return Result{
			Response:  "I can help you search your gadgets, look up item details, book repairs, and check repair status. What would you like to do?",
			AgentUsed: true,
		}
	}

	call := ToolCall{Tool: toolName, Input: input}
	output, err := o.registry.Execute(ctx, toolName, input, userID)
	if err != nil {
		o.logger.Error("tool execution failed", zap.String("tool", toolName), zap.Error(err))
		return Result{
			Response:  "I ran into a problem while handling that request. Please try again or rephrase your question.",
			AgentUsed: true,
			ToolCalls: []ToolCall{call},
			Error:     err.Error(),
		}
	}

	return Result{
		Response:   o.describe(toolName, output),
		AgentUsed:  true,
		ToolCalls:  []ToolCall{call},
		Iterations: 1,
	}
}

// route maps a query to a tool by keyword. Identifiers mentioned in the
// chat context take precedence over ones scraped from the query text.
func (o *Orchestrator) route(query string, chatContext map[string]any) (string, map[string]any) {
	q := strings.ToLower(query)

	switch {
	case strings.Contains(q, "status") && containsAny(q, "repair", "booking", "fix"):
		return "check_repair_status", map[string]any{
			"repair_id": contextString(chatContext, "repair_id", firstToken(query, "repair-", "#")),
		}
	case containsAny(q, "book", "schedule", "appointment") && containsAny(q, "repair", "fix", "broken"):
		return "book_repair", map[string]any{
			"item_id":           contextString(chatContext, "item_id", firstToken(query, "item-")),
			"issue_description": query,
			"preferred_date":    contextString(chatContext, "preferred_date", ""),
		}
	case containsAny(q, "detail", "about item", "item-"):
		if id := contextString(chatContext, "item_id", firstToken(query, "item-")); id != "" {
			return "get_item_details", map[string]any{"item_id": id}
		}
		fallthrough
	case containsAny(q, "device", "gadget", "item", "phone", "laptop", "show", "find", "search"):
		return "search_items", map[string]any{"query": query}
	}
	return "", nil
}

func (o *Orchestrator) describe(toolName string, output any) string {
	switch toolName {
	case "search_items":
		if m, ok := output.(map[string]any); ok {
			return fmt.Sprintf("I found %v matching item(s) in your inventory.", m["count"])
		}
	case "get_item_details":
		if m, ok := output.(map[string]any); ok {
			return fmt.Sprintf("Here are the details for %v (%v %v).", m["name"], m["brand"], m["model"])
		}
	case "book_repair":
		if m, ok := output.(map[string]any); ok {
			return fmt.Sprintf("%v (booking %v)", m["confirmation"], m["booking_id"])
		}
	case "check_repair_status":
		if m, ok := output.(map[string]any); ok {
			return fmt.Sprintf("Repair %v is %v, estimated completion %v.", m["repair_id"], m["status"], m["estimated_completion"])
		}
	}
	return "Done."
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func contextString(ctx map[string]any, key, fallback string) string {
	if ctx != nil {
		if v, ok := ctx[key].(string); ok && v != "" {
			return v
		}
	}
	return fallback
}

// firstToken returns the first whitespace-delimited token of query that
// starts with one of the prefixes, with the prefix "#" stripped.
func firstToken(query string, prefixes ...string) string {
	for _, raw := range strings.Fields(query) {
		token := strings.Trim(raw, ".,!?()")
		for _, prefix := range prefixes {
			if strings.HasPrefix(strings.ToLower(token), prefix) {
				return strings.TrimPrefix(token, "#")
			}
		}
	}
	return ""
}
