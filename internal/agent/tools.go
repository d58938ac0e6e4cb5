// Package agent implements the chat assistant behind the support console.
// The tool layer mirrors the catalogue a model-backed orchestrator would be
// handed; results are canned until the tools are wired to live services.
package agent

import (
	"context"
	"fmt"
)

// ToolDefinition describes one callable tool as presented to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// ToolFunc executes one tool invocation.
type ToolFunc func(ctx context.Context, input map[string]any, userID string) (any, error)

// Registry holds the tool catalogue.
type Registry struct {
	definitions []ToolDefinition
	handlers    map[string]ToolFunc
}

// NewRegistry builds the default tool catalogue.
func NewRegistry() *Registry {
	r := &Registry{handlers: map[string]ToolFunc{}}

	r.register(ToolDefinition{
		Name:        "search_items",
		Description: "Search for gadgets/items in the user's inventory. Use this when the user asks about their devices, gadgets, or items.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":    map[string]any{"type": "string", "description": "Search query (device name, brand, category, etc.)"},
				"category": map[string]any{"type": "string", "description": "Optional category filter", "enum": []string{"phone", "laptop", "tablet", "watch", "camera", "other"}},
				"status":   map[string]any{"type": "string", "description": "Optional status filter", "enum": []string{"active", "in_repair", "warranty_expired", "sold"}},
			},
			"required": []string{"query"},
		},
	}, searchItems)

	r.register(ToolDefinition{
		Name:        "get_item_details",
		Description: "Get detailed information about a specific item by ID",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"item_id": map[string]any{"type": "string", "description": "The unique ID of the item"},
			},
			"required": []string{"item_id"},
		},
	}, getItemDetails)

	r.register(ToolDefinition{
		Name:        "book_repair",
		Description: "Book a repair appointment for a device",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"item_id":           map[string]any{"type": "string", "description": "ID of the item to repair"},
				"issue_description": map[string]any{"type": "string", "description": "Description of the issue"},
				"preferred_date":    map[string]any{"type": "string", "description": "Preferred date for repair (YYYY-MM-DD format)"},
			},
			"required": []string{"item_id", "issue_description"},
		},
	}, bookRepair)

	r.register(ToolDefinition{
		Name:        "check_repair_status",
		Description: "Check the status of a repair booking",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"repair_id": map[string]any{"type": "string", "description": "The repair booking ID"},
			},
			"required": []string{"repair_id"},
		},
	}, checkRepairStatus)

	return r
}

func (r *Registry) register(def ToolDefinition, fn ToolFunc) {
	r.definitions = append(r.definitions, def)
	r.handlers[def.Name] = fn
}

// Definitions returns the catalogue in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	return r.definitions
}

// Names lists the catalogue's tool names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.definitions))
	for _, def := range r.definitions {
		names = append(names, def.Name)
	}
	return names
}

// Execute runs the named tool.
func (r *Registry) Execute(ctx context.Context, name string, input map[string]any, userID string) (any, error) {
	fn, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return fn(ctx, input, userID)
}

func stringInput(input map[string]any, key string) string {
	if v, ok := input[key].(string); ok {
		return v
	}
	return ""
}

func searchItems(_ context.Context, input map[string]any, _ string) (any, error) {
	category := stringInput(input, "category")
	status := stringInput(input, "status")

	mockItems := []map[string]any{
		{
			"id":               "item-001",
			"name":             "iPhone 14 Pro",
			"category":         "phone",
			"brand":            "Apple",
			"status":           "active",
			"warranty_expires": "2025-09-15",
		},
		{
			"id":            "item-002",
			"name":          "MacBook Pro 16\"",
			"category":      "laptop",
			"brand":         "Apple",
			"status":        "in_repair",
			"current_issue": "Screen replacement",
		},
	}

	results := mockItems[:0:0]
	for _, item := range mockItems {
		if category != "" && item["category"] != category {
			continue
		}
		if status != "" && item["status"] != status {
			continue
		}
		results = append(results, item)
	}

	return map[string]any{
		"items": results,
		"count": len(results),
		"query": stringInput(input, "query"),
	}, nil
}

func getItemDetails(_ context.Context, input map[string]any, _ string) (any, error) {
	itemID := stringInput(input, "item_id")
	if itemID == "" {
		return nil, fmt.Errorf("item_id is required")
	}
	return map[string]any{
		"id":               itemID,
		"name":             "iPhone 14 Pro",
		"category":         "phone",
		"brand":            "Apple",
		"model":            "A2890",
		"purchase_date":    "2023-09-15",
		"warranty_expires": "2025-09-15",
		"status":           "active",
		"repairs": []map[string]any{
			{
				"id":     "repair-001",
				"date":   "2024-03-20",
				"issue":  "Battery replacement",
				"status": "completed",
			},
		},
	}, nil
}

func bookRepair(_ context.Context, input map[string]any, _ string) (any, error) {
	itemID := stringInput(input, "item_id")
	issue := stringInput(input, "issue_description")
	if itemID == "" || issue == "" {
		return nil, fmt.Errorf("item_id and issue_description are required")
	}
	preferredDate := stringInput(input, "preferred_date")
	if preferredDate == "" {
		preferredDate = "TBD"
	}
	return map[string]any{
		"booking_id":     "repair-002",
		"item_id":        itemID,
		"issue":          issue,
		"preferred_date": preferredDate,
		"status":         "pending",
		"confirmation":   "Your repair has been booked. We'll contact you within 24 hours to confirm the appointment.",
	}, nil
}

func checkRepairStatus(_ context.Context, input map[string]any, _ string) (any, error) {
	repairID := stringInput(input, "repair_id")
	if repairID == "" {
		return nil, fmt.Errorf("repair_id is required")
	}
	return map[string]any{
		"repair_id":            repairID,
		"status":               "in_progress",
		"estimated_completion": "2025-12-30",
		"updates": []map[string]any{
			{
				"date":    "2025-12-26",
				"message": "Device received and diagnostics started",
			},
		},
	}, nil
}
