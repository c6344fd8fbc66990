package tools

import (
	"context"
	"fmt"
	"sync"

	"agentcore/pkg/utils"
)

// Todo item status values.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// TodoItem is one task in the todo store.
type TodoItem struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Status    string `json:"status"`
	Created   string `json:"created"`
	Completed string `json:"completed,omitempty"`
}

type todoFile struct {
	Todos []TodoItem `json:"todos"`
}

const todoSchema = `{
  "type": "object",
  "properties": {
    "operation": {
      "type": "string",
      "enum": ["add", "list", "complete", "delete"],
      "description": "Operation to perform"
    },
    "title": {
      "type": "string",
      "description": "Todo title (required for 'add')"
    },
    "id": {
      "type": "number",
      "description": "Todo ID (required for 'complete' and 'delete')"
    }
  },
  "required": ["operation"]
}`

// TodoTool is the built-in todo list. Ids come from a monotonic counter
// rehydrated as max(existing)+1 on load; in-memory and on-disk state
// round-trip exactly.
type TodoTool struct {
	mu     sync.Mutex
	store  jsonStore
	items  []TodoItem
	nextID int
}

// NewTodoTool opens (or creates) the store at path. Empty path keeps the
// list in memory only.
func NewTodoTool(path string) *TodoTool {
	t := &TodoTool{store: jsonStore{path: path}, items: []TodoItem{}, nextID: 1}
	var doc todoFile
	t.store.load(&doc)
	if doc.Todos != nil {
		t.items = doc.Todos
	}
	for _, item := range t.items {
		if item.ID >= t.nextID {
			t.nextID = item.ID + 1
		}
	}
	return t
}

func (t *TodoTool) Name() string { return "todo" }

func (t *TodoTool) Description() string {
	return "Manage a todo list: add, list, complete, or delete tasks"
}

func (t *TodoTool) Schema() string { return todoSchema }

func (t *TodoTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Operation string `json:"operation"`
		Title     string `json:"title"`
		ID        int    `json:"id"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return errResult(fmt.Sprintf("Todo tool error: %v", err)), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch args.Operation {
	case "add":
		if args.Title == "" {
			return errResult("Title is required"), nil
		}
		item := TodoItem{
			ID:      t.nextID,
			Title:   args.Title,
			Status:  StatusPending,
			Created: utils.UTCTimestamp(),
		}
		t.nextID++
		t.items = append(t.items, item)
		if err := t.save(); err != nil {
			return errResult(fmt.Sprintf("Failed to save todos: %v", err)), nil
		}
		return mustMarshal(map[string]any{
			"success": true,
			"message": "Todo added successfully",
			"todo":    item,
		}), nil

	case "list":
		return mustMarshal(map[string]any{"todos": t.items}), nil

	case "complete":
		if args.ID == 0 {
			return errResult("Todo ID is required"), nil
		}
		for i := range t.items {
			if t.items[i].ID == args.ID {
				t.items[i].Status = StatusCompleted
				t.items[i].Completed = utils.UTCTimestamp()
				if err := t.save(); err != nil {
					return errResult(fmt.Sprintf("Failed to save todos: %v", err)), nil
				}
				return mustMarshal(map[string]any{
					"success": true,
					"message": "Todo marked as completed",
				}), nil
			}
		}
		return errResult("Todo not found"), nil

	case "delete":
		if args.ID == 0 {
			return errResult("Todo ID is required"), nil
		}
		for i := range t.items {
			if t.items[i].ID == args.ID {
				t.items = append(t.items[:i], t.items[i+1:]...)
				if err := t.save(); err != nil {
					return errResult(fmt.Sprintf("Failed to save todos: %v", err)), nil
				}
				return mustMarshal(map[string]any{
					"success": true,
					"message": "Todo deleted successfully",
				}), nil
			}
		}
		return errResult("Todo not found"), nil

	default:
		return errResult("Unknown operation: " + args.Operation), nil
	}
}

func (t *TodoTool) save() error {
	return t.store.save(todoFile{Todos: t.items})
}

// Close flushes the store. Mutations already save eagerly; this covers the
// agent-teardown contract.
func (t *TodoTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save()
}

func errResult(msg string) string {
	return mustMarshal(map[string]string{"error": msg})
}
