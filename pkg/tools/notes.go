package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"agentcore/pkg/utils"
)

// Note is one entry in the notes store.
type Note struct {
	ID       int      `json:"id"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Created  string   `json:"created"`
	Modified string   `json:"modified,omitempty"`
}

type notesFile struct {
	Notes []Note `json:"notes"`
}

const notesSchema = `{
  "type": "object",
  "properties": {
    "operation": {
      "type": "string",
      "enum": ["create", "read", "update", "delete", "search", "list"],
      "description": "Operation to perform"
    },
    "content": {
      "type": "string",
      "description": "Note content (required for 'create', optional for 'update')"
    },
    "tags": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Tags for the note"
    },
    "id": {
      "type": "number",
      "description": "Note ID (required for 'read', 'update' and 'delete')"
    },
    "query": {
      "type": "string",
      "description": "Search text (for 'search'; empty matches everything)"
    }
  },
  "required": ["operation"]
}`

// NotesTool is the built-in notes store. Search is a case-insensitive
// literal substring match over content and tags, not a semantic index.
type NotesTool struct {
	mu     sync.Mutex
	store  jsonStore
	notes  []Note
	nextID int
}

// NewNotesTool opens (or creates) the store at path. Empty path keeps notes
// in memory only.
func NewNotesTool(path string) *NotesTool {
	t := &NotesTool{store: jsonStore{path: path}, notes: []Note{}, nextID: 1}
	var doc notesFile
	t.store.load(&doc)
	if doc.Notes != nil {
		t.notes = doc.Notes
	}
	for _, n := range t.notes {
		if n.ID >= t.nextID {
			t.nextID = n.ID + 1
		}
	}
	return t
}

func (t *NotesTool) Name() string { return "notes" }

func (t *NotesTool) Description() string {
	return "Store and retrieve notes: create, read, update, delete, search, or list"
}

func (t *NotesTool) Schema() string { return notesSchema }

func (t *NotesTool) Execute(ctx context.Context, argsJSON string) (string, error) {
	var args struct {
		Operation string   `json:"operation"`
		ID        int      `json:"id"`
		Content   *string  `json:"content"`
		Tags      []string `json:"tags"`
		Query     string   `json:"query"`
	}
	if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
		return errResult(fmt.Sprintf("Notes tool error: %v", err)), nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch args.Operation {
	case "create":
		if args.Content == nil || *args.Content == "" {
			return errResult("Content is required"), nil
		}
		tags := args.Tags
		if tags == nil {
			tags = []string{}
		}
		note := Note{
			ID:      t.nextID,
			Content: *args.Content,
			Tags:    tags,
			Created: utils.UTCTimestamp(),
		}
		t.nextID++
		t.notes = append(t.notes, note)
		if err := t.save(); err != nil {
			return errResult(fmt.Sprintf("Failed to save notes: %v", err)), nil
		}
		return mustMarshal(map[string]any{
			"success": true,
			"message": "Note created successfully",
			"note":    note,
		}), nil

	case "read":
		if args.ID == 0 {
			return errResult("Note ID is required"), nil
		}
		for _, n := range t.notes {
			if n.ID == args.ID {
				return mustMarshal(map[string]any{"note": n}), nil
			}
		}
		return errResult("Note not found"), nil

	case "update":
		if args.ID == 0 {
			return errResult("Note ID is required"), nil
		}
		for i := range t.notes {
			if t.notes[i].ID == args.ID {
				if args.Content != nil {
					t.notes[i].Content = *args.Content
				}
				if args.Tags != nil {
					t.notes[i].Tags = args.Tags
				}
				t.notes[i].Modified = utils.UTCTimestamp()
				if err := t.save(); err != nil {
					return errResult(fmt.Sprintf("Failed to save notes: %v", err)), nil
				}
				return mustMarshal(map[string]any{
					"success": true,
					"message": "Note updated successfully",
					"note":    t.notes[i],
				}), nil
			}
		}
		return errResult("Note not found"), nil

	case "delete":
		if args.ID == 0 {
			return errResult("Note ID is required"), nil
		}
		for i := range t.notes {
			if t.notes[i].ID == args.ID {
				t.notes = append(t.notes[:i], t.notes[i+1:]...)
				if err := t.save(); err != nil {
					return errResult(fmt.Sprintf("Failed to save notes: %v", err)), nil
				}
				return mustMarshal(map[string]any{
					"success": true,
					"message": "Note deleted successfully",
				}), nil
			}
		}
		return errResult("Note not found"), nil

	case "search":
		matches := make([]Note, 0, len(t.notes))
		query := strings.ToLower(args.Query)
		for _, n := range t.notes {
			if query == "" || noteMatches(n, query) {
				matches = append(matches, n)
			}
		}
		return mustMarshal(map[string]any{"notes": matches}), nil

	case "list":
		return mustMarshal(map[string]any{"notes": t.notes}), nil

	default:
		return errResult("Unknown operation: " + args.Operation), nil
	}
}

func noteMatches(n Note, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(n.Content), lowerQuery) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), lowerQuery) {
			return true
		}
	}
	return false
}

func (t *NotesTool) save() error {
	return t.store.save(notesFile{Notes: t.notes})
}

// Close flushes the store.
func (t *NotesTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.save()
}
