package tools_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentcore/pkg/tools"
)

func TestNotesCreateReadDelete(t *testing.T) {
	notes := tools.NewNotesTool("")

	res := execJSON(t, notes, `{"operation":"create","content":"buy milk","tags":["errand"]}`)
	require.Equal(t, true, res["success"])
	note := res["note"].(map[string]any)
	assert.EqualValues(t, 1, note["id"])
	assert.NotEmpty(t, note["created"])

	res = execJSON(t, notes, `{"operation":"read","id":1}`)
	assert.Equal(t, "buy milk", res["note"].(map[string]any)["content"])

	res = execJSON(t, notes, `{"operation":"delete","id":1}`)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "Note not found", execJSON(t, notes, `{"operation":"read","id":1}`)["error"])
}

func TestNotesUpdate(t *testing.T) {
	notes := tools.NewNotesTool("")
	execJSON(t, notes, `{"operation":"create","content":"v1","tags":["a"]}`)

	res := execJSON(t, notes, `{"operation":"update","id":1,"content":"v2"}`)
	note := res["note"].(map[string]any)
	assert.Equal(t, "v2", note["content"])
	assert.NotEmpty(t, note["modified"])
	// Tags untouched when absent from the update.
	assert.Equal(t, []any{"a"}, note["tags"])

	res = execJSON(t, notes, `{"operation":"update","id":1,"tags":["b","c"]}`)
	assert.Equal(t, []any{"b", "c"}, res["note"].(map[string]any)["tags"])
}

func TestNotesSearch(t *testing.T) {
	notes := tools.NewNotesTool("")
	execJSON(t, notes, `{"operation":"create","content":"Grocery run","tags":["errand"]}`)
	execJSON(t, notes, `{"operation":"create","content":"project kickoff","tags":["Work"]}`)
	execJSON(t, notes, `{"operation":"create","content":"random thought"}`)

	// Case-insensitive substring over content.
	res := execJSON(t, notes, `{"operation":"search","query":"GROCERY"}`)
	require.Len(t, res["notes"].([]any), 1)

	// Matches on tags too.
	res = execJSON(t, notes, `{"operation":"search","query":"work"}`)
	found := res["notes"].([]any)
	require.Len(t, found, 1)
	assert.Equal(t, "project kickoff", found[0].(map[string]any)["content"])

	// Empty query returns everything.
	res = execJSON(t, notes, `{"operation":"search","query":""}`)
	assert.Len(t, res["notes"].([]any), 3)
	res = execJSON(t, notes, `{"operation":"search"}`)
	assert.Len(t, res["notes"].([]any), 3)

	// No match yields an empty list, not an error.
	res = execJSON(t, notes, `{"operation":"search","query":"zzz"}`)
	assert.Len(t, res["notes"].([]any), 0)
}

func TestNotesErrors(t *testing.T) {
	notes := tools.NewNotesTool("")

	assert.Equal(t, "Content is required", execJSON(t, notes, `{"operation":"create"}`)["error"])
	assert.Equal(t, "Content is required", execJSON(t, notes, `{"operation":"create","content":""}`)["error"])
	assert.Equal(t, "Note ID is required", execJSON(t, notes, `{"operation":"read"}`)["error"])
	assert.Equal(t, "Note not found", execJSON(t, notes, `{"operation":"update","id":7,"content":"x"}`)["error"])
	assert.Equal(t, "Unknown operation: explode", execJSON(t, notes, `{"operation":"explode"}`)["error"])
}

func TestNotesPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.json")

	notes := tools.NewNotesTool(path)
	execJSON(t, notes, `{"operation":"create","content":"first","tags":["t1","t2"]}`)
	execJSON(t, notes, `{"operation":"create","content":"second"}`)
	execJSON(t, notes, `{"operation":"delete","id":1}`)
	require.NoError(t, notes.Close())

	reopened := tools.NewNotesTool(path)
	res := execJSON(t, reopened, `{"operation":"list"}`)
	items := res["notes"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "second", items[0].(map[string]any)["content"])

	// Ids never regress below max+1 even after deletes.
	res = execJSON(t, reopened, `{"operation":"create","content":"third"}`)
	assert.EqualValues(t, 3, res["note"].(map[string]any)["id"])
}
