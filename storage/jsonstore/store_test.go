package jsonstore

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/kazi/core/assignment"
	logsvc "github.com/trezcool/kazi/services/logger"
)

func openTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "assignments.json")
	return Open(path, logsvc.NewStdLogger(log.New(io.Discard, "", 0))), path
}

func Test_Store_missingFileLoadsEmpty(t *testing.T) {
	store, path := openTestStore(t)

	recs, err := store.LoadAll()

	require.NoError(t, err)
	assert.Empty(t, recs)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "loading must not create the file")
}

func Test_Store_roundTrip(t *testing.T) {
	store, path := openTestStore(t)

	want := assignment.Assignment{
		ID:                "a1",
		Title:             "Essay 1",
		Course:            "ENG 101",
		DueDate:           "2026-09-05",
		NotificationsSent: []string{"3_days"},
	}
	err := store.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		return append(recs, want), true, nil
	})
	require.NoError(t, err)

	recs, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, want, recs[0])

	// no leftover temp file after the atomic rename
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func Test_Store_noWriteWhenUnchanged(t *testing.T) {
	store, path := openTestStore(t)

	err := store.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		return recs, false, nil
	})

	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "changed == false must skip the write entirely")
}

func Test_Store_preservesUnknownFields(t *testing.T) {
	store, path := openTestStore(t)

	// a document written by another version of the app
	doc := `{
		"assignments": [{
			"id": "a1",
			"title": "Essay 1",
			"course": "ENG 101",
			"due_date": "2026-09-05",
			"completed": false,
			"notifications_sent": [],
			"points_possible": 42.5
		}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	err := store.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		require.Len(t, recs, 1)
		recs[0].Completed = true
		return recs, true, nil
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out struct {
		Assignments []map[string]json.RawMessage `json:"assignments"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	require.Len(t, out.Assignments, 1)
	assert.JSONEq(t, `42.5`, string(out.Assignments[0]["points_possible"]), "unknown record fields survive a rewrite")
	assert.JSONEq(t, `true`, string(out.Assignments[0]["completed"]))
}

func Test_Store_corruptDocumentIsQuarantined(t *testing.T) {
	store, path := openTestStore(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"assignments": [truncated`), 0o644))

	recs, err := store.LoadAll()

	require.NoError(t, err, "a corrupt store loads empty instead of failing")
	assert.Empty(t, recs)

	// the broken file was moved aside, not destroyed
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	quarantined, err := filepath.Glob(path + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, quarantined, 1)
}

func Test_Store_updateErrorLeavesFileUntouched(t *testing.T) {
	store, path := openTestStore(t)
	require.NoError(t, store.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		return []assignment.Assignment{{ID: "a1", Title: "Essay 1"}}, true, nil
	}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	wantErr := assignment.ErrNotFound
	err = store.Update(func(recs []assignment.Assignment) ([]assignment.Assignment, bool, error) {
		return nil, false, wantErr
	})

	assert.Equal(t, wantErr, err)
	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
