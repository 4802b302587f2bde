package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sftp-gateway/internal/model"
)

func TestOpenPreferenceFileCreatesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "db.json")
	store, err := OpenPreferenceFile(path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, `{"favorites":{},"renames":{}}`, string(raw))

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, prefs.Favorites)
	require.Empty(t, prefs.Renames)
}

func TestPreferenceFileRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	store, err := OpenPreferenceFile(path)
	require.NoError(t, err)

	require.NoError(t, store.SetFavorite(ctx, "photos/a.jpg", json.RawMessage(`{"starred":true}`)))
	require.NoError(t, store.SetRename(ctx, "photos/a.jpg", "Beach"))

	reopened, err := OpenPreferenceFile(path)
	require.NoError(t, err)

	prefs, err := reopened.Load(ctx)
	require.NoError(t, err)
	require.JSONEq(t, `{"starred":true}`, string(prefs.Favorites["photos/a.jpg"]))
	require.Equal(t, "Beach", prefs.Renames["photos/a.jpg"])

	require.NoError(t, reopened.DeleteFavorite(ctx, "photos/a.jpg"))
	require.ErrorIs(t, reopened.DeleteFavorite(ctx, "photos/a.jpg"), model.ErrPreferenceNotFound)
	require.NoError(t, reopened.DeleteRename(ctx, "photos/a.jpg"))
	require.ErrorIs(t, reopened.DeleteRename(ctx, "photos/a.jpg"), model.ErrPreferenceNotFound)
}

func TestPreferenceFileLoadReturnsCopy(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := OpenPreferenceFile(filepath.Join(t.TempDir(), "db.json"))
	require.NoError(t, err)
	require.NoError(t, store.SetRename(ctx, "x", "original"))

	prefs, err := store.Load(ctx)
	require.NoError(t, err)
	prefs.Renames["x"] = "mutated"

	again, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "original", again.Renames["x"])
}

func TestOpenPreferenceFileToleratesPartialDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"renames":{"a":"b"}}`), 0o600))

	store, err := OpenPreferenceFile(path)
	require.NoError(t, err)
	require.NoError(t, store.SetFavorite(context.Background(), "k", json.RawMessage(`1`)))

	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", prefs.Renames["a"])
	require.Len(t, prefs.Favorites, 1)
}

func TestOpenPreferenceFileRejectsCorruptDocument(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	_, err := OpenPreferenceFile(path)
	require.Error(t, err)
}
