package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/lagoship/pkg/lago"
)

func writeFile(t *testing.T, dir, name, content string) os.FileInfo {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info
}

func TestFileRepository_LoadMissing(t *testing.T) {
	repo := NewFileRepository(filepath.Join(t.TempDir(), "nested"))

	s, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())
	assert.NotNil(t, s.Files)
}

func TestFileRepository_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	info := writeFile(t, dir, "a.ndjson", "{}\n")
	repo := NewFileRepository(filepath.Join(dir, "state"))

	var s State
	s.MarkUploaded("a.ndjson", info, lago.UploadResult{NewEvents: 3, TotalEvents: 5})
	require.NoError(t, repo.Save(context.Background(), s))

	_, err := os.Stat(repo.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, loaded.Uploaded("a.ndjson", info))
	assert.Equal(t, 3, loaded.Files["a.ndjson"].NewEvents)
	assert.Equal(t, 5, loaded.Files["a.ndjson"].TotalEvents)
	assert.False(t, loaded.LastUploadAt.IsZero())
}

func TestFileRepository_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFileName), []byte("{"), 0o600))

	_, err := NewFileRepository(dir).Load(context.Background())
	assert.ErrorContains(t, err, "decode")
}

func TestState_UploadedDetectsRewrite(t *testing.T) {
	dir := t.TempDir()
	info := writeFile(t, dir, "a.ndjson", "{}\n")

	var s State
	assert.False(t, s.Uploaded("a.ndjson", info))
	s.MarkUploaded("a.ndjson", info, lago.UploadResult{})
	assert.True(t, s.Uploaded("a.ndjson", info))

	path := filepath.Join(dir, "a.ndjson")
	require.NoError(t, os.WriteFile(path, []byte("{}\n{}\n"), 0o600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))
	changed, err := os.Stat(path)
	require.NoError(t, err)

	assert.False(t, s.Uploaded("a.ndjson", changed))
}

func TestState_Forget(t *testing.T) {
	s := State{Files: map[string]FileRecord{"a": {}, "b": {}, "c": {}}}

	n := s.Forget(func(name string) bool { return name == "b" })
	assert.Equal(t, 2, n)
	assert.Equal(t, map[string]FileRecord{"b": {}}, s.Files)
}
