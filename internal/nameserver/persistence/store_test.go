package persistence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateFileRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	meta := &FileMeta{Filename: "a.txt", Owner: "alice", Access: nil}

	require.NoError(t, s.CreateFile(meta))
	err := s.CreateFile(meta)
	assert.ErrorIs(t, err, ErrExists)
}

func TestGetFileNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetFile("missing.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateFileAppliesMutation(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "a.txt", Owner: "alice", Access: nil}))

	now := time.Now()
	require.NoError(t, s.UpdateFile("a.txt", func(m *FileMeta) error {
		m.Size = 12
		m.Words = 2
		m.Chars = 12
		m.LastModified = now
		return nil
	}))

	got, err := s.GetFile("a.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 12, got.Size)
	assert.Equal(t, 2, got.Words)
}

func TestUpdateFileMissingReturnsNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateFile("missing.txt", func(m *FileMeta) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteFileThenGetNotFound(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "a.txt", Owner: "alice", Access: nil}))
	require.NoError(t, s.DeleteFile("a.txt"))

	_, err := s.GetFile("a.txt")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFilesReturnsAll(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "a.txt", Owner: "alice", Access: nil}))
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "b.txt", Owner: "bob", Access: nil}))

	files, err := s.ListFiles()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestRetargetFilesOnSSUpdatesKnownAndReportsOrphans(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "x.txt", Owner: "alice", SSAddr: "10.0.0.1:9000", Offline: true, Access: nil}))

	orphans, err := s.RetargetFilesOnSS("10.0.0.2:9001", []string{"x.txt", "y.txt"})
	require.NoError(t, err)
	assert.Equal(t, []string{"y.txt"}, orphans)

	got, err := s.GetFile("x.txt")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.2:9001", got.SSAddr)
	assert.False(t, got.Offline)

	_, err = s.GetFile("y.txt")
	assert.ErrorIs(t, err, ErrNotFound, "orphan files must not get a metadata record")
}

func TestMarkOfflineFlagsOnlyMatchingSS(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "x.txt", Owner: "alice", SSAddr: "10.0.0.1:9000", Access: nil}))
	require.NoError(t, s.CreateFile(&FileMeta{Filename: "y.txt", Owner: "alice", SSAddr: "10.0.0.2:9000", Access: nil}))

	require.NoError(t, s.MarkOffline("10.0.0.1:9000"))

	x, err := s.GetFile("x.txt")
	require.NoError(t, err)
	assert.True(t, x.Offline)

	y, err := s.GetFile("y.txt")
	require.NoError(t, err)
	assert.False(t, y.Offline)
}

func TestRegisterUserIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.RegisterUser("alice"))
	require.NoError(t, s.RegisterUser("alice"))
	require.NoError(t, s.RegisterUser("bob"))

	users, err := s.ListUsers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, users)
}
