package storageserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	return s
}

func TestFileCommitLockReusesSameMutex(t *testing.T) {
	s := newTestServer(t)
	a := s.fileCommitLock("story.txt")
	b := s.fileCommitLock("story.txt")
	assert.Same(t, a, b)

	c := s.fileCommitLock("other.txt")
	assert.NotSame(t, a, c)
}

func TestTryLockSentenceExclusion(t *testing.T) {
	s := newTestServer(t)

	assert.True(t, s.tryLockSentence("story.txt", 0, 0))
	assert.False(t, s.tryLockSentence("story.txt", 0, 0), "second lock on the same sentence must fail")
	assert.True(t, s.tryLockSentence("story.txt", 1, 0), "a different sentence in the same file is independent")

	s.unlockSentence("story.txt", 0)
	assert.True(t, s.tryLockSentence("story.txt", 0, 0), "lock must be re-acquirable after release")
}

func TestCurrentLogIDAdvancesOnlyOnNonzeroDelta(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, 0, s.currentLogID())

	s.logModification("story.txt", 2, 0)
	assert.Equal(t, 0, s.currentLogID(), "a zero delta must not be logged")

	s.logModification("story.txt", 2, 1)
	assert.Equal(t, 1, s.currentLogID())
}

func TestSentenceShiftOnlyCountsLaterEntriesForSameFileBeforeRequestedIndex(t *testing.T) {
	s := newTestServer(t)

	startLogID := s.currentLogID()

	// A commit that happened before this session snapshotted the log
	// must not contribute to this session's shift.
	s.logModification("story.txt", 0, 1)
	preExisting := s.currentLogID()
	_ = preExisting

	startLogID2 := s.currentLogID()
	s.logModification("story.txt", 1, 2) // inserts 2 sentences before index 3
	s.logModification("other.txt", 0, 5) // different file, must not count
	s.logModification("story.txt", 4, 1) // after requested index 3, must not count

	shift := s.sentenceShift("story.txt", 3, startLogID2)
	assert.Equal(t, 2, shift)

	// From the very first snapshot, the earlier entry at originalIndex 0
	// also contributes since 0 < 3.
	shiftFromStart := s.sentenceShift("story.txt", 3, startLogID)
	assert.Equal(t, 3, shiftFromStart)
}

func TestCompactModLogDropsOnlyOlderEntries(t *testing.T) {
	s := newTestServer(t)
	s.logModification("a.txt", 0, 1) // id 0
	s.logModification("a.txt", 1, 1) // id 1
	s.logModification("a.txt", 2, 1) // id 2

	s.compactModLog(1)

	require.Len(t, s.modLog, 2)
	assert.Equal(t, 1, s.modLog[0].id)
	assert.Equal(t, 2, s.modLog[1].id)
}

func TestActiveSentenceLockCount(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, 0, s.activeSentenceLockCount())

	s.tryLockSentence("a.txt", 0, 0)
	s.tryLockSentence("a.txt", 1, 0)
	assert.Equal(t, 2, s.activeSentenceLockCount())

	s.unlockSentence("a.txt", 0)
	assert.Equal(t, 1, s.activeSentenceLockCount())
}

func TestCompactionSnapshotWatermarkTracksOldestHeldSession(t *testing.T) {
	s := newTestServer(t)

	idle, watermark := s.compactionSnapshot(0)
	assert.True(t, idle, "no locks ever held must be idle")
	assert.Equal(t, 0, watermark)

	s.logModification("a.txt", 0, 1) // id 0
	s.logModification("a.txt", 1, 1) // id 1

	s.tryLockSentence("a.txt", 2, s.currentLogID())
	s.logModification("a.txt", 2, 1) // id 2, after the held session's snapshot

	idle, watermark = s.compactionSnapshot(0)
	assert.False(t, idle, "a held lock must prevent compaction")
	assert.Equal(t, 2, watermark, "watermark must not exceed the held session's log-tip snapshot")

	s.unlockSentence("a.txt", 2)
	idle, watermark = s.compactionSnapshot(0)
	assert.True(t, idle)
	assert.Equal(t, s.currentLogID(), watermark)
}
