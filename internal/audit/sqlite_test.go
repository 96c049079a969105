package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteLog_AppendAndEntries(t *testing.T) {
	log, err := OpenSQLite(":memory:", 0)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(NewEntry(bash("ls"), base)))
	require.NoError(t, log.Append(NewEntry(bash("date"), base.Add(time.Second))))

	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "ls", entries[0].ToolInput.Command)
	assert.Equal(t, "date", entries[1].ToolInput.Command)
}

func TestSQLiteLog_RecentMatching(t *testing.T) {
	log, err := OpenSQLite(":memory:", 2)
	require.NoError(t, err)
	defer log.Close()

	require.NoError(t, log.Append(NewEntry(bash("date"), base)))

	found, err := log.RecentMatching(base.Add(time.Minute), 5*time.Minute, isDate)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = log.RecentMatching(base.Add(6*time.Minute), 5*time.Minute, isDate)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, log.Append(NewEntry(bash("ls"), base.Add(time.Second))))
	require.NoError(t, log.Append(NewEntry(bash("pwd"), base.Add(2*time.Second))))
	found, err = log.RecentMatching(base.Add(time.Minute), 5*time.Minute, isDate)
	require.NoError(t, err)
	assert.False(t, found, "only the newest 2 rows are scanned")
}

func TestOpen_SQLiteOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "audit.db")
	log, err := Open(Options{Backend: BackendSQLite, Path: path})
	require.NoError(t, err)
	require.NoError(t, log.Append(NewEntry(bash("date"), base)))
	require.NoError(t, log.Close())

	reopened, err := Open(Options{Backend: BackendSQLite, Path: path})
	require.NoError(t, err)
	defer reopened.Close()
	entries, err := reopened.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
