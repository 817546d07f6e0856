package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestLog(t *testing.T, path string) *CompileLog {
	t.Helper()
	log, err := OpenCompileLog(path)
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })
	return log
}

func TestCompileLogRecordLookup(t *testing.T) {
	log := openTestLog(t, filepath.Join(t.TempDir(), ".wati2wat_log"))

	entry, err := log.Lookup("a.wat")
	require.NoError(t, err)
	assert.Nil(t, entry)

	want := &LogEntry{
		Output:      "a.wat",
		Input:       "a.wati",
		InputHash:   HashSource([]byte("(module)")),
		Fingerprint: 0xcbf29ce484222325,
		OutputHash:  0xfedcba9876543210,
		StartMillis: 100,
		EndMillis:   142,
	}
	require.NoError(t, log.Record(want))
	got, err := log.Lookup("a.wat")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.EndMillis = 150
	require.NoError(t, log.Record(want))
	got, err = log.Lookup("a.wat")
	require.NoError(t, err)
	assert.Equal(t, int64(150), got.EndMillis)
}

func TestCompileLogPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.db")
	log, err := OpenCompileLog(path)
	require.NoError(t, err)
	require.NoError(t, log.Record(&LogEntry{Output: "b.wat", Input: "b.wati"}))
	require.NoError(t, log.Record(&LogEntry{Output: "a.wat", Input: "a.wati"}))
	require.NoError(t, log.Close())

	log = openTestLog(t, path)
	entries, err := log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.wat", entries[0].Output)
	assert.Equal(t, "b.wat", entries[1].Output)

	require.NoError(t, log.Remove("a.wat", "missing.wat"))
	entries, err = log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b.wat", entries[0].Output)
}
