package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/faber6/eliz/internal/profile"
)

func TestReadConversation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte("bob: hi\n"), 0o600))

	text, err := readConversation(path)
	require.NoError(t, err)
	assert.Equal(t, "bob: hi\n", text)

	_, err = readConversation(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read conversation")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}

func TestSetupLoggerMissingDir(t *testing.T) {
	p := &profile.Profile{LogFile: filepath.Join(t.TempDir(), "nope", "log")}

	_, err := setupLogger(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open log file")
	assert.True(t, os.IsNotExist(errors.Cause(err)))
}
