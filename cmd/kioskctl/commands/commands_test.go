package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiosk/internal/kiosk"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := NewRootCommand(&out)
	cmd.SetArgs(args)
	cmd.SetErr(&out)

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

func TestURLs_Samples(t *testing.T) {
	out, err := execute(t, "urls")
	require.NoError(t, err)

	assert.Contains(t, out, "Google Drive - /file/d/ format")
	assert.Contains(t, out, "https://drive.google.com/uc?export=view&id=1ABC123xyz")
}

func TestURLs_Arguments(t *testing.T) {
	out, err := execute(t, "--json", "urls", "https://imgur.com/abc123", "https://example.com/photo.png")
	require.NoError(t, err)

	var cases []kiosk.URLTypeCase
	require.NoError(t, json.Unmarshal([]byte(out), &cases))
	require.Len(t, cases, 2)

	assert.Equal(t, "https://i.imgur.com/abc123.jpg", cases[0].Output)
	assert.Equal(t, "https://example.com/photo.png", cases[1].Output)
	assert.True(t, cases[1].Valid)
}

func TestFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	csv := "Title,Description,Image URL,Campus_ID\n" +
		"Welcome,\"Hello, world\",https://example.com/a.jpg,ACCESS\n" +
		",no title,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o600))

	out, err := execute(t, "format", path)
	require.NoError(t, err)

	assert.Contains(t, out, "| Title")
	assert.Contains(t, out, "Hello, world")
	assert.Contains(t, out, "✅ 1 of 1 rows become slides")
}

func TestFormat_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	require.NoError(t, os.WriteFile(path, []byte("Title,Notes\nWelcome,x\n"), 0o600))

	_, err := execute(t, "format", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image URL")
}

func TestFormat_FileNotFound(t *testing.T) {
	_, err := execute(t, "format", filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kiosk.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	_, err = execute(t, "config", "init", path)
	require.Error(t, err)

	_, err = execute(t, "config", "init", "--force", path)
	require.NoError(t, err)

	local := filepath.Join(dir, "kiosk.local.yaml")
	require.NoError(t, os.WriteFile(local, []byte("source:\n  api_key: secret-key\n"), 0o600))

	out, err = execute(t, "--config", path, "--json", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"api_key": "***"`)
	assert.NotContains(t, out, "secret-key")
}

func TestHistory_RequiresStorage(t *testing.T) {
	_, err := execute(t, "history")
	require.ErrorIs(t, err, errNoStorage)
}
