package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/stylesheet"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", ""))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRoutesCommand(t *testing.T) {
	cfgPath := writeConfig(t, t.TempDir(), "variant: all\n")

	t.Run("base variant has no optional routes", func(t *testing.T) {
		out, err := run(t, "routes", "--config", cfgPath, "--variant", "base", "-o", "json")
		require.NoError(t, err)

		var routes []RouteInfo
		require.NoError(t, json.Unmarshal([]byte(out), &routes))
		for _, r := range routes {
			assert.Empty(t, r.Feature, r.Path)
			assert.NotEqual(t, "/about", r.Path)
			assert.NotEqual(t, "/api/messages", r.Path)
		}
	})

	t.Run("all variant as table", func(t *testing.T) {
		out, err := run(t, "routes", "--config", cfgPath, "--variant", "all", "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "Variant: all")
		assert.Contains(t, out, "METHOD")
		assert.Contains(t, out, "/api/messages")
		assert.Contains(t, out, "/faq")
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := run(t, "routes", "--config", cfgPath, "--variant", "premium", "-o", "table")
		assert.Error(t, err)
	})
}

func TestMessagesListCommand(t *testing.T) {
	t.Run("memory store", func(t *testing.T) {
		cfgPath := writeConfig(t, t.TempDir(), "storage:\n  type: memory\n")

		out, err := run(t, "messages", "list", "--config", cfgPath, "-o", "table")
		require.NoError(t, err)
		assert.Contains(t, out, "No guestbook entries found.")

		out, err = run(t, "messages", "list", "--config", cfgPath, "-o", "json")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})

	t.Run("missing credentials", func(t *testing.T) {
		t.Setenv("API_URL", "")
		t.Setenv("API_KEY", "")
		cfgPath := writeConfig(t, t.TempDir(), "storage:\n  type: supabase\n")

		_, err := run(t, "messages", "list", "--config", cfgPath, "-o", "table")
		assert.Error(t, err)
	})
}

func TestStylesBuildCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "main.css")
	dst := filepath.Join(dir, "out", "styles.css")
	require.NoError(t, os.WriteFile(src, []byte("body {\n  color: red;\n}\n"), 0o644))

	cfgPath := writeConfig(t, dir, strings.Join([]string{
		"styles:",
		"  source: " + src,
		"  destination: " + dst,
		"  compiler: css",
		"  minify: true",
		"",
	}, "\n"))

	out, err := run(t, "styles", "build", "--config", cfgPath, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "Compiled")
	assert.Regexp(t, `\(css\) at \d{4}-\d{2}-\d{2}T`, out)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(data))

	require.NoError(t, os.Remove(src))
	_, err = run(t, "styles", "build", "--config", cfgPath, "-o", "table")
	assert.Error(t, err)
}

func TestStylesBuildCommand_SassWithoutDartSass(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "MAIN.scss")
	dst := filepath.Join(dir, "out", "styles.css")
	require.NoError(t, os.WriteFile(src, []byte("$c: red;\nbody { color: $c; }\n"), 0o644))

	cfgPath := writeConfig(t, dir, strings.Join([]string{
		"styles:",
		"  source: " + src,
		"  destination: " + dst,
		"  compiler: auto",
		"  dart_sass_binary: definitely-not-a-sass-binary",
		"",
	}, "\n"))

	_, err := run(t, "styles", "build", "--config", cfgPath, "-o", "table")
	assert.ErrorIs(t, err, stylesheet.ErrCompile)

	_, err = os.Stat(dst)
	assert.True(t, os.IsNotExist(err))
}

func TestEntryTable(t *testing.T) {
	entries := domain.GuestbookEntries{
		{"id": float64(2), "name": "Ada", "message": "hi"},
		{"id": float64(1), "name": "Bob", "created_at": "2024-01-01"},
	}

	headers, rows := entryTable(entries)
	assert.Equal(t, []string{"id", "created_at", "message", "name"}, headers)
	assert.Equal(t, []string{"2", "", "hi", "Ada"}, rows[0])
	assert.Equal(t, []string{"1", "2024-01-01", "", "Bob"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	var out bytes.Buffer
	printTable(&out, []string{"A", "LONGER"}, [][]string{{"wide-cell", "x"}})

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "A          LONGER"))
	assert.True(t, strings.HasPrefix(lines[1], "---------  ------"))
	assert.True(t, strings.HasPrefix(lines[2], "wide-cell  x"))
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printJSON(&out, []byte(`{"a":1}`)))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", out.String())

	out.Reset()
	require.NoError(t, printJSON(&out, []byte("not json")))
	assert.Equal(t, "not json\n", out.String())
}
