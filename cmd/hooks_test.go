package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/hookkit/pkg/hookconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `- id: ruff
  name: ruff
  entry: ruff check --fix
  language: python
  types_or: [python, pyi]
- id: taplo-format
  name: taplo
  entry: taplo format
  language: python
  files: \.toml$
- id: prettier
  name: prettier
  entry: prettier --write
  language: node
`

func TestHooksTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pre-commit-hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o644))

	out, err := execRoot(t, "hooks", "--manifest", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ID            LANGUAGE  FILES                  NAME", lines[0])
	assert.Equal(t, "ruff          python    types_or: python, pyi  ruff", lines[1])
	assert.Equal(t, `taplo-format  python    \.toml$                taplo`, lines[2])
	assert.Equal(t, "prettier      node      *                      prettier", lines[3])
}

func TestHooksJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pre-commit-hooks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o644))

	out, err := execRoot(t, "hooks", "--manifest", path, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"id": "taplo-format"`)
}

func TestHooksMissingManifest(t *testing.T) {
	_, err := execRoot(t, "hooks", "--manifest", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestWriteTableWideRunes(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, [][]string{{"名前", "x"}, {"ab", "y"}}))
	assert.Equal(t, "名前  x\nab    y\n", buf.String())
}

func TestFileSelector(t *testing.T) {
	assert.Equal(t, "*", fileSelector(hookconfig.Hook{}))
	assert.Equal(t, "types: yaml", fileSelector(hookconfig.Hook{Types: []string{"yaml"}}))
	assert.Equal(t, `\.sql$`, fileSelector(hookconfig.Hook{Files: `\.sql$`, Types: []string{"sql"}}))
}
