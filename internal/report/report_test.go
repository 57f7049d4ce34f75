package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fulmenhq/hookkit/internal/runner"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"
)

func fixtureSet(t *testing.T, files map[string]string) *fixtures.Set {
	t.Helper()
	ar := &txtar.Archive{}
	for _, name := range []string{"z.md", "bad.py", "data.yaml", "gone.toml", "ok.sql"} {
		if data, ok := files[name]; ok {
			ar.Files = append(ar.Files, txtar.File{Name: name, Data: []byte(data)})
		}
	}
	set, err := fixtures.Decode("fixtures.txtar", txtar.Format(ar), fixtures.Options{})
	require.NoError(t, err)
	return set
}

func materialise(t *testing.T, set *fixtures.Set) string {
	t.Helper()
	root := t.TempDir()
	for _, e := range set.Entries {
		require.NoError(t, os.WriteFile(filepath.Join(root, e.Path), e.Data, 0o644))
	}
	return root
}

func TestBuild(t *testing.T) {
	set := fixtureSet(t, map[string]string{
		"z.md":      "# title\n",
		"bad.py":    "x = 1   \n",
		"data.yaml": "key: [unclosed\n",
		"gone.toml": "a = 1\n",
	})
	root := materialise(t, set)
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte("x = 1\n"), 0o644))
	require.NoError(t, os.Remove(filepath.Join(root, "gone.toml")))

	outcomes := []runner.HookOutcome{
		{ID: "trailing-whitespace", Status: runner.Passed, Flagged: []string{"bad.py"}},
		{ID: "check-yaml", Status: runner.Failed, ExitCode: 1, Flagged: []string{"data.yaml"}, Output: "bad yaml"},
		{ID: "noop", Status: runner.Passed},
	}
	r, err := Build(set, root, outcomes)
	require.NoError(t, err)

	require.Len(t, r.Files, 2)
	assert.Equal(t, "bad.py", r.Files[0].Path)
	assert.Equal(t, Modified, r.Files[0].Change)
	assert.Equal(t, "--- a/bad.py\n+++ b/bad.py\n@@ -1 +1 @@\n-x = 1   \n+x = 1\n", r.Files[0].Diff)
	assert.Equal(t, "gone.toml", r.Files[1].Path)
	assert.Equal(t, Deleted, r.Files[1].Change)
	assert.Contains(t, r.Files[1].Diff, "-a = 1\n")

	assert.Equal(t, []string{"data.yaml", "z.md"}, r.Clean)

	require.Len(t, r.Hooks, 3)
	assert.Equal(t, []string{"trailing-whitespace", "check-yaml", "noop"},
		[]string{r.Hooks[0].ID, r.Hooks[1].ID, r.Hooks[2].ID})
	assert.Equal(t, []string{}, r.Hooks[2].Flagged)
	require.Len(t, r.Failed(), 1)
	assert.Equal(t, "check-yaml", r.Failed()[0].ID)
}

func TestBuildMissingNewline(t *testing.T) {
	set := fixtureSet(t, map[string]string{"ok.sql": "select 1\n"})
	root := materialise(t, set)
	require.NoError(t, os.WriteFile(filepath.Join(root, "ok.sql"), []byte("select 1"), 0o644))

	r, err := Build(set, root, nil)
	require.NoError(t, err)
	require.Len(t, r.Files, 1)
	assert.Contains(t, r.Files[0].Diff, "+select 1\n\\ No newline at end of file\n")
}

func TestBuildReadError(t *testing.T) {
	set := fixtureSet(t, map[string]string{"bad.py": "x\n"})
	root := t.TempDir()
	// a directory where a file is expected cannot be read
	require.NoError(t, os.Mkdir(filepath.Join(root, "bad.py"), 0o755))

	_, err := Build(set, root, nil)
	var re *stageerr.ReportError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "bad.py", re.Path)
}

func TestRender(t *testing.T) {
	r := &DiffReport{
		Files: []FileDiff{{Path: "bad.py", Change: Modified, Diff: "--- a/bad.py\n+++ b/bad.py\n@@ -1 +1 @@\n-x = 1   \n+x = 1\n"}},
		Clean: []string{"data.yaml"},
		Hooks: []HookSummary{
			{ID: "trailing-whitespace", Status: "PASSED", Flagged: []string{"bad.py"}},
			{ID: "check-yaml", Status: "FAILED", ExitCode: 1, Flagged: []string{"data.yaml"}, Output: "data.yaml: <unclosed> & broken"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	want := strings.Join([]string{
		"--- a/bad.py",
		"+++ b/bad.py",
		"@@ -1 +1 @@",
		"-x = 1   ",
		"+x = 1",
		"",
		"trailing-whitespace: PASSED (1 files flagged)",
		"check-yaml: FAILED (1 files flagged)",
		"",
		"check-yaml output:",
		"data.yaml: <unclosed> & broken",
		"",
		"2 hooks: 1 passed, 1 failed; 1 files changed, 1 clean",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestRenderNoChanges(t *testing.T) {
	r := &DiffReport{
		Clean: []string{"a.py"},
		Hooks: []HookSummary{{ID: "ruff", Status: "PASSED", Flagged: []string{}}},
	}
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r))
	assert.Equal(t, "ruff: PASSED (0 files flagged)\n\n1 hooks: 1 passed, 0 failed; 0 files changed, 1 clean\n", buf.String())
}

func TestRenderJSON(t *testing.T) {
	r := &DiffReport{RunID: "abc", Files: []FileDiff{}, Clean: []string{"a.py"},
		Hooks: []HookSummary{{ID: "ruff", Status: "FAILED", ExitCode: 1, Flagged: []string{"a.py"}, Output: "E501"}}}

	var buf bytes.Buffer
	require.NoError(t, RenderJSON(&buf, r))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "abc", decoded["run_id"])
	hooks := decoded["hooks"].([]interface{})
	require.Len(t, hooks, 1)
	assert.Equal(t, "ruff", hooks[0].(map[string]interface{})["id"])
	assert.Equal(t, []interface{}{}, decoded["files"])
}
