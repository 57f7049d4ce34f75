package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aymerick/raymond"
)

// One line per hook; ids are emitted verbatim.
const hookSection = "{{#each hooks}}{{{id}}}: {{status}} ({{flagged}} files flagged)\n{{/each}}"

var hookTemplate = raymond.MustParse(hookSection)

// Render writes the human-readable report: diffs, hook verdicts, the output
// of failing hooks, and a summary line.
func Render(w io.Writer, r *DiffReport) error {
	var sb strings.Builder

	for _, f := range r.Files {
		sb.WriteString(f.Diff)
		if !strings.HasSuffix(f.Diff, "\n") {
			sb.WriteString("\n")
		}
	}
	if len(r.Files) > 0 {
		sb.WriteString("\n")
	}

	hooks, err := renderHooks(r.Hooks)
	if err != nil {
		return fmt.Errorf("render hook summary: %w", err)
	}
	sb.WriteString(hooks)

	for _, h := range r.Failed() {
		if h.Output == "" {
			continue
		}
		fmt.Fprintf(&sb, "\n%s output:\n%s", h.ID, h.Output)
		if !strings.HasSuffix(h.Output, "\n") {
			sb.WriteString("\n")
		}
	}

	failed := len(r.Failed())
	fmt.Fprintf(&sb, "\n%d hooks: %d passed, %d failed; %d files changed, %d clean\n",
		len(r.Hooks), len(r.Hooks)-failed, failed, len(r.Files), len(r.Clean))

	_, err = io.WriteString(w, sb.String())
	return err
}

func renderHooks(hooks []HookSummary) (string, error) {
	rows := make([]map[string]interface{}, 0, len(hooks))
	for _, h := range hooks {
		rows = append(rows, map[string]interface{}{
			"id":      h.ID,
			"status":  h.Status,
			"flagged": len(h.Flagged),
		})
	}
	return hookTemplate.Exec(map[string]interface{}{"hooks": rows})
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, r *DiffReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
