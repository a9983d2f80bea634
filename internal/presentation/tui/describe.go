package tui

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/muesli/termenv"
)

// Describe renders a script as markdown: a header, then one table per scope.
func Describe(script *domain.Script) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", script.Name)
	if script.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", script.Description)
	}

	timeout := "none"
	if script.Timeout() > 0 {
		timeout = script.Timeout().String()
	}
	fmt.Fprintf(&sb, "- **Max execution time:** %s\n", timeout)
	if script.Finally != "" {
		fmt.Fprintf(&sb, "- **Finally:** `%s`\n", script.Finally)
	}
	fmt.Fprintf(&sb, "- **Procedures:** %d\n\n", len(script.Procedures))

	writeTable(&sb, "Main", script.Actions)
	for _, name := range script.ProcedureNames() {
		writeTable(&sb, fmt.Sprintf("Procedure `%s`", name), script.Procedures[name])
	}
	return sb.String()
}

func writeTable(sb *strings.Builder, title string, actions []domain.Action) {
	fmt.Fprintf(sb, "## %s\n\n", title)
	sb.WriteString("| ID | Command | Params | Routing |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, a := range actions {
		id := fmt.Sprintf("%d", a.ID)
		if a.EntryPoint {
			id += " ▶"
		}
		fmt.Fprintf(sb, "| %s | `%s` | %s | %s |\n", id, a.Command, params(a.Params), routing(a))
	}
	sb.WriteString("\n")
}

func params(p map[string]any) string {
	if len(p) == 0 {
		return ""
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v, err := json.Marshal(p[k])
		if err != nil {
			v = []byte(fmt.Sprintf("%v", p[k]))
		}
		parts = append(parts, fmt.Sprintf("`%s=%s`", k, cell(string(v))))
	}
	return strings.Join(parts, " ")
}

func routing(a domain.Action) string {
	if len(a.Conditional) > 0 {
		parts := make([]string, 0, len(a.Conditional))
		for _, c := range a.Conditional {
			parts = append(parts, fmt.Sprintf("%s → %s", c.Checker, target(c.Next)))
		}
		return strings.Join(parts, "<br>")
	}
	if a.Next != nil {
		return "→ " + target(*a.Next)
	}
	return "end"
}

func target(t domain.Target) string {
	if t.IsProcedure() {
		return "call `" + t.Procedure() + "`"
	}
	return t.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}

// PrintReport writes a one-line summary of a run, coloured by its result.
func PrintReport(w io.Writer, report *domain.Report, err error) {
	out := termenv.NewOutput(w)

	status := out.String("ok").Foreground(out.Color("#22c55e"))
	switch {
	case errors.Is(err, domain.ErrTimeout):
		status = out.String("timeout").Foreground(out.Color("#f59e0b"))
	case err != nil:
		status = out.String("error").Foreground(out.Color("#ef4444"))
	}

	if report == nil {
		fmt.Fprintf(w, "%s %v\n", status, err)
		return
	}
	fmt.Fprintf(w, "%s %s: %d steps, max depth %d, finally %t, %s\n",
		status, report.Script, report.Steps, report.MaxDepth, report.FinallyRan, report.Duration.Round(time.Millisecond))
	if err != nil {
		fmt.Fprintf(w, "  %v\n", err)
	}
}
