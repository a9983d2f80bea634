package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/scriptor/pkg/domain"
)

// GraphOverlay contains dynamic run data to visualize on the graph.
// Actions are keyed with Key.
type GraphOverlay struct {
	Visited []string
	Current string
}

// Key identifies an action across scopes, e.g. "main:1" or "cleanup:2".
func Key(scope string, id int) string {
	return fmt.Sprintf("%s:%d", domain.ScopeName(scope), id)
}

// GenerateMermaid produces a Mermaid flowchart of a script. Each scope is a
// subgraph; shapes follow the action's role:
// - Entry point: ((Circle))
// - Action calling a procedure: [[Subroutine]]
// - Default: [Rectangle]
// Conditional edges are labelled with their checker, procedure calls are
// dotted. Overlay styles (visited/current) are applied when provided.
func GenerateMermaid(script *domain.Script, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	writeScope(&sb, script, domain.MainScope, script.Actions)
	for _, name := range script.ProcedureNames() {
		writeScope(&sb, script, name, script.Procedures[name])
	}

	if script.Finally != "" && script.HasProcedure(script.Finally) {
		if entry, ok := domain.EntryPoint(script.Procedures[script.Finally]); ok {
			sb.WriteString("    end_main([\"end\"])\n")
			sb.WriteString(fmt.Sprintf("    end_main -. \"finally\" .-> %s\n", nodeID(script.Finally, entry.ID)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, key := range overlay.Visited {
			id := keyToNodeID(key)
			if id != "" && !seen[id] {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s visited;\n", id))
			}
		}
		if id := keyToNodeID(overlay.Current); id != "" {
			sb.WriteString(fmt.Sprintf("    class %s current;\n", id))
		}
	}

	return sb.String()
}

func writeScope(sb *strings.Builder, script *domain.Script, scope string, actions []domain.Action) {
	title := domain.ScopeName(scope)
	if scope != domain.MainScope && scope == script.Finally {
		title = "finally: " + scope
	}
	sb.WriteString(fmt.Sprintf("    subgraph %s[\"%s\"]\n", scopeID(scope), escape(title)))

	for _, a := range actions {
		opener, closer := "[", "]"
		switch {
		case a.EntryPoint:
			opener, closer = "((", "))"
		case callsProcedure(a):
			opener, closer = "[[", "]]"
		}
		sb.WriteString(fmt.Sprintf("        %s%s\"%d: %s\"%s\n", nodeID(scope, a.ID), opener, a.ID, escape(a.Command), closer))
	}
	sb.WriteString("    end\n")

	for _, a := range actions {
		from := nodeID(scope, a.ID)
		if len(a.Conditional) > 0 {
			for _, c := range a.Conditional {
				writeEdge(sb, script, scope, from, c.Next, c.Checker)
			}
			continue
		}
		if a.Next != nil {
			writeEdge(sb, script, scope, from, *a.Next, "")
		}
	}
}

func writeEdge(sb *strings.Builder, script *domain.Script, scope, from string, t domain.Target, label string) {
	switch {
	case t.IsAction():
		arrow := "-->"
		if label != "" {
			arrow = fmt.Sprintf("-- \"%s\" -->", escape(label))
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", from, arrow, nodeID(scope, t.ActionID())))

	case t.IsProcedure():
		to := scopeID(t.Procedure())
		if entry, ok := domain.EntryPoint(script.Procedures[t.Procedure()]); ok {
			to = nodeID(t.Procedure(), entry.ID)
		}
		if label == "" {
			label = "call"
		}
		sb.WriteString(fmt.Sprintf("    %s -. \"%s\" .-> %s\n", from, escape(label), to))
	}
}

func callsProcedure(a domain.Action) bool {
	if a.Next != nil && len(a.Conditional) == 0 && a.Next.IsProcedure() {
		return true
	}
	for _, c := range a.Conditional {
		if c.Next.IsProcedure() {
			return true
		}
	}
	return false
}

func scopeID(scope string) string {
	if scope == domain.MainScope {
		return "main"
	}
	return "proc_" + sanitizeMermaidID(scope)
}

func nodeID(scope string, id int) string {
	return fmt.Sprintf("%s_%d", scopeID(scope), id)
}

// keyToNodeID maps a Key back to its node id.
func keyToNodeID(key string) string {
	i := strings.LastIndex(key, ":")
	if i <= 0 {
		return ""
	}
	var id int
	if _, err := fmt.Sscanf(key[i+1:], "%d", &id); err != nil {
		return ""
	}
	scope := key[:i]
	if scope == "main" {
		scope = domain.MainScope
	}
	return nodeID(scope, id)
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}

// Trace records the actions a run visits, for use as an overlay.
type Trace struct {
	mu      sync.Mutex
	visited []string
}

// Hooks returns lifecycle hooks that feed the trace.
func (t *Trace) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnter: func(_ context.Context, e *domain.ActionEvent) {
			t.mu.Lock()
			t.visited = append(t.visited, Key(e.Scope, e.ActionID))
			t.mu.Unlock()
		},
	}
}

// Overlay returns the visited actions, the last one marked current.
func (t *Trace) Overlay() *GraphOverlay {
	t.mu.Lock()
	defer t.mu.Unlock()
	o := &GraphOverlay{Visited: append([]string(nil), t.visited...)}
	if n := len(t.visited); n > 0 {
		o.Current = t.visited[n-1]
	}
	return o
}
