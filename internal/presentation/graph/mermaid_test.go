package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/scriptor/internal/presentation/graph"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T) *domain.Script {
	t.Helper()
	b := dsl.New("login").Finally("log-out")
	b.Action(1).Entry().Do("exec", nil).
		When("success", dsl.To(2)).
		When(`message-contains "x"`, dsl.Call("retry.wait"))
	b.Action(2).Do("set", nil).Next(dsl.Call("retry.wait"))
	b.Procedure("retry.wait").Action(1).Entry().Do("sleep", nil)
	b.Procedure("log-out").Action(1).Entry().Do("noop", nil).Next(dsl.To(2))
	b.Procedure("log-out").Action(2).Do("noop", nil)
	s, err := b.Build()
	require.NoError(t, err)
	return s
}

func TestGenerateMermaid(t *testing.T) {
	got := graph.GenerateMermaid(login(t), nil)

	tests := []struct {
		name     string
		contains []string
	}{
		{
			name:     "Scopes as subgraphs",
			contains: []string{`subgraph main["main"]`, `subgraph proc_retry_wait["retry.wait"]`, `subgraph proc_log_out["finally: log-out"]`},
		},
		{
			name:     "Entry Point Shape",
			contains: []string{`main_1(("1: exec"))`, `proc_retry_wait_1(("1: sleep"))`},
		},
		{
			name:     "Procedure Call Shape",
			contains: []string{`main_2[["2: set"]]`},
		},
		{
			name:     "Plain Action Shape",
			contains: []string{`proc_log_out_2["2: noop"]`},
		},
		{
			name: "Edges",
			contains: []string{
				`main_1 -- "success" --> main_2`,
				`main_1 -. "message-contains 'x'" .-> proc_retry_wait_1`,
				`main_2 -. "call" .-> proc_retry_wait_1`,
				`proc_log_out_1 --> proc_log_out_2`,
				`end_main -. "finally" .-> proc_log_out_1`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, want := range tt.contains {
				assert.Contains(t, got, want)
			}
		})
	}
	assert.NotContains(t, got, "classDef", "no overlay without a trace")
}

func TestGenerateMermaid_Overlay(t *testing.T) {
	trace := &graph.Trace{}
	hooks := trace.Hooks()
	for _, e := range []domain.ActionEvent{
		{Scope: domain.MainScope, ActionID: 1},
		{Scope: domain.MainScope, ActionID: 2},
		{Scope: "retry.wait", ActionID: 1},
		{Scope: domain.MainScope, ActionID: 2},
	} {
		hooks.OnActionEnter(context.Background(), &e)
	}

	overlay := trace.Overlay()
	assert.Equal(t, "main:2", overlay.Current)

	got := graph.GenerateMermaid(login(t), overlay)
	assert.Contains(t, got, "class main_1 visited;")
	assert.Contains(t, got, "class proc_retry_wait_1 visited;")
	assert.Contains(t, got, "class main_2 current;")
	assert.Equal(t, 1, strings.Count(got, "class main_2 visited;"), "visited nodes are deduplicated")
}
