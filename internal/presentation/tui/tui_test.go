package tui_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/scriptor/internal/presentation/tui"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	b := dsl.New("login").Describe("Signs in.").Timeout(30 * time.Second).Finally("cleanup")
	b.Action(1).Entry().Do("set", map[string]any{"key": "a|b", "value": 1}).
		When("success", dsl.To(2)).
		When("failure", dsl.Call("cleanup"))
	b.Action(2).Do("noop", nil)
	b.Procedure("cleanup").Action(1).Entry().Do("noop", nil)
	script, err := b.Build()
	require.NoError(t, err)

	md := tui.Describe(script)
	assert.Contains(t, md, "# login\n\nSigns in.")
	assert.Contains(t, md, "**Max execution time:** 30s")
	assert.Contains(t, md, "**Finally:** `cleanup`")
	assert.Contains(t, md, "## Main")
	assert.Contains(t, md, "## Procedure `cleanup`")
	assert.Contains(t, md, "| 1 ▶ | `set` | `key=\"a\\|b\"` `value=1` | success → 2<br>failure → call `cleanup` |")
	assert.Contains(t, md, "| 2 | `noop` |  | end |")
}

func TestPrintReport(t *testing.T) {
	report := &domain.Report{Script: "login", Steps: 3, MaxDepth: 1, FinallyRan: true, Duration: 1500 * time.Microsecond}

	var buf bytes.Buffer
	tui.PrintReport(&buf, report, nil)
	assert.Equal(t, "ok login: 3 steps, max depth 1, finally true, 2ms\n", buf.String())

	buf.Reset()
	tui.PrintReport(&buf, report, fmt.Errorf("run: %w", domain.ErrTimeout))
	assert.Contains(t, buf.String(), "timeout login")

	buf.Reset()
	tui.PrintReport(&buf, nil, errors.New("boom"))
	assert.Equal(t, "error boom\n", buf.String())
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "v1.2.3")
}
