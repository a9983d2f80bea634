package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/scriptor"
	"github.com/aretw0/scriptor/pkg/adapters/memory"
	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/dsl"
	"github.com/aretw0/scriptor/pkg/observability"
	"github.com/aretw0/scriptor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T, opts ...scriptor.Option) *scriptor.Engine {
	t.Helper()
	greet := dsl.New("greet").Describe("Greets the profile.")
	greet.Action(1).Entry().
		Do("profile.get", map[string]any{"path": "name", "save_to": "name"}).
		When("success", dsl.To(2)).
		When("failure", dsl.To(3))
	greet.Action(2).Do("noop", nil).
		WhenWith("variable-set", map[string]any{"value": "$profile.greeted"}, dsl.To(4)).
		When("always", dsl.Call("count"))
	greet.Action(3).Do("buffer", map[string]any{"value": "who?"})
	greet.Action(4).Do("buffer", map[string]any{"value": "hello"})
	greet.Procedure("count").Action(1).Entry().Do("profile.set", map[string]any{"path": "greeted", "value": true})

	slow := dsl.New("slow").Timeout(10 * time.Millisecond)
	slow.Action(1).Entry().Do("sleep", map[string]any{"duration": "1s"})

	broken := dsl.New("broken")
	broken.Action(1).Entry().Do("missing", nil)

	loader, err := dsl.Loader(greet, slow, broken)
	require.NoError(t, err)
	engine, err := scriptor.New("", append([]scriptor.Option{scriptor.WithLoader(loader)}, opts...)...)
	require.NoError(t, err)
	return engine
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) RunResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSpec_IsValid(t *testing.T) {
	doc, err := GetSwagger()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", doc.Info.Version)
}

func TestScripts(t *testing.T) {
	h := NewHandler(newEngine(t))

	w := do(t, h, http.MethodGet, "/scripts", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scripts":["broken","greet","slow"]}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/scripts/greet", "")
	require.Equal(t, http.StatusOK, w.Code)
	var script domain.Script
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &script))
	assert.Equal(t, "Greets the profile.", script.Description)
	assert.Len(t, script.Actions, 4)

	w = do(t, h, http.MethodGet, "/scripts/ghost", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ghost")

	w = do(t, h, http.MethodGet, "/scripts/greet/graph", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))
	assert.Contains(t, w.Body.String(), `main_2 -. "always" .-> proc_count_1`)
}

func TestRunScript_InlineProfile(t *testing.T) {
	h := NewHandler(newEngine(t))

	resp := decodeRun(t, do(t, h, http.MethodPost, "/scripts/greet/runs", `{"profile":{"name":"ana"},"variables":{"seed":1}}`))
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "hello", resp.Buffer)
	assert.Equal(t, "ana", resp.Variables["name"])
	assert.EqualValues(t, 1, resp.Variables["seed"])
	require.NotNil(t, resp.Report)
	// 1, 2, count:1, back to 2, 4
	assert.Equal(t, 5, resp.Report.Steps)

	resp = decodeRun(t, do(t, h, http.MethodPost, "/scripts/greet/runs", ""))
	assert.Equal(t, "who?", resp.Buffer)
}

func TestRunScript_StoredProfile(t *testing.T) {
	store := memory.NewStore()
	p := domain.NewProfile("acc-1")
	p.Set("name", "bob")
	require.NoError(t, store.Save(context.Background(), p))

	h := NewHandler(newEngine(t), WithSessions(session.NewManager(store)))
	resp := decodeRun(t, do(t, h, http.MethodPost, "/scripts/greet/runs", `{"profile_id":"acc-1"}`))
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, "bob", resp.Variables["name"])

	saved, err := store.Load(context.Background(), "acc-1")
	require.NoError(t, err)
	v, ok := saved.Get("greeted")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

type readOnlyStore struct {
	*memory.Store
}

func (readOnlyStore) Save(context.Context, *domain.Profile) error {
	return errors.New("disk full")
}

func TestRunScript_SaveFailureIsReported(t *testing.T) {
	inner := memory.NewStore()
	require.NoError(t, inner.Save(context.Background(), domain.NewProfile("acc-1")))
	h := NewHandler(newEngine(t), WithSessions(session.NewManager(readOnlyStore{inner})))

	t.Run("after a successful run", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/greet/runs", `{"profile_id":"acc-1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "disk full")
	})

	t.Run("after a failed run", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/slow/runs", `{"profile_id":"acc-1"}`)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "failed to save profile")
	})
}

func TestRunScript_Errors(t *testing.T) {
	h := NewHandler(newEngine(t))

	t.Run("timeout is a finished run", func(t *testing.T) {
		resp := decodeRun(t, do(t, h, http.MethodPost, "/scripts/slow/runs", `{}`))
		assert.Equal(t, StatusTimeout, resp.Status)
		assert.Contains(t, resp.Error, "slow")
	})

	t.Run("invalid script", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/broken/runs", `{}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `command \"missing\" is not registered`)
	})

	t.Run("unknown script", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/ghost/runs", `{}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("body rejected by the schema", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/greet/runs", `{"profile_id":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = do(t, h, http.MethodPost, "/scripts/greet/runs", `{"bogus":true}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("profile id without store", func(t *testing.T) {
		w := do(t, h, http.MethodPost, "/scripts/greet/runs", `{"profile_id":"acc-1"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "profile store")
	})
}

func TestMetricsAndInfo(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(reg)
	require.NoError(t, err)

	h := NewHandler(newEngine(t, scriptor.WithLifecycleHooks(metrics.Hooks())), WithGatherer(reg), WithVersion("9.9.9"))
	decodeRun(t, do(t, h, http.MethodPost, "/scripts/greet/runs", `{}`))

	w := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `scriptor_runs_total{result="ok",script="greet"} 1`)

	w = do(t, h, http.MethodGet, "/info", "")
	assert.JSONEq(t, `{"app":"scriptor-http","version":"9.9.9","api_version":"1.0.0"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/openapi.yaml", "")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("openapi: 3.0.3")))

	w = do(t, h, http.MethodGet, "/health", "")
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

// watchEngine signals one change then closes.
type watchEngine struct{ *scriptor.Engine }

func (watchEngine) Watch(context.Context) (<-chan struct{}, error) {
	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	close(ch)
	return ch, nil
}

func TestSubscribeEvents(t *testing.T) {
	w := do(t, NewHandler(watchEngine{newEngine(t)}), http.MethodGet, "/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "event: ping")
	assert.Contains(t, w.Body.String(), "data: reload")

	w = do(t, NewHandler(newEngine(t)), http.MethodGet, "/events", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}
