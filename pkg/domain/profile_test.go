package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_GetSet(t *testing.T) {
	p := NewProfile("acc-1")
	p.Set("auth.email.login", "user@example.com")
	p.Set("balance", 10)

	v, ok := p.Get("auth.email.login")
	require.True(t, ok)
	assert.Equal(t, "user@example.com", v)

	v, ok = p.Get("balance")
	require.True(t, ok)
	assert.Equal(t, 10, v)

	_, ok = p.Get("auth.phone")
	assert.False(t, ok)

	p.Delete("auth.email.login")
	_, ok = p.Get("auth.email.login")
	assert.False(t, ok)
}

func TestProfile_JSONStringFields(t *testing.T) {
	p := NewProfile("acc-2")
	p.Data["customJSON"] = `{"cookies":{"session":"abc"},"tags":["a","b"]}`

	v, ok := p.Get("customJSON.cookies.session")
	require.True(t, ok)
	assert.Equal(t, "abc", v)

	p.Set("customJSON.cookies.session", "xyz")

	raw, ok := p.Data["customJSON"].(string)
	require.True(t, ok, "field keeps its serialized form")
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "xyz", decoded["cookies"].(map[string]any)["session"])

	flat := p.Flatten()
	assert.Equal(t, "acc-2", flat["id"])
	assert.IsType(t, map[string]any{}, flat["customJSON"])
}

func TestProfile_Arrays(t *testing.T) {
	p := NewProfile("acc-5")
	p.Data["subscriptions"] = []any{
		map[string]any{"url": "https://x"},
		map[string]any{"url": "https://y"},
	}

	v, ok := p.Get("subscriptions.1.url")
	require.True(t, ok)
	assert.Equal(t, "https://y", v)

	_, ok = p.Get("subscriptions.2.url")
	assert.False(t, ok)
	_, ok = p.Get("subscriptions.first")
	assert.False(t, ok)

	require.NoError(t, p.Set("subscriptions.0.url", "https://z"))
	subs, ok := p.Data["subscriptions"].([]any)
	require.True(t, ok, "array keeps its type")
	require.Len(t, subs, 2)
	assert.Equal(t, "https://z", subs[0].(map[string]any)["url"])
	assert.Equal(t, "https://y", subs[1].(map[string]any)["url"])

	require.NoError(t, p.Set("subscriptions.1", "replaced"))
	assert.Equal(t, "replaced", subs[1])

	t.Run("invalid segments leave the profile unchanged", func(t *testing.T) {
		for _, path := range []string{"subscriptions.5.url", "subscriptions.-1", "subscriptions.url"} {
			err := p.Set(path, "nope")
			assert.ErrorIs(t, err, ErrInvalidPath, path)
		}
		assert.Len(t, p.Data["subscriptions"], 2)
	})

	t.Run("array held in a JSON string", func(t *testing.T) {
		p.Data["customJSON"] = `{"tags":["a","b"]}`
		v, ok := p.Get("customJSON.tags.1")
		require.True(t, ok)
		assert.Equal(t, "b", v)

		require.NoError(t, p.Set("customJSON.tags.0", "z"))
		raw, ok := p.Data["customJSON"].(string)
		require.True(t, ok)
		assert.JSONEq(t, `{"tags":["z","b"]}`, raw)
	})
}

func TestProfile_Clone(t *testing.T) {
	p := NewProfile("acc-3")
	p.Set("a.b", 1)

	c := p.Clone()
	c.Set("a.b", 2)

	v, _ := p.Get("a.b")
	assert.Equal(t, 1, v)
}

func TestExecutionState_View(t *testing.T) {
	p := NewProfile("acc-4")
	p.Set("plan", "pro")

	s := NewExecutionState(p)
	s.Set("code", 200)
	s.Buffer = "hello"
	s.RetryCount = 2

	view := s.View()
	assert.Equal(t, "hello", view["buffer"])
	assert.Equal(t, 2, view["retry"])
	assert.Equal(t, 200, view["variables"].(map[string]any)["code"])
	assert.Equal(t, "pro", view["profile"].(map[string]any)["plan"])
}
