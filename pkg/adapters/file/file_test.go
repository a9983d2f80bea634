package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/scriptor/pkg/adapters/file"
	"github.com/aretw0/scriptor/pkg/domain"
	contract "github.com/aretw0/scriptor/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loginYAML = `
name: login
max_execution_time: 30s
finally: logout
actions:
  - id: 1
    entry_point: true
    command: noop
    conditional:
      - checker: success
        next: 2
      - checker: failure
        next: cleanup
  - id: 2
    command: set
    params:
      key: logged
      value: true
procedures:
  cleanup:
    - id: 1
      entry_point: true
      command: noop
  logout:
    - id: 1
      entry_point: true
      command: noop
`

const farmJSON = `{
  "actions": [
    {"id": 1, "entry_point": true, "command": "noop", "next": 1}
  ],
  "max_execution_time": 1500
}`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "login.yaml", loginYAML)
	writeFile(t, dir, "farm.json", farmJSON)
	writeFile(t, dir, "README.md", "# not a script")

	want := map[string]*domain.Script{
		"login": {
			Name:             "login",
			Finally:          "logout",
			MaxExecutionTime: domain.Duration(30 * time.Second),
			Actions:          make([]domain.Action, 2),
			Procedures:       map[string][]domain.Action{"cleanup": nil, "logout": nil},
		},
		"farm": {
			Name:             "farm",
			MaxExecutionTime: domain.Duration(1500 * time.Millisecond),
			Actions:          make([]domain.Action, 1),
		},
	}

	contract.ScriptLoaderContract(t, file.NewLoader(dir), want)
}

func TestLoader_DecodesTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "login.yaml", loginYAML)

	script, err := file.NewLoader(dir).Load(context.Background(), "login")
	require.NoError(t, err)

	first := script.Actions[0]
	require.Len(t, first.Conditional, 2)
	assert.Equal(t, domain.ActionTarget(2), first.Conditional[0].Next)
	assert.Equal(t, domain.ProcedureTarget("cleanup"), first.Conditional[1].Next)
	assert.Equal(t, true, script.Actions[1].Params["value"])
}

func TestLoader_NameMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: b\nactions: []\n")

	_, err := file.NewLoader(dir).Load(context.Background(), "a")
	assert.ErrorContains(t, err, `declares name "b"`)
}

func TestLoader_NameCollision(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "actions: []\n")
	writeFile(t, dir, "a.json", `{"actions": []}`)

	_, err := file.NewLoader(dir).List(context.Background())
	assert.ErrorContains(t, err, "collision")
}

func TestLoader_MissingDirectory(t *testing.T) {
	l := file.NewLoader(filepath.Join(t.TempDir(), "nope"))

	names, err := l.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	_, err = l.Load(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, domain.ErrScriptNotFound)
}

func TestStore_Contract(t *testing.T) {
	contract.ProfileStoreContract(t, file.NewStore(t.TempDir()))
}

func TestStore_AtomicWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.NewStore(dir)
	ctx := context.Background()

	p := domain.NewProfile("acc")
	for i := 0; i < 3; i++ {
		p.Set("counter", i)
		require.NoError(t, store.Save(ctx, p))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "acc.json", entries[0].Name())

	loaded, err := store.Load(ctx, "acc")
	require.NoError(t, err)
	v, _ := loaded.Get("counter")
	assert.EqualValues(t, 2, v)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestStore_RejectsUnsafeIDs(t *testing.T) {
	store := file.NewStore(t.TempDir())
	assert.Error(t, store.Save(context.Background(), domain.NewProfile("../escape")))
	assert.Error(t, store.Save(context.Background(), domain.NewProfile("")))
}
