package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"remont/internal/core"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, k := range []string{"GOOGLE_SPREADSHEET_ID", "AMQP_URL", "DATA_BACKEND", "TRUSTED_PROXIES"} {
		t.Setenv(k, "")
	}
	return filepath.Join(t.TempDir(), "remont.db")
}

func TestMigrate(t *testing.T) {
	db := isolateEnv(t)

	out, err := run(t, "migrate", "up", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	out, err = run(t, "migrate", "version", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "schema version 1\n", out)

	out, err = run(t, "migrate", "down", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "schema version 0\n", out)

	_, err = run(t, "migrate", "down", "--steps", "0", "--db", db)
	assert.Error(t, err)
}

func TestSeedBudgetAndSync(t *testing.T) {
	db := isolateEnv(t)

	out, err := run(t, "seed", "--db", db)
	require.NoError(t, err)
	m := regexp.MustCompile(`created project (\S+) `).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = run(t, "projects", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, id)

	out, err = run(t, "budget", id, "--json", "--db", db)
	require.NoError(t, err)
	var b core.BudgetSummary
	require.NoError(t, json.Unmarshal([]byte(out), &b))
	assert.Equal(t, id, b.ProjectID)
	assert.Positive(t, b.Spent.Cents)

	out, err = run(t, "budget", id, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Elektryka")

	_, err = run(t, "budget", "missing", "--db", db)
	assert.ErrorIs(t, err, core.ErrNotFound)

	out, err = run(t, "sync", "stats", "--db", db)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pending="), out)
	assert.NotContains(t, out, "pending=0 ")

	out, err = run(t, "sync", "retry", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "requeued 0 failed items\n", out)
}

func TestBudgetRequiresProjectID(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "budget")
	assert.Error(t, err)
}
