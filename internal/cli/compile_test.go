package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileManifest(t *testing.T) {
	out, err := execute(t, "compile", manifestDir)
	require.NoError(t, err)

	var compiled map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &compiled))

	contracts := compiled["contracts"].([]any)
	require.Len(t, contracts, 4)

	// Sorted by target.
	targets := make([]string, len(contracts))
	for i, c := range contracts {
		targets[i] = c.(map[string]any)["target"].(string)
	}
	assert.Equal(t, []string{"clamp", "divide", "greet", "sqrt"}, targets)

	divide := contracts[1].(map[string]any)
	assert.Equal(t, []any{"a", "b"}, divide["params"])
	assert.Equal(t, []any{"b is nonzero"}, divide["pre"])
	assert.Equal(t, []any{"result bounded by a"}, divide["post"])

	greet := contracts[2].(map[string]any)
	assert.Equal(t, map[string]any{"name": "tag:required,alpha"}, greet["args"])

	sqrt := contracts[3].(map[string]any)
	assert.Equal(t, ">=0", sqrt["returns"])

	invariants := compiled["invariants"].([]any)
	assert.Equal(t, []any{map[string]any{"type": "Account", "condition": "balance non-negative"}}, invariants)
}

func TestCompileIsCanonical(t *testing.T) {
	first, err := execute(t, "compile", manifestDir)
	require.NoError(t, err)
	second, err := execute(t, "compile", manifestDir)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestCompileToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")

	out, err := execute(t, "compile", manifestDir, "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Compiled 4 contract(s), 1 invariant(s)")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))
}

func TestCompileJSON(t *testing.T) {
	out, err := execute(t, "compile", manifestDir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string            `json:"status"`
		Data   CompilationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Len(t, resp.Data.Contracts, 4)
	assert.Len(t, resp.Data.Invariants, 1)
}

func TestCompileInvalidManifest(t *testing.T) {
	out, err := execute(t, "compile", filepath.Join("..", "manifest", "testdata", "invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [E206]")
}
