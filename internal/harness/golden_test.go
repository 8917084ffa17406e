package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoldenScenarios(t *testing.T) {
	files, err := FindScenarios("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, path := range files {
		t.Run(filepath.Base(path), func(t *testing.T) {
			s, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshotOmitsIDsAndDetail(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/divide_golden.yaml")
	require.NoError(t, err)

	result, err := Run(s)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trace)
	require.NotEmpty(t, result.Trace[0].ID)

	snap := Snapshot(s.Name, result)
	data, err := snap.MarshalCanonical()
	require.NoError(t, err)

	assert.NotContains(t, string(data), result.Trace[0].ID)
	assert.NotContains(t, string(data), `"detail"`)
	assert.NotContains(t, string(data), `"id"`)
}

func TestCanonicalValue(t *testing.T) {
	assert.Equal(t, int64(3), canonicalValue(3))
	assert.Equal(t, int64(2), canonicalValue(2.0))
	assert.Equal(t, "1.5", canonicalValue(1.5))
	assert.Equal(t, []any{int64(1), "0.25"}, canonicalValue([]any{1, 0.25}))
	assert.Equal(t, map[string]any{"x": "2.5"}, canonicalValue(map[string]any{"x": 2.5}))
	assert.Equal(t, "hi", canonicalValue("hi"))
}
