package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mchmarny/revrank/pkg/logging"
	"github.com/mchmarny/revrank/pkg/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCSV = "../data/testdata/reviews.csv"

func TestMain(m *testing.M) {
	logging.SetDefaultCLILogger("error")
	os.Exit(m.Run())
}

// runApp executes one command line against dbPath and returns what was
// written to the app writer.
func runApp(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	argv := append([]string{appName, "--db", dbPath, "--format", formatJSON}, args...)
	err := app.Run(context.Background(), argv)
	return out.String(), err
}

func TestApp_Workflow(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "app.db")

	out, err := runApp(t, dbPath, "import", "--file", testCSV)
	require.NoError(t, err)
	var imp ImportResult
	require.NoError(t, json.Unmarshal([]byte(out), &imp))
	assert.Equal(t, 9, imp.Rows)
	assert.Equal(t, 1, imp.Skipped)
	assert.Equal(t, 8, imp.Saved)

	out, err = runApp(t, dbPath, "rank", "--strategy", "wilson", "--limit", "3")
	require.NoError(t, err)
	var ranked RankResult
	require.NoError(t, json.Unmarshal([]byte(out), &ranked))
	assert.Equal(t, 8, ranked.Total)
	require.Len(t, ranked.Items, 3)
	assert.Equal(t, 1, ranked.Items[0].Position)
	assert.Equal(t, "A2Y5R0WB6AEZBB", ranked.Items[0].Record.Payload.ReviewerID)
	assert.InDelta(t, 0.95, ranked.Confidence, 1e-9)

	out, err = runApp(t, dbPath, "score", "--up", "600", "--down", "400")
	require.NoError(t, err)
	var sr ScoreResult
	require.NoError(t, json.Unmarshal([]byte(out), &sr))
	assert.InDelta(t, 200, sr.Scores["difference"], 1e-9)
	assert.InDelta(t, 0.6, sr.Scores["average"], 1e-9)
	assert.InDelta(t, 0.5693, sr.Scores["wilson"], 1e-4)

	out, err = runApp(t, dbPath, "state")
	require.NoError(t, err)
	var state map[string]int64
	require.NoError(t, json.Unmarshal([]byte(out), &state))
	assert.Equal(t, int64(8), state["review"])
	assert.Equal(t, int64(1), state["product"])

	out, err = runApp(t, dbPath, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, `"deleted": 8`)
}

func TestApp_ExplicitZeroConfidence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "app.db")

	_, err := runApp(t, dbPath, "score", "--up", "1", "--down", "1", "--confidence", "0")
	require.Error(t, err)
	assert.ErrorIs(t, err, score.ErrInvalidArgument)
}

func TestApp_InvalidFormat(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	err := app.Run(context.Background(), []string{appName,
		"--db", filepath.Join(t.TempDir(), "app.db"), "--format", "xml", "state"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestEncodeTo(t *testing.T) {
	v := map[string]int{"reviews": 3}

	var j bytes.Buffer
	require.NoError(t, encodeTo(&j, formatJSON, v))
	assert.JSONEq(t, `{"reviews":3}`, j.String())

	var y bytes.Buffer
	require.NoError(t, encodeTo(&y, formatYAML, v))
	assert.Equal(t, "reviews: 3\n", y.String())
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"Y\n", true},
		{" y \n", true},
		{"n\n", false},
		{"yes\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var w bytes.Buffer
		got, err := confirm(strings.NewReader(tt.input), &w, "delete everything")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, w.String(), "delete everything")
	}
}
