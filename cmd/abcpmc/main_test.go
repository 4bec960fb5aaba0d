package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/milosgajdos/go-abc/store"
	"github.com/stretchr/testify/assert"
)

const testConfig = `
parameters:
  - name: mean
    lower: 0
    upper: 5
    prior:
      kind: flat
      params: [1, 4]
  - name: std
    lower: 0.1
    upper: 3
    prior:
      kind: flat
      params: [0.1, 3]

sampler:
  m: 30
  mini: 60
  quantile: 0.75
  delta: 0.2
  max_iterations: 3
  workers: 2
  seed: 5

model:
  truth: [2.5, 1.0]
  n: 100
  nodes: 10
`

// execute runs the root command with args and returns its standard output
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "abc.yaml")
	if err := os.WriteFile(path, []byte(testConfig), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	return path
}

func TestVersion(t *testing.T) {
	assert := assert.New(t)

	out, err := execute(t, "version")
	assert.NoError(err)
	assert.Contains(out, version)

	out, err = execute(t, "version", "--json")
	assert.NoError(err)
	var v map[string]string
	assert.NoError(json.Unmarshal([]byte(out), &v))
	assert.Equal(version, v["version"])
}

func TestRunAndShow(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	cfg := writeConfig(t, dir)
	db := filepath.Join(dir, "runs.db")
	plots := filepath.Join(dir, "plots")

	out, err := execute(t, "run", "--config", cfg, "--db", db, "--plot", plots, "--json", "--log-level", "error")
	assert.NoError(err)

	var s summary
	assert.NoError(json.Unmarshal([]byte(out), &s))
	assert.NotEmpty(s.ID)
	assert.Equal([]string{"mean", "std"}, s.Names)
	assert.Len(s.Mean, 2)
	assert.Equal(s.Populations, len(s.Thresholds))
	assert.Contains([]string{"Converged", "IterationLimitReached"}, s.State)

	_, err = os.Stat(filepath.Join(plots, "thresholds.png"))
	assert.NoError(err)

	// resuming appends populations to the stored run
	out, err = execute(t, "run", "--config", cfg, "--db", db, "--resume", "last", "--json", "--log-level", "error")
	assert.NoError(err)
	var resumed summary
	assert.NoError(json.Unmarshal([]byte(out), &resumed))
	assert.True(resumed.Populations > s.Populations)

	out, err = execute(t, "show", "--db", db)
	assert.NoError(err)
	assert.Contains(out, s.ID)
	assert.Contains(out, resumed.ID)

	out, err = execute(t, "show", "--db", db, "--run", s.ID)
	assert.NoError(err)
	assert.Contains(out, "run: "+s.ID)
	assert.Contains(out, "ITERATION")
	assert.Contains(out, "posterior covariance")

	ctx := t.Context()
	st, err := store.Open(ctx, db)
	assert.NoError(err)
	defer st.Close()
	runs, err := st.Runs(ctx)
	assert.NoError(err)
	assert.Len(runs, 2)
}

func TestRunErrors(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()

	_, err := execute(t, "run", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(err)

	_, err = execute(t, "run", "--config", writeConfig(t, dir), "--resume", "last")
	assert.Error(err)
	assert.True(strings.Contains(err.Error(), "database"))

	_, err = execute(t, "show")
	assert.Error(err)
}
