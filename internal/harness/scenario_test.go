package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTopology creates a minimal line topology under dir/factory.
func writeTopology(t *testing.T, dir string) string {
	t.Helper()
	topoDir := filepath.Join(dir, "factory")
	require.NoError(t, os.MkdirAll(topoDir, 0755))
	src := `package factory

source: coal: {rate: "1"}
belt: feed: {capacity: 2}
sink: yard: {}
link: [{from: "coal", to: "feed"}, {from: "feed", to: "yard"}]
`
	require.NoError(t, os.WriteFile(filepath.Join(topoDir, "factory.cue"), []byte(src), 0644))
	return topoDir
}

func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	writeTopology(t, dir)
	path := writeScenario(t, dir, `
name: short_line
description: "two units reach the yard"
topology: factory
ticks: 4
run_id: test-run-short
assertions:
  - type: delivered
    component: yard
    count: 2
  - type: busy
    component: nowhere
    busy: false
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "short_line", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "factory"), scenario.Topology)
	assert.Equal(t, int64(4), scenario.Ticks)
	assert.Equal(t, "test-run-short", scenario.RunID)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, AssertDelivered, scenario.Assertions[0].Type)
	assert.Equal(t, int64(2), scenario.Assertions[0].Count)
	require.NotNil(t, scenario.Assertions[1].Busy)
	assert.False(t, *scenario.Assertions[1].Busy)
}

func TestLoadScenario_AbsoluteTopologyKept(t *testing.T) {
	dir := t.TempDir()
	topoDir := writeTopology(t, dir)
	path := writeScenario(t, t.TempDir(), `
name: abs
description: "absolute topology path"
topology: `+topoDir+`
ticks: 1
assertions:
  - {type: produced, component: coal, count: 1}
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, topoDir, scenario.Topology)
}

func TestLoadScenario_FileNotFound(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	dir := t.TempDir()
	writeTopology(t, dir)
	path := writeScenario(t, dir, `
name: typo
description: "misspelled assertions key"
topology: factory
ticks: 1
assertion:
  - {type: produced, component: coal, count: 1}
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: "d"
topology: factory
ticks: 1
assertions: [{type: produced, component: coal, count: 1}]
`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
topology: factory
ticks: 1
assertions: [{type: produced, component: coal, count: 1}]
`,
			wantErr: "description is required",
		},
		{
			name: "missing topology",
			content: `
name: n
description: "d"
ticks: 1
assertions: [{type: produced, component: coal, count: 1}]
`,
			wantErr: "topology is required",
		},
		{
			name: "topology not found",
			content: `
name: n
description: "d"
topology: nowhere
ticks: 1
assertions: [{type: produced, component: coal, count: 1}]
`,
			wantErr: "topology directory not found",
		},
		{
			name: "zero ticks",
			content: `
name: n
description: "d"
topology: factory
assertions: [{type: produced, component: coal, count: 1}]
`,
			wantErr: "ticks must be > 0",
		},
		{
			name: "no assertions",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
`,
			wantErr: "assertions list is required",
		},
		{
			name: "unknown assertion type",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
assertions: [{type: throughput, component: coal}]
`,
			wantErr: `unknown assertion type "throughput"`,
		},
		{
			name: "missing component",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
assertions: [{type: produced, count: 1}]
`,
			wantErr: "assertions[0]: component is required",
		},
		{
			name: "busy without flag",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
assertions: [{type: busy, component: smelter}]
`,
			wantErr: "busy is required",
		},
		{
			name: "negative count",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
assertions: [{type: delivered, component: yard, count: -1}]
`,
			wantErr: "count must be >= 0",
		},
		{
			name: "busy on count assertion",
			content: `
name: n
description: "d"
topology: factory
ticks: 1
assertions: [{type: delivered, component: yard, count: 1, busy: true}]
`,
			wantErr: "busy is not valid for delivered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeTopology(t, dir)
			path := writeScenario(t, dir, tt.content)

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.yaml", "a.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0755))

	paths, err := FindScenarios(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.yml"),
		filepath.Join(dir, "b.yaml"),
	}, paths)
}
