package search

import (
	"os"
	"path"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultGrid(t *testing.T) {
	grid := DefaultGrid()
	require.NoError(t, grid.Validate())
	assert.Equal(t, 36, grid.Size())

	configurations := grid.Configurations()
	require.Len(t, configurations, 36)
	assert.Equal(t, Configuration{BoostInterval: 30, Quantums: []int{5, 10, 20}}, configurations[0])
	assert.Equal(t, Configuration{BoostInterval: 30, Quantums: []int{5, 20, 40}}, configurations[1])
	assert.Equal(t, Configuration{BoostInterval: 30, Quantums: []int{10, 10, 20}}, configurations[3])
	assert.Equal(t, Configuration{BoostInterval: 50, Quantums: []int{5, 10, 20}}, configurations[9])
	assert.Equal(t, Configuration{BoostInterval: 100, Quantums: []int{15, 30, 60}}, configurations[35])
}

func TestConfigurationsDoNotShareQuantums(t *testing.T) {
	configurations := Grid{BoostIntervals: []int{1}, Levels: []Level{{Values: []int{1, 2}}}}.Configurations()
	require.Len(t, configurations, 2)

	configurations[0].Quantums[0] = 42
	assert.Equal(t, []int{2}, configurations[1].Quantums)
}

func TestLoadGrid(t *testing.T) {
	file := path.Join(t.TempDir(), "grid.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
boost-intervals: [50, 150]
quantum-levels:
  - [10, 20]
  - values: [20, 40]
  - { scale-of: 1, factor: 2 }
`), 0644))

	grid, err := LoadGrid(file)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 150}, grid.BoostIntervals)
	require.Len(t, grid.Levels, 3)
	assert.Equal(t, []int{10, 20}, grid.Levels[0].Values)
	assert.Equal(t, []int{20, 40}, grid.Levels[1].Values)
	assert.Equal(t, lo.ToPtr(1), grid.Levels[2].ScaleOf)
	assert.Equal(t, 2, grid.Levels[2].Factor)

	assert.Equal(t, 8, grid.Size())
	assert.Equal(t, Configuration{BoostInterval: 150, Quantums: []int{20, 40, 80}}, grid.Configurations()[7])
}

func TestLoadGridErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadGrid(path.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read file: ")

	file := path.Join(dir, "grid.yaml")
	require.NoError(t, os.WriteFile(file, []byte("boost-intervals: fast\n"), 0644))
	_, err = LoadGrid(file)
	assert.ErrorContains(t, err, "unmarshal: ")

	require.NoError(t, os.WriteFile(file, []byte("boost-intervals: [1]\n"), 0644))
	_, err = LoadGrid(file)
	assert.EqualError(t, err, "validate: quantum-levels is required")
}

var gridtests = []struct {
	grid     string
	expected string
}{
	{"quantum-levels: [[1]]", "boost-intervals is required"},
	{"boost-intervals: [1]\nquantum-levels: [[]]", "quantum-levels[0].values is required"},
	{"boost-intervals: [1]\nquantum-levels: [{scale-of: 0, factor: 2}]", "quantum-levels[0].scale-of must reference an earlier level"},
	{"boost-intervals: [1]\nquantum-levels: [[1], {scale-of: 1, factor: 2}]", "quantum-levels[1].scale-of must reference an earlier level"},
	{"boost-intervals: [1]\nquantum-levels: [[1], {scale-of: 0}]", "quantum-levels[1].factor must be greater than 0"},
	{"boost-intervals: [1]\nquantum-levels: [[1], {values: [2], scale-of: 0, factor: 2}]", "quantum-levels[1] cannot have both values and scale-of"},
	{"boost-intervals: [0, -5]\nquantum-levels: [[0]]", ""},
}

func TestGridValidate(t *testing.T) {
	for _, tt := range gridtests {
		t.Run(tt.grid, func(t *testing.T) {
			var grid Grid
			require.NoError(t, yaml.Unmarshal([]byte(tt.grid), &grid))

			if err := grid.Validate(); tt.expected != "" {
				assert.EqualError(t, err, tt.expected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

var configurationtests = []struct {
	configuration Configuration
	expected      string
}{
	{Configuration{BoostInterval: 30, Quantums: []int{5, 10, 20}}, ""},
	{Configuration{BoostInterval: 30, Quantums: []int{10, 10, 10}}, ""},
	{Configuration{BoostInterval: 0, Quantums: []int{5}}, "boost interval must be greater than 0, got 0"},
	{Configuration{BoostInterval: 30}, "at least one quantum is required"},
	{Configuration{BoostInterval: 30, Quantums: []int{5, 0}}, "quantums[1] must be greater than 0, got 0"},
	{Configuration{BoostInterval: 30, Quantums: []int{15, 10, 20}}, "quantums must be non-decreasing, quantums[1]=10 < quantums[0]=15"},
}

func TestConfigurationValidate(t *testing.T) {
	for _, tt := range configurationtests {
		t.Run(tt.configuration.String(), func(t *testing.T) {
			if err := tt.configuration.Validate(); tt.expected != "" {
				assert.EqualError(t, err, tt.expected)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
