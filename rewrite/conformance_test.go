package rewrite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// conformanceSuite is one YAML file under testdata/.
type conformanceSuite struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description,omitempty"`
	Tests       []conformanceCase `yaml:"tests"`
}

type conformanceCase struct {
	Name   string   `yaml:"name"`
	Skip   string   `yaml:"skip,omitempty"`
	Passes []string `yaml:"passes,omitempty"` // run only these passes, in this order
	Input  string   `yaml:"input"`
	Output string   `yaml:"output,omitempty"`
	Error  string   `yaml:"error,omitempty"` // expected error substring
}

func loadSuites(t *testing.T) map[string]conformanceSuite {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files, "no conformance suites found")

	suites := make(map[string]conformanceSuite, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		require.NoError(t, err)
		var s conformanceSuite
		require.NoError(t, yaml.Unmarshal(data, &s), file)
		suites[filepath.Base(file)] = s
	}
	return suites
}

func pipelineFor(t *testing.T, names []string) *Pipeline {
	if len(names) == 0 {
		return Default()
	}
	byName := make(map[string]Pass)
	for _, p := range NewRules().Passes() {
		byName[p.Name] = p
	}
	passes := make([]Pass, 0, len(names))
	for _, name := range names {
		p, ok := byName[name]
		require.True(t, ok, "unknown pass %q", name)
		passes = append(passes, p)
	}
	return NewWithPasses(passes...)
}

func TestConformance(t *testing.T) {
	for file, suite := range loadSuites(t) {
		t.Run(file, func(t *testing.T) {
			for _, tc := range suite.Tests {
				t.Run(tc.Name, func(t *testing.T) {
					if tc.Skip != "" {
						t.Skip(tc.Skip)
					}
					out, err := pipelineFor(t, tc.Passes).Compile(tc.Input)
					if tc.Error != "" {
						require.Error(t, err)
						assert.Contains(t, err.Error(), tc.Error)
						assert.Empty(t, out)
						return
					}
					require.NoError(t, err)
					assert.Equal(t, tc.Output, out)
				})
			}
		})
	}
}
