package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readFlags(t *testing.T, args ...string) (Options, *BuildConfig, int) {
	t.Helper()
	t.Cleanup(func() {
		GMetrics = nil
		gExplaining, gDumping, gNoLog = false, false, false
	})
	options := Options{LogPath: ".wati2wat_log"}
	config := NewBuildConfig()
	code := ReadFlags(append([]string{"wati2wat"}, args...), &options, config)
	return options, config, code
}

func TestReadFlagsInterleavedInputs(t *testing.T) {
	options, config, code := readFlags(t, "a.wati", "-j", "4", "b.wati", "-f", "c.wati")
	require.Equal(t, -1, code)
	assert.Equal(t, []string{"a.wati", "b.wati", "c.wati"}, options.Inputs)
	assert.Equal(t, 4, config.Parallelism)
	assert.True(t, config.Force)
}

func TestReadFlagsOptions(t *testing.T) {
	options, config, code := readFlags(t, "-o", "out.wat", "-C", "src", "-L", "log.db", "-n", "-q", "-l", "2.5", "main.wati")
	require.Equal(t, -1, code)
	assert.Equal(t, "out.wat", options.OutputFile)
	assert.Equal(t, "src", options.WorkingDir)
	assert.Equal(t, "log.db", options.LogPath)
	assert.True(t, config.DryRun)
	assert.Equal(t, NO_STATUS_UPDATE, config.Verbosity)
	assert.Equal(t, 2.5, config.MaxLoadAverage)
	assert.Equal(t, []string{"main.wati"}, options.Inputs)
	assert.Equal(t, GuessParallelism(), config.Parallelism)
}

func TestReadFlagsUnlimitedJobs(t *testing.T) {
	_, config, code := readFlags(t, "-j", "0")
	require.Equal(t, -1, code)
	assert.Equal(t, math.MaxInt, config.Parallelism)
}

func TestReadFlagsDoubleDash(t *testing.T) {
	options, _, code := readFlags(t, "a.wati", "--", "-odd.wati")
	require.Equal(t, -1, code)
	assert.Equal(t, []string{"a.wati", "-odd.wati"}, options.Inputs)
}

func TestReadFlagsTool(t *testing.T) {
	options, _, code := readFlags(t, "-t", "passes", "main.wati")
	require.Equal(t, -1, code)
	require.NotNil(t, options.Tool)
	assert.Equal(t, "passes", options.Tool.Name)
	assert.Equal(t, []string{"main.wati"}, options.ToolArgs)
	assert.Empty(t, options.Inputs)
}

func TestReadFlagsExitCodes(t *testing.T) {
	tests := []struct {
		args []string
		code int
	}{
		{[]string{"-V"}, 0},
		{[]string{"-d", "list"}, 0},
		{[]string{"-t", "list"}, 0},
		{[]string{"-d", "stat"}, 1},
		{[]string{"-t", "clen"}, 1},
		{[]string{"-j", "x"}, 1},
		{[]string{"-l", "high"}, 1},
		{[]string{"-h"}, 1},
		{[]string{"-Z"}, 1},
	}
	for _, tt := range tests {
		_, _, code := readFlags(t, tt.args...)
		assert.Equal(t, tt.code, code, "%v", tt.args)
	}
}

func TestDebugEnable(t *testing.T) {
	_, _, code := readFlags(t, "-d", "stats", "-d", "explain", "-d", "nolog", "-d", "dump")
	require.Equal(t, -1, code)
	assert.NotNil(t, GMetrics)
	assert.True(t, gExplaining)
	assert.True(t, gNoLog)
	assert.True(t, gDumping)
}

func TestSpellcheckString(t *testing.T) {
	assert.Equal(t, "stats", SpellcheckString("stat", "stats", "explain"))
	assert.Equal(t, "clean", SpellcheckString("claen", "clean", "log"))
	assert.Equal(t, "symbols", SpellcheckString("sym", "passes", "symbols"))
	assert.Equal(t, "", SpellcheckString("frobnicate", "stats", "explain"))
}

func TestChooseTool(t *testing.T) {
	tool, ok := ChooseTool("symbols")
	require.True(t, ok)
	require.NotNil(t, tool)
	assert.Equal(t, RUN_AFTER_FLAGS, tool.When)

	tool, ok = ChooseTool("log")
	require.True(t, ok)
	assert.Equal(t, RUN_AFTER_LOG, tool.When)

	tool, ok = ChooseTool("nope")
	assert.False(t, ok)
	assert.Nil(t, tool)
}

func TestDefaultOutputPath(t *testing.T) {
	assert.Equal(t, "main.wat", DefaultOutputPath("main.wati"))
	assert.Equal(t, "dir/x.wat", DefaultOutputPath("dir/x.wati"))
	assert.Equal(t, "", DefaultOutputPath(""))
}

func TestStripAnsiEscapeCodes(t *testing.T) {
	assert.Equal(t, "FAILED: x", StripAnsiEscapeCodes("\x1b[31mFAILED: \x1b[0mx"))
	assert.Equal(t, "plain", StripAnsiEscapeCodes("plain"))
}
