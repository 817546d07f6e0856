package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tevino/abool/v2"
)

type buildTest struct {
	t      *testing.T
	dir    string
	config *BuildConfig
	main   *Wati2watMain
	status Status
}

func newBuildTest(t *testing.T) *buildTest {
	dir := t.TempDir()
	config := NewBuildConfig()
	config.Verbosity = QUIET
	config.Parallelism = 2
	w := NewWati2watMain(config, filepath.Join(dir, ".wati2wat_log"))
	require.True(t, w.OpenCompileLog())
	t.Cleanup(w.Release)
	return &buildTest{t: t, dir: dir, config: config, main: w, status: NewStatusPrinter(config)}
}

func (b *buildTest) write(name, content string) string {
	path := filepath.Join(b.dir, name)
	require.NoError(b.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (b *buildTest) read(name string) string {
	data, err := os.ReadFile(filepath.Join(b.dir, name))
	require.NoError(b.t, err)
	return string(data)
}

func (b *buildTest) run(options *Options) int {
	return b.main.RunBuild(options, b.status, abool.New())
}

func (b *buildTest) dirty(input string) bool {
	builder := NewBuilder(b.config, b.main.Pipeline, b.main.Log, b.status, abool.New())
	dirty, err := builder.AddJob(input, DefaultOutputPath(input))
	require.NoError(b.t, err)
	return dirty
}

func TestBuildCompilesInputs(t *testing.T) {
	b := newBuildTest(t)
	a := b.write("a.wati", "$x = 5i32")
	c := b.write("c.wati", "call $f($a)")

	require.Equal(t, 0, b.run(&Options{Inputs: []string{a, c}}))
	assert.Equal(t, "(local.set $x (i32.const 5))", b.read("a.wat"))
	assert.Equal(t, "(local.get $a)\ncall $f", b.read("c.wat"))

	entries, err := b.main.Log.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, filepath.Join(b.dir, "a.wat"), entries[0].Output)
	assert.Equal(t, rapidhash([]byte("(local.set $x (i32.const 5))")), entries[0].OutputHash)
}

func TestBuildExplicitOutput(t *testing.T) {
	b := newBuildTest(t)
	in := b.write("main.wati", "(l $v f64)")
	out := filepath.Join(b.dir, "out", "main.wat")

	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}, OutputFile: out}))
	assert.Equal(t, "(local $v f64)", b.read("out/main.wat"))

	assert.Equal(t, 1, b.run(&Options{Inputs: []string{in, in + "x"}, OutputFile: out}))
}

func TestBuildSkipsUpToDate(t *testing.T) {
	b := newBuildTest(t)
	in := b.write("a.wati", "$x")
	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))
	assert.False(t, b.dirty(in))

	// output edited by hand
	b.write("a.wat", "(nop)")
	assert.True(t, b.dirty(in))
	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))
	assert.Equal(t, "(local.get $x)", b.read("a.wat"))
	assert.False(t, b.dirty(in))

	// input changed
	b.write("a.wati", "$y")
	assert.True(t, b.dirty(in))
	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))
	assert.Equal(t, "(local.get $y)", b.read("a.wat"))

	// output removed
	require.NoError(t, os.Remove(filepath.Join(b.dir, "a.wat")))
	assert.True(t, b.dirty(in))

	b.config.Force = true
	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))
	assert.True(t, b.dirty(in))
}

func TestBuildStaleFingerprint(t *testing.T) {
	b := newBuildTest(t)
	in := b.write("a.wati", "$x")
	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))

	entry, err := b.main.Log.Lookup(filepath.Join(b.dir, "a.wat"))
	require.NoError(t, err)
	entry.Fingerprint++
	require.NoError(t, b.main.Log.Record(entry))
	assert.True(t, b.dirty(in))
}

func TestBuildRejection(t *testing.T) {
	b := newBuildTest(t)
	bad := b.write("bad.wati", "call $f(call $g())")
	good := b.write("good.wati", "1i64")

	assert.Equal(t, 1, b.run(&Options{Inputs: []string{bad, good}}))
	assert.NoFileExists(t, filepath.Join(b.dir, "bad.wat"))
	assert.Equal(t, "(i64.const 1)", b.read("good.wat"))

	entry, err := b.main.Log.Lookup(filepath.Join(b.dir, "bad.wat"))
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestBuildDryRun(t *testing.T) {
	b := newBuildTest(t)
	in := b.write("a.wati", "$x")
	b.config.DryRun = true

	require.Equal(t, 0, b.run(&Options{Inputs: []string{in}}))
	assert.NoFileExists(t, filepath.Join(b.dir, "a.wat"))
	entries, err := b.main.Log.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestBuildInterrupted(t *testing.T) {
	b := newBuildTest(t)
	in := b.write("a.wati", "$x")
	interrupted := abool.New()
	interrupted.Set()

	assert.Equal(t, int(ExitInterrupted), b.main.RunBuild(&Options{Inputs: []string{in}}, b.status, interrupted))
	assert.NoFileExists(t, filepath.Join(b.dir, "a.wat"))
}

func TestBuildErrors(t *testing.T) {
	b := newBuildTest(t)
	assert.Equal(t, 1, b.run(&Options{}))
	assert.Equal(t, 1, b.run(&Options{Inputs: []string{filepath.Join(b.dir, "missing.wati")}}))

	builder := NewBuilder(b.config, b.main.Pipeline, b.main.Log, b.status, abool.New())
	in := b.write("a.wati", "")
	_, err := builder.AddJob(in, in)
	assert.ErrorContains(t, err, "overwrite its own input")

	other := b.write("a.watx", "")
	_, err = builder.AddJob(in, filepath.Join(b.dir, "a.wat"))
	require.NoError(t, err)
	_, err = builder.AddJob(other, filepath.Join(b.dir, "a.wat"))
	assert.ErrorContains(t, err, "multiple inputs compile to")

	added, err := builder.AddJob(in, filepath.Join(b.dir, "a.wat"))
	require.NoError(t, err)
	assert.False(t, added, "duplicate input is ignored")
}

func TestJobOrderLargestFirst(t *testing.T) {
	b := newBuildTest(t)
	b.config.Force = true
	builder := NewBuilder(b.config, b.main.Pipeline, b.main.Log, b.status, abool.New())
	for _, name := range []string{"s.wati", "l.wati", "m.wati", "m2.wati"} {
		size := map[string]int{"s.wati": 1, "l.wati": 30, "m.wati": 10, "m2.wati": 10}[name]
		in := b.write(name, string(make([]byte, size)))
		_, err := builder.AddJob(in, in+".out")
		require.NoError(t, err)
	}

	var order []string
	for !builder.ready.IsEmpty() {
		order = append(order, filepath.Base(builder.ready.Poll().(*Job).Input))
	}
	assert.Equal(t, []string{"l.wati", "m.wati", "m2.wati", "s.wati"}, order)
}

func TestCanRunMore(t *testing.T) {
	b := newBuildTest(t)
	b.config.Force = true
	b.config.Parallelism = 2
	builder := NewBuilder(b.config, b.main.Pipeline, b.main.Log, b.status, abool.New())
	assert.Equal(t, 1, builder.CanRunMore(), "progress with nothing queued")

	for _, name := range []string{"a.wati", "b.wati", "c.wati"} {
		_, err := builder.AddJob(b.write(name, "$x"), filepath.Join(b.dir, name+".out"))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, builder.CanRunMore())
	builder.running = 2
	assert.Equal(t, 0, builder.CanRunMore())
}
