package main

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ahrtr/gocontainer/queue/priorityqueue"
	"github.com/ahrtr/gocontainer/set"
	"github.com/davecgh/go-spew/spew"
	"github.com/edwingeng/deque"
	"github.com/pkg/errors"
	"github.com/tevino/abool/v2"

	"wati2wat/rewrite"
)

// Job compiles one input to one output.
type Job struct {
	Input  string
	Output string
	Size   int64
}

func (j *Job) Description() string {
	return "compiling " + j.Input
}

func (j *Job) Command() string {
	return "wati2wat -o " + j.Output + " " + j.Input
}

// Result is what a worker hands back to the build loop.
type Result struct {
	Job         *Job
	Err         error
	InputHash   string
	OutputHash  uint64
	Stats       []rewrite.PassStat
	StartMillis int64
	EndMillis   int64
}

// JobCmp orders the ready queue largest input first, so the long compiles
// start early. Ties keep the order inputs were given in.
type JobCmp struct {
	order map[*Job]int
}

func (c *JobCmp) Compare(v1, v2 interface{}) (int, error) {
	a, b := v1.(*Job), v2.(*Job)
	if a.Size != b.Size {
		if a.Size > b.Size {
			return -1, nil
		}
		return 1, nil
	}
	return c.order[a] - c.order[b], nil
}

// Builder runs compile jobs on up to config.Parallelism goroutines.
type Builder struct {
	config   *BuildConfig
	pipeline *rewrite.Pipeline
	log      *CompileLog
	status   Status

	fingerprint uint64

	ready   priorityqueue.Interface
	cmp     *JobCmp
	inputs  set.Interface
	outputs set.Interface

	// Results waiting for the build loop. Guarded by mu.
	mu       sync.Mutex
	finished deque.Deque
	wake     chan struct{}
	running  int

	interrupted *abool.AtomicBool

	built []*Job
}

func NewBuilder(config *BuildConfig, pipeline *rewrite.Pipeline, log *CompileLog,
	status Status, interrupted *abool.AtomicBool) *Builder {
	cmp := &JobCmp{order: make(map[*Job]int)}
	return &Builder{
		config:      config,
		pipeline:    pipeline,
		log:         log,
		status:      status,
		fingerprint: FingerprintHash(pipeline.Fingerprint()),
		ready:       priorityqueue.New().WithComparator(cmp),
		cmp:         cmp,
		inputs:      set.New(),
		outputs:     set.New(),
		finished:    deque.NewDeque(),
		interrupted: interrupted,
	}
}

// AddJob queues input for compilation to output. It returns false, with a
// nil error, when output is already up to date or the input was already
// added.
func (b *Builder) AddJob(input, output string) (bool, error) {
	if output == "" {
		return false, errors.Errorf("cannot derive an output name for '%s'", input)
	}
	input, output = filepath.Clean(input), filepath.Clean(output)
	if b.inputs.Contains(input) {
		return false, nil
	}
	if input == output {
		return false, errors.Errorf("'%s' would overwrite its own input", input)
	}
	if b.outputs.Contains(output) {
		return false, errors.Errorf("multiple inputs compile to '%s'", output)
	}

	info, err := os.Stat(input)
	if err != nil {
		return false, errors.Wrapf(err, "loading '%s'", input)
	}
	if info.IsDir() {
		return false, errors.Errorf("loading '%s': is a directory", input)
	}
	b.inputs.Add(input)
	b.outputs.Add(output)

	job := &Job{Input: input, Output: output, Size: info.Size()}
	dirty, err := b.isDirty(job)
	if err != nil {
		return false, err
	}
	if !dirty {
		return false, nil
	}
	b.cmp.order[job] = len(b.cmp.order)
	b.ready.Add(job)
	b.status.JobAddedToPlan(job)
	return true, nil
}

// isDirty consults the compile log to decide whether job must run.
func (b *Builder) isDirty(job *Job) (bool, error) {
	if b.config.Force {
		Explain(job.Output, "recompiling, forced with -f")
		return true, nil
	}
	if b.log == nil {
		Explain(job.Output, "recompiling, compile log disabled")
		return true, nil
	}

	outData, err := os.ReadFile(job.Output)
	if os.IsNotExist(err) {
		Explain(job.Output, "output doesn't exist")
		return true, nil
	} else if err != nil {
		return false, errors.Wrapf(err, "reading '%s'", job.Output)
	}

	entry, err := b.log.Lookup(job.Output)
	if err != nil {
		return false, err
	}
	if entry == nil {
		Explain(job.Output, "no compile log entry for output")
		return true, nil
	}
	if entry.Input != job.Input {
		Explain(job.Output, "output was last compiled from '%s'", entry.Input)
		return true, nil
	}
	if entry.Fingerprint != b.fingerprint {
		Explain(job.Output, "rewrite rules changed (%016x vs %016x)", entry.Fingerprint, b.fingerprint)
		return true, nil
	}
	inputHash, err := HashFile(job.Input)
	if err != nil {
		return false, errors.Wrapf(err, "hashing '%s'", job.Input)
	}
	if entry.InputHash != inputHash {
		Explain(job.Output, "input '%s' changed", job.Input)
		return true, nil
	}
	if rapidhash(outData) != entry.OutputHash {
		Explain(job.Output, "output was modified after it was written")
		return true, nil
	}
	return false, nil
}

func (b *Builder) AlreadyUpToDate() bool {
	return b.ready.IsEmpty()
}

// CanRunMore returns how many more jobs may start now.
func (b *Builder) CanRunMore() int {
	capacity := float64(b.config.Parallelism - b.running)

	if b.config.MaxLoadAverage > 0.0 {
		loadCapacity := b.config.MaxLoadAverage - GetLoadAverage()
		if loadCapacity < capacity {
			capacity = loadCapacity
		}
	}

	if queued := float64(b.ready.Size()); capacity > queued {
		capacity = queued
	}

	n := 0
	if capacity >= 1 {
		n = int(capacity)
	}
	if n == 0 && b.running == 0 {
		// Ensure that we make progress.
		n = 1
	}
	return n
}

// Build runs every queued job. It returns the number of failed jobs, or an
// error if the build was interrupted.
func (b *Builder) Build() (int, error) {
	b.status.BuildStarted()
	defer b.status.BuildFinished()

	b.wake = make(chan struct{}, b.ready.Size())
	failures := 0
	for {
		for !b.ready.IsEmpty() && !b.interrupted.IsSet() {
			n := b.CanRunMore()
			if n == 0 {
				break
			}
			for ; n > 0 && !b.ready.IsEmpty(); n-- {
				b.startJob(b.ready.Poll().(*Job))
			}
		}
		if b.running == 0 {
			break
		}

		select {
		case <-b.wake:
		case <-time.After(time.Second):
			// re-check the load average
		}
		for _, r := range b.drainFinished() {
			if !b.finishJob(r) {
				failures++
			}
		}
	}

	if b.interrupted.IsSet() {
		return failures, errors.New("interrupted by user")
	}
	return failures, nil
}

func (b *Builder) startJob(job *Job) {
	start := GetTimeMillis()
	b.running++
	b.status.BuildJobStarted(job, start)
	go func() {
		r := b.compile(job)
		r.StartMillis = start
		r.EndMillis = GetTimeMillis()
		b.mu.Lock()
		b.finished.PushBack(r)
		b.mu.Unlock()
		b.wake <- struct{}{}
	}()
}

func (b *Builder) drainFinished() []*Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	var results []*Result
	for !b.finished.Empty() {
		results = append(results, b.finished.PopFront().(*Result))
	}
	return results
}

// compile runs on a worker goroutine.
func (b *Builder) compile(job *Job) *Result {
	r := &Result{Job: job}
	src, err := os.ReadFile(job.Input)
	if err != nil {
		r.Err = errors.Wrapf(err, "loading '%s'", job.Input)
		return r
	}
	r.InputHash = HashSource(src)

	out, stats, err := b.pipeline.Measure(string(src))
	r.Stats = stats
	if err != nil {
		r.Err = errors.Wrap(err, job.Input)
		return r
	}
	r.OutputHash = rapidhash([]byte(out))

	if b.config.DryRun {
		return r
	}
	if dir := filepath.Dir(job.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			r.Err = errors.Wrapf(err, "creating directory for '%s'", job.Output)
			return r
		}
	}
	if err := os.WriteFile(job.Output, []byte(out), 0o644); err != nil {
		r.Err = errors.Wrapf(err, "writing '%s'", job.Output)
	}
	return r
}

// finishJob reports r and records it in the compile log. Returns false if
// the job failed.
func (b *Builder) finishJob(r *Result) bool {
	b.running--
	if GMetrics != nil {
		for _, st := range r.Stats {
			GMetrics.Record(st.Name, st.Duration, st.BytesOut)
		}
		GMetrics.Record("compile", time.Duration(r.EndMillis-r.StartMillis)*time.Millisecond, 0)
	}

	if r.Err != nil {
		b.status.BuildJobFinished(r.Job, r.StartMillis, r.EndMillis, false, r.Err.Error())
		return false
	}
	b.status.BuildJobFinished(r.Job, r.StartMillis, r.EndMillis, true, "")
	b.built = append(b.built, r.Job)

	if b.config.DryRun || b.log == nil {
		return true
	}
	entry := &LogEntry{
		Output:      r.Job.Output,
		Input:       r.Job.Input,
		InputHash:   r.InputHash,
		Fingerprint: b.fingerprint,
		OutputHash:  r.OutputHash,
		StartMillis: r.StartMillis,
		EndMillis:   r.EndMillis,
	}
	if gDumping {
		spew.Fdump(os.Stderr, entry)
	}
	if err := b.log.Record(entry); err != nil {
		b.status.Warning("%v", err)
	}
	return true
}

// Built returns the jobs that finished successfully, in completion order.
func (b *Builder) Built() []*Job {
	return b.built
}

// RunBuild compiles options.Inputs. Returns the exit code.
func (w *Wati2watMain) RunBuild(options *Options, status Status, interrupted *abool.AtomicBool) int {
	if len(options.Inputs) == 0 {
		status.Error("no input files")
		return int(ExitFailure)
	}
	if options.OutputFile != "" && len(options.Inputs) > 1 {
		status.Error("-o cannot be used with multiple inputs")
		return int(ExitFailure)
	}

	builder := NewBuilder(w.Config, w.Pipeline, w.Log, status, interrupted)
	for _, input := range options.Inputs {
		output := options.OutputFile
		if output == "" {
			output = DefaultOutputPath(input)
		}
		if _, err := builder.AddJob(input, output); err != nil {
			status.Error("%v", err)
			return int(ExitFailure)
		}
	}

	if builder.AlreadyUpToDate() {
		if w.Config.Verbosity != NO_STATUS_UPDATE {
			status.Info("no work to do.")
		}
		return int(ExitSuccess)
	}

	failures, err := builder.Build()
	if GMetrics != nil {
		GMetrics.Report(os.Stdout)
	}
	if err != nil {
		status.Info("build stopped: %v.", err)
		return int(ExitInterrupted)
	}
	if failures > 0 {
		status.Info("build stopped: %d input(s) failed.", failures)
		return int(ExitFailure)
	}

	if !w.Config.DryRun && w.Config.Verbosity != NO_STATUS_UPDATE && w.Config.Verbosity != QUIET {
		for _, job := range builder.Built() {
			Success("Compiled successfully and wrote to %q", job.Output)
		}
	}
	return int(ExitSuccess)
}
