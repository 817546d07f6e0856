package rewrite

import (
	"strings"
	"sync"
	"time"
)

// Version identifies the rewrite rules. Bump it whenever a pass changes its
// output for some input so that cached results are invalidated.
const Version = "1"

// Pass is one total rewrite step over the whole document.
type Pass struct {
	Name  string
	Apply func(doc string) (string, error)
}

// PassStat records the cost of one pass over one document.
type PassStat struct {
	Name     string
	Duration time.Duration
	BytesIn  int
	BytesOut int
}

// Pipeline applies its passes in order, feeding each pass the previous
// pass's output and stopping at the first error.
type Pipeline struct {
	passes []Pass
}

// New returns the standard six-pass pipeline built from rules.
func New(rules *Rules) *Pipeline {
	return &Pipeline{passes: rules.Passes()}
}

// NewWithPasses returns a pipeline running exactly the given passes. It is
// mostly useful for exercising a subset of the passes.
func NewWithPasses(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// Compile runs every pass over doc. On error no partial output is returned.
func (p *Pipeline) Compile(doc string) (string, error) {
	return p.run(doc, nil)
}

// Trace is Compile, but calls observe with the buffer produced by each pass.
func (p *Pipeline) Trace(doc string, observe func(pass, out string)) (string, error) {
	return p.run(doc, func(st PassStat, out string) {
		observe(st.Name, out)
	})
}

// Measure is Compile, but also reports per-pass timing and sizes.
func (p *Pipeline) Measure(doc string) (string, []PassStat, error) {
	stats := make([]PassStat, 0, len(p.passes))
	out, err := p.run(doc, func(st PassStat, _ string) {
		stats = append(stats, st)
	})
	return out, stats, err
}

func (p *Pipeline) run(doc string, after func(PassStat, string)) (string, error) {
	for _, pass := range p.passes {
		start := time.Now()
		out, err := pass.Apply(doc)
		if err != nil {
			return "", err
		}
		if after != nil {
			after(PassStat{
				Name:     pass.Name,
				Duration: time.Since(start),
				BytesIn:  len(doc),
				BytesOut: len(out),
			}, out)
		}
		doc = out
	}
	return doc, nil
}

func (p *Pipeline) PassNames() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name
	}
	return names
}

// Fingerprint names the rules version and pass order. Two pipelines with the
// same fingerprint produce the same output for the same input.
func (p *Pipeline) Fingerprint() string {
	return "wati2wat/" + Version + ":" + strings.Join(p.PassNames(), ",")
}

var defaultPipeline = sync.OnceValue(func() *Pipeline {
	return New(NewRules())
})

// Default returns the shared standard pipeline, building it on first use.
func Default() *Pipeline {
	return defaultPipeline()
}

// Compile expands doc with the standard pipeline.
func Compile(doc string) (string, error) {
	return Default().Compile(doc)
}
