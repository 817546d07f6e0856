package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatProgressStatus(t *testing.T) {
	s := NewStatusPrinter(&BuildConfig{Verbosity: QUIET})
	job := &Job{Input: "a.wati", Output: "a.wat"}
	for i := 0; i < 4; i++ {
		s.JobAddedToPlan(job)
	}
	s.BuildStarted()
	s.BuildJobStarted(job, 0)
	s.BuildJobStarted(job, 0)
	s.BuildJobFinished(job, 0, 10, true, "")

	assert.Equal(t, "[1/4] ", s.FormatProgressStatus("[%f/%t] ", 0))
	assert.Equal(t, "2 1 2  25%", s.FormatProgressStatus("%s %r %u %p", 0))
	assert.Equal(t, "100%", s.FormatProgressStatus("100%%", 0))
	assert.Equal(t, "trailing %", s.FormatProgressStatus("trailing %", 0))
}

func TestLinePrinter(t *testing.T) {
	var out bytes.Buffer
	p := &LinePrinter{out: &out, haveBlankLine: true, width: 20}

	p.Print("[1/2] compiling a.wati", FULL)
	p.SetConsoleLocked(true)
	p.PrintOnNewLine("held back\n")
	assert.Equal(t, "[1/2] compiling a.wati\n", out.String())
	p.SetConsoleLocked(false)
	assert.Equal(t, "[1/2] compiling a.wati\nheld back\n", out.String())

	out.Reset()
	p.SetSmartTerminal(true)
	p.Print(strings.Repeat("x", 40), ELIDE)
	assert.Equal(t, "\r"+strings.Repeat("x", 8)+"..."+strings.Repeat("x", 9)+"\033[K", out.String())
}

func TestMetricsReport(t *testing.T) {
	m := NewMetrics()
	m.Record("call-flattener", 1500*time.Microsecond, 10)
	m.Record("call-flattener", 500*time.Microsecond, 6)
	m.Record("compile", 3*time.Millisecond, 0)

	var out bytes.Buffer
	m.Report(&out)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, 3)
	assert.Contains(t, lines[0], "avg (us)")
	assert.Regexp(t, `^call-flattener\s+2\s+1000\.0\s+2\.0\s+16$`, lines[1])
	assert.Regexp(t, `^compile\s+1\s+3000\.0\s+3\.0\s+0$`, lines[2])
}
