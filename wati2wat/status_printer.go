package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Status is the interface that collects information about a build and
// prints it to the user.
type Status interface {
	JobAddedToPlan(job *Job)
	BuildJobStarted(job *Job, startTimeMillis int64)
	BuildJobFinished(job *Job, startTimeMillis, endTimeMillis int64, success bool, output string)
	BuildStarted()
	BuildFinished()

	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

func Statusfactory(config *BuildConfig) Status {
	return NewStatusPrinter(config)
}

// StatusPrinter implements Status by printing progress lines through a
// LinePrinter.
type StatusPrinter struct {
	config *BuildConfig

	startedJobs  int
	finishedJobs int
	totalJobs    int
	runningJobs  int

	// How much wall clock elapsed so far?
	timeMillis  int64
	startMillis int64

	printer *LinePrinter

	// The custom progress status format to use.
	progressStatusFormat string
}

func NewStatusPrinter(config *BuildConfig) *StatusPrinter {
	s := &StatusPrinter{config: config, printer: NewLinePrinter()}
	// Don't do anything fancy in verbose mode.
	if config.Verbosity != NORMAL {
		s.printer.SetSmartTerminal(false)
	}
	s.progressStatusFormat = os.Getenv("WATI2WAT_STATUS")
	if s.progressStatusFormat == "" {
		s.progressStatusFormat = "[%f/%t] "
	}
	return s
}

func (s *StatusPrinter) JobAddedToPlan(job *Job) {
	s.totalJobs++
}

func (s *StatusPrinter) BuildJobStarted(job *Job, startTimeMillis int64) {
	s.startedJobs++
	s.runningJobs++
	s.timeMillis = startTimeMillis
	if s.printer.IsSmartTerminal() {
		s.PrintStatus(job, startTimeMillis)
	}
}

func (s *StatusPrinter) BuildJobFinished(job *Job, startTimeMillis, endTimeMillis int64, success bool, output string) {
	s.timeMillis = endTimeMillis
	s.finishedJobs++
	s.runningJobs--

	if s.config.Verbosity == QUIET {
		return
	}
	s.PrintStatus(job, endTimeMillis)

	if !success {
		s.printer.PrintOnNewLine(errorColor.Sprint("FAILED: ") + job.Output + "\n")
	}
	if output != "" {
		if !s.printer.SupportsColor() {
			output = StripAnsiEscapeCodes(output)
		}
		if !strings.HasSuffix(output, "\n") {
			output += "\n"
		}
		s.printer.PrintOnNewLine(output)
	}
}

func (s *StatusPrinter) BuildStarted() {
	s.startedJobs = 0
	s.finishedJobs = 0
	s.runningJobs = 0
	s.startMillis = GetTimeMillis()
}

func (s *StatusPrinter) BuildFinished() {
	s.printer.SetConsoleLocked(false)
	s.printer.PrintOnNewLine("")
}

func (s *StatusPrinter) Info(msg string, args ...interface{}) {
	Info(msg, args...)
}

func (s *StatusPrinter) Warning(msg string, args ...interface{}) {
	Warning(msg, args...)
}

func (s *StatusPrinter) Error(msg string, args ...interface{}) {
	Error(msg, args...)
}

// FormatProgressStatus expands the placeholders of $WATI2WAT_STATUS:
//
//	%s started  %t total  %r running  %u unstarted  %f finished
//	%p percentage finished  %e elapsed seconds  %% a plain %
func (s *StatusPrinter) FormatProgressStatus(format string, timeMillis int64) string {
	var out strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			out.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case '%':
			out.WriteByte('%')
		case 's':
			out.WriteString(strconv.Itoa(s.startedJobs))
		case 't':
			out.WriteString(strconv.Itoa(s.totalJobs))
		case 'r':
			out.WriteString(strconv.Itoa(s.runningJobs))
		case 'u':
			out.WriteString(strconv.Itoa(s.totalJobs - s.startedJobs))
		case 'f':
			out.WriteString(strconv.Itoa(s.finishedJobs))
		case 'p':
			percent := 0
			if s.finishedJobs != 0 && s.totalJobs != 0 {
				percent = (100 * s.finishedJobs) / s.totalJobs
			}
			fmt.Fprintf(&out, "%3d%%", percent)
		case 'e':
			fmt.Fprintf(&out, "%.3f", float64(timeMillis-s.startMillis)/1e3)
		default:
			Warning("unknown placeholder '%%%c' in $WATI2WAT_STATUS", format[i])
			out.WriteByte('%')
			out.WriteByte(format[i])
		}
	}
	return out.String()
}

func (s *StatusPrinter) PrintStatus(job *Job, timeMillis int64) {
	if s.config.Verbosity == QUIET || s.config.Verbosity == NO_STATUS_UPDATE {
		return
	}

	forceFullCommand := s.config.Verbosity == VERBOSE
	toPrint := job.Description()
	if forceFullCommand {
		toPrint = job.Command()
	}

	toPrint = s.FormatProgressStatus(s.progressStatusFormat, timeMillis) + toPrint
	if forceFullCommand {
		s.printer.Print(toPrint, FULL)
	} else {
		s.printer.Print(toPrint, ELIDE)
	}
}
