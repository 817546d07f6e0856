package main

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen)
)

// explainLog carries -d explain output and verbose diagnostics.
var explainLog = logrus.New()

func init() {
	explainLog.SetOutput(os.Stderr)
	explainLog.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
}

func Error(msg string, ap ...interface{}) {
	fmt.Fprint(os.Stderr, "wati2wat: "+errorColor.Sprint("error: "))
	fmt.Fprintf(os.Stderr, msg, ap...)
	fmt.Fprint(os.Stderr, "\n")
}

func Info(msg string, ap ...interface{}) {
	fmt.Fprint(os.Stdout, "wati2wat: ")
	fmt.Fprintf(os.Stdout, msg, ap...)
	fmt.Fprint(os.Stdout, "\n")
}

func Warning(msg string, ap ...interface{}) {
	fmt.Fprint(os.Stderr, "wati2wat: "+warningColor.Sprint("warning: "))
	fmt.Fprintf(os.Stderr, msg, ap...)
	fmt.Fprint(os.Stderr, "\n")
}

func Success(msg string, ap ...interface{}) {
	fmt.Fprintln(os.Stdout, successColor.Sprintf(msg, ap...))
}

// Explain records why an output is about to be recompiled.
func Explain(output, reason string, args ...interface{}) {
	if !gExplaining {
		return
	}
	explainLog.WithField("output", output).Infof(reason, args...)
}

// DefaultOutputPath derives the output name by dropping the last character
// of the input, so "main.wati" becomes "main.wat".
func DefaultOutputPath(input string) string {
	if input == "" {
		return ""
	}
	return input[:len(input)-1]
}

func GetProcessorCount() int {
	return runtime.NumCPU()
}

// StripAnsiEscapeCodes removes CSI sequences, for output going to a
// terminal that cannot render them.
func StripAnsiEscapeCodes(in string) string {
	if !strings.ContainsRune(in, '\x1b') {
		return in
	}
	var b strings.Builder
	for i := 0; i < len(in); i++ {
		if in[i] != '\x1b' {
			b.WriteByte(in[i])
			continue
		}
		// Only strip CSIs for now.
		if i+1 >= len(in) || in[i+1] != '[' {
			continue
		}
		i += 2
		for i < len(in) && !(in[i] >= '@' && in[i] <= '~') {
			i++
		}
	}
	return b.String()
}
