package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/tevino/abool/v2"
)

// TerminateHandler marks the build interrupted on the first signal. Jobs
// already running finish; nothing new starts.
func TerminateHandler(interrupted *abool.AtomicBool) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	s := <-quit
	explainLog.WithField("signal", s.String()).Debug("terminate handler called")
	interrupted.Set()
}

func real_main(args []string, interrupted *abool.AtomicBool) int {
	config := NewBuildConfig()
	options := Options{LogPath: ".wati2wat_log"}

	if exitCode := ReadFlags(args, &options, config); exitCode >= 0 {
		return exitCode
	}
	if config.Verbosity == VERBOSE {
		explainLog.SetLevel(logrus.DebugLevel)
	}
	if gDumping {
		spew.Fdump(os.Stderr, options, config)
	}

	status := Statusfactory(config)

	if options.WorkingDir != "" {
		// The formatting of this string, complete with funny quotes, is
		// so Emacs can properly identify that the cwd has changed for
		// subsequent commands.
		// Don't print this if a tool is being used, so that tool output
		// can be piped into a file without this string showing up.
		if options.Tool == nil && config.Verbosity != NO_STATUS_UPDATE {
			status.Info("Entering directory `%s'", options.WorkingDir)
		}
		if err := os.Chdir(options.WorkingDir); err != nil {
			status.Error("chdir to '%s' - %v", options.WorkingDir, err)
			return int(ExitFailure)
		}
	}

	w := NewWati2watMain(config, options.LogPath)
	defer w.Release()

	if options.Tool != nil && options.Tool.When == RUN_AFTER_FLAGS {
		return options.Tool.Func(w, &options, options.ToolArgs)
	}

	if !w.OpenCompileLog() {
		return int(ExitFailure)
	}

	if options.Tool != nil && options.Tool.When == RUN_AFTER_LOG {
		return options.Tool.Func(w, &options, options.ToolArgs)
	}

	return w.RunBuild(&options, status, interrupted)
}

func main() {
	interrupted := abool.NewBool(false)
	go TerminateHandler(interrupted)
	os.Exit(real_main(os.Args, interrupted))
}
