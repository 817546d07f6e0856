package main

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"wati2wat/rewrite"
)

type Verbosity int8

const (
	QUIET            Verbosity = iota // No output -- used when testing.
	NO_STATUS_UPDATE                  // just regular output but suppress status update
	NORMAL                            // regular output and status update
	VERBOSE
)

type BuildConfig struct {
	Verbosity      Verbosity
	DryRun         bool
	Force          bool
	Parallelism    int
	MaxLoadAverage float64
}

func NewBuildConfig() *BuildConfig {
	return &BuildConfig{Verbosity: NORMAL, Parallelism: 1}
}

// Command-line options.
type Options struct {
	// Inputs in the order given, options may be interleaved with them.
	Inputs []string

	// Output file, only valid with a single input.
	OutputFile string

	// Directory to change into before running.
	WorkingDir string

	// Path of the compile log.
	LogPath string

	// Tool to run rather than compiling.
	Tool *Tool

	// Arguments following the tool name.
	ToolArgs []string
}

type When int8

const (
	// Run after parsing the command-line flags and potentially changing
	// the current working directory (as early as possible).
	RUN_AFTER_FLAGS When = 0

	// Run after opening the compile log.
	RUN_AFTER_LOG When = 1
)

// ToolFunc is the entry point of a subtool. It returns the exit code.
type ToolFunc func(*Wati2watMain, *Options, []string) int

// Subtools, accessible via "-t foo".
type Tool struct {
	// Short name of the tool.
	Name string

	// Description (shown in "-t list").
	Desc string

	// When to run the tool.
	When When

	// Implementation of the tool.
	Func ToolFunc
}

// Wati2watMain holds the state shared by a build and the tools.
type Wati2watMain struct {
	Config   *BuildConfig
	Pipeline *rewrite.Pipeline
	LogPath  string
	Log      *CompileLog

	StartTimeMillis int64
}

func NewWati2watMain(config *BuildConfig, logPath string) *Wati2watMain {
	return &Wati2watMain{
		Config:          config,
		Pipeline:        rewrite.Default(),
		LogPath:         logPath,
		StartTimeMillis: GetTimeMillis(),
	}
}

func (w *Wati2watMain) OpenCompileLog() bool {
	if gNoLog {
		return true
	}
	log, err := OpenCompileLog(w.LogPath)
	if err != nil {
		Error("%v", err)
		return false
	}
	w.Log = log
	return true
}

func (w *Wati2watMain) Release() {
	if w.Log != nil {
		if err := w.Log.Close(); err != nil {
			Warning("closing compile log: %v", err)
		}
		w.Log = nil
	}
}

// Choose a default value for the -j (parallelism) flag.
func GuessParallelism() int {
	switch processors := GetProcessorCount(); processors {
	case 0, 1:
		return 2
	case 2:
		return 3
	default:
		return processors + 2
	}
}

const kOptString = "o:j:l:C:L:fnvqd:t:Vh"

// ReadFlags parses argv, including argv[0], into options and config.
// Returns an exit code, or -1 if wati2wat should continue.
func ReadFlags(args []string, options *Options, config *BuildConfig) int {
	needGuess := true
	defer func() {
		if needGuess {
			config.Parallelism = GuessParallelism()
		}
	}()

	argv0, rest := args[0], args[1:]
	for {
		argv := append([]string{argv0}, rest...)
		opts, optind, err := getopt.Getopts(argv, kOptString)
		if err != nil {
			Error("%v", err)
			return 1
		}
		rest = argv[optind:]

		for _, optV := range opts {
			optarg := optV.Value
			switch optV.Option {
			case 'o':
				options.OutputFile = optarg
			case 'j':
				value, err := strconv.Atoi(optarg)
				if err != nil || value < 0 {
					Error("invalid -j parameter")
					return 1
				}
				// We want to run N jobs in parallel. For N = 0, INT_MAX
				// is close enough to infinite.
				if value > 0 {
					config.Parallelism = value
				} else {
					config.Parallelism = math.MaxInt
				}
				needGuess = false
			case 'l':
				value, err := strconv.ParseFloat(optarg, 64)
				if err != nil {
					Error("-l parameter not numeric: did you mean -l 0.0?")
					return 1
				}
				config.MaxLoadAverage = value
			case 'C':
				options.WorkingDir = optarg
			case 'L':
				options.LogPath = optarg
			case 'f':
				config.Force = true
			case 'n':
				config.DryRun = true
			case 'v':
				config.Verbosity = VERBOSE
			case 'q':
				config.Verbosity = NO_STATUS_UPDATE
			case 'd':
				if code := DebugEnable(optarg); code >= 0 {
					return code
				}
			case 't':
				tool, ok := ChooseTool(optarg)
				if tool == nil {
					if ok {
						return 0
					}
					return 1
				}
				options.Tool = tool
			case 'V':
				fmt.Printf("%s\n", kWati2watVersion)
				return 0
			default: // case 'h':
				needGuess = false
				config.Parallelism = GuessParallelism()
				UsageMain(config)
				return 1
			}
		}

		// -t terminates toplevel options; the rest belongs to the tool.
		if options.Tool != nil {
			options.ToolArgs = rest
			return -1
		}
		if len(rest) == 0 {
			return -1
		}
		if optind > 1 && argv[optind-1] == "--" {
			options.Inputs = append(options.Inputs, rest...)
			return -1
		}
		options.Inputs = append(options.Inputs, rest[0])
		rest = rest[1:]
	}
}

// Print usage information.
func UsageMain(config *BuildConfig) {
	fmt.Fprintf(os.Stderr,
		"usage: wati2wat [options] inputs...\n"+
			"\n"+
			"compiles each input.wati to input.wat, skipping outputs that are up to date.\n"+
			"\n"+
			"options:\n"+
			"  -V       print wati2wat version (\"%s\")\n"+
			"  -v       show full command lines while compiling\n"+
			"  -q       don't show progress status, just errors\n"+
			"\n"+
			"  -o FILE  write the output to FILE (single input only)\n"+
			"  -C DIR   change to DIR before doing anything else\n"+
			"  -L FILE  compile log path [default=.wati2wat_log]\n"+
			"\n"+
			"  -j N     compile N inputs in parallel (0 means infinity) [default=%d on this system]\n"+
			"  -l N     do not start new jobs if the load average is greater than N\n"+
			"  -f       recompile even if outputs are up to date\n"+
			"  -n       dry run (compile but don't write outputs or the log)\n"+
			"\n"+
			"  -d MODE  enable debugging (use '-d list' to list modes)\n"+
			"  -t TOOL  run a subtool (use '-t list' to list subtools)\n"+
			"    terminates toplevel options; further arguments are passed to the tool\n",
		kWati2watVersion, config.Parallelism)
}

var kTools = []Tool{
	{"passes", "print the document after each rewrite pass",
		RUN_AFTER_FLAGS, (*Wati2watMain).ToolPasses},
	{"symbols", "print the declared identifiers of inputs as JSON",
		RUN_AFTER_FLAGS, (*Wati2watMain).ToolSymbols},
	{"log", "show the outputs recorded in the compile log",
		RUN_AFTER_LOG, (*Wati2watMain).ToolLog},
	{"clean", "remove outputs recorded in the compile log",
		RUN_AFTER_LOG, (*Wati2watMain).ToolClean},
}

// ChooseTool finds the tool called name. For "list" it prints the tools and
// returns nil, true; for an unknown name it reports the error and returns
// nil, false.
func ChooseTool(name string) (*Tool, bool) {
	if name == "list" {
		fmt.Printf("wati2wat subtools:\n")
		for _, tool := range kTools {
			fmt.Printf("%11s  %s\n", tool.Name, tool.Desc)
		}
		return nil, true
	}

	words := make([]string, 0, len(kTools))
	for i := range kTools {
		if kTools[i].Name == name {
			return &kTools[i], true
		}
		words = append(words, kTools[i].Name)
	}

	if suggestion := SpellcheckString(name, words...); suggestion != "" {
		Error("unknown tool '%s', did you mean '%s'?", name, suggestion)
	} else {
		Error("unknown tool '%s'", name)
	}
	return nil, false
}

var (
	gExplaining = false
	gDumping    = false
	gNoLog      = false
)

// DebugEnable enables a debugging mode. Returns an exit code, or -1 if
// wati2wat should continue.
func DebugEnable(name string) int {
	switch name {
	case "list":
		fmt.Printf("debugging modes:\n" +
			"  stats    print per-pass counts/timing info\n" +
			"  explain  explain what caused an input to be recompiled\n" +
			"  dump     dump options and compile log records\n" +
			"  nolog    don't read or write the compile log\n" +
			"multiple modes can be enabled via -d FOO -d BAR\n")
		return 0
	case "stats":
		GMetrics = NewMetrics()
	case "explain":
		gExplaining = true
	case "dump":
		gDumping = true
	case "nolog":
		gNoLog = true
	default:
		if suggestion := SpellcheckString(name, "stats", "explain", "dump", "nolog"); suggestion != "" {
			Error("unknown debug setting '%s', did you mean '%s'?", name, suggestion)
		} else {
			Error("unknown debug setting '%s'", name)
		}
		return 1
	}
	return -1
}

const kMaxValidEditDistance = 3

// SpellcheckString returns the word closest to text within a small edit
// distance, falling back to the best fuzzy match, or "" if nothing is
// close.
func SpellcheckString(text string, words ...string) string {
	minDistance := kMaxValidEditDistance + 1
	result := ""
	for _, word := range words {
		if d := fuzzy.LevenshteinDistance(text, word); d < minDistance {
			minDistance = d
			result = word
		}
	}
	if result != "" {
		return result
	}

	ranks := fuzzy.RankFindFold(text, words)
	if len(ranks) == 0 {
		return ""
	}
	sort.Sort(ranks)
	return ranks[0].Target
}
