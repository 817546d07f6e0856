package main

import (
	"encoding/json"
	"fmt"
	"os"

	"wati2wat/outline"
)

// ToolPasses prints the document after every pass, so a surprising rewrite
// can be pinned on the pass that made it.
func (w *Wati2watMain) ToolPasses(options *Options, args []string) int {
	if len(args) != 1 {
		Error("usage: wati2wat -t passes FILE")
		return 1
	}
	src, err := os.ReadFile(args[0])
	if err != nil {
		Error("loading '%s': %v", args[0], err)
		return 1
	}

	fmt.Printf(";; === input ===\n%s\n", src)
	_, err = w.Pipeline.Trace(string(src), func(pass, out string) {
		fmt.Printf(";; === %s ===\n%s\n", pass, out)
	})
	if err != nil {
		Error("%s: %v", args[0], err)
		return 1
	}
	return 0
}

// fileSymbols is the outline of one file plus every name it declares.
type fileSymbols struct {
	*outline.Outline
	Names []string `json:"names"`
}

// ToolSymbols prints the outline of each file as JSON keyed by file name.
func (w *Wati2watMain) ToolSymbols(options *Options, args []string) int {
	if len(args) == 0 {
		Error("usage: wati2wat -t symbols FILE...")
		return 1
	}
	outlines := make(map[string]fileSymbols, len(args))
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			Error("loading '%s': %v", path, err)
			return 1
		}
		o := outline.Parse(string(src))
		outlines[path] = fileSymbols{Outline: o, Names: o.Identifiers()}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(outlines); err != nil {
		Error("%v", err)
		return 1
	}
	return 0
}

func (w *Wati2watMain) ToolLog(options *Options, args []string) int {
	if w.Log == nil {
		Error("compile log disabled with -d nolog")
		return 1
	}
	entries, err := w.Log.Entries()
	if err != nil {
		Error("reading compile log: %v", err)
		return 1
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\t%d ms\t%016x\n", e.Output, e.Input, e.EndMillis-e.StartMillis, e.OutputHash)
	}
	return 0
}

// ToolClean removes every output recorded in the log along with its entry.
// With -n it only prints what it would remove.
func (w *Wati2watMain) ToolClean(options *Options, args []string) int {
	if w.Log == nil {
		Error("compile log disabled with -d nolog")
		return 1
	}
	entries, err := w.Log.Entries()
	if err != nil {
		Error("reading compile log: %v", err)
		return 1
	}

	verbose := w.Config.Verbosity == VERBOSE || w.Config.DryRun
	if w.Config.Verbosity != NO_STATUS_UPDATE {
		fmt.Printf("Cleaning...")
		if verbose {
			fmt.Printf("\n")
		}
	}

	status := 0
	var removed []string
	for _, e := range entries {
		if verbose {
			fmt.Printf("Remove %s\n", e.Output)
		}
		if w.Config.DryRun {
			removed = append(removed, e.Output)
			continue
		}
		if err := os.Remove(e.Output); err != nil && !os.IsNotExist(err) {
			Error("remove(%s): %v", e.Output, err)
			status = 1
			continue
		}
		removed = append(removed, e.Output)
	}

	if !w.Config.DryRun {
		if err := w.Log.Remove(removed...); err != nil {
			Error("%v", err)
			status = 1
		}
	}
	if w.Config.Verbosity != NO_STATUS_UPDATE {
		fmt.Printf("%d files.\n", len(removed))
	}
	return status
}
