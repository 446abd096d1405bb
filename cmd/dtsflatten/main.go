// Copyright 2026 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// dtsflatten flattens a DTS file tree into a single buffer with a
// source map, optionally emitting a ninja-compatible depfile and
// watching the source tree for changes.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/google/blueprint/deptools"
	"github.com/google/blueprint/pathtools"
	"github.com/gonum/stat"
	"github.com/hashicorp/logutils"

	"android/dtsflatten/include"
	"android/dtsflatten/internal/config"
)

func main() {
	verbose := flag.Bool("v", false, "print per-bound diagnostic output")
	debug := flag.Bool("d", false, "print debugging output")
	configPath := flag.String("config", "", "path to a dtsflatten.toml config file")
	outPath := flag.String("o", "", "write the flattened buffer to this path instead of stdout")
	depPath := flag.String("dep", "", "write a ninja-compatible depfile listing every file that contributed to the output")
	watch := flag.Bool("watch", false, "re-run whenever a contributing file changes")
	flag.Parse()

	filter := &logutils.LevelFilter{
		Levels:   []logutils.LogLevel{"DEBUG", "INFO", "WARN", "ERROR"},
		MinLevel: logutils.LogLevel("WARN"),
		Writer:   os.Stderr,
	}
	switch {
	case *debug:
		filter.MinLevel = logutils.LogLevel("DEBUG")
	case *verbose:
		filter.MinLevel = logutils.LogLevel("INFO")
	}
	log.SetOutput(filter)

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: dtsflatten [flags] <root.dts>")
		os.Exit(2)
	}
	root := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Printf("[ERROR] %s", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := run(root, cfg, *outPath, *depPath, *verbose); err != nil {
		log.Printf("[ERROR] %s", err)
		os.Exit(1)
	}

	if *watch {
		watchAndRerun(root, cfg, *outPath, *depPath, *verbose)
	}
}

func run(root string, cfg config.Config, outPath, depPath string, verbose bool) error {
	opts := []include.Option{include.WithIncludeDirs(cfg.IncludeSearchDirs)}

	buf, bounds, err := include.Flatten(root, opts...)
	if err != nil {
		return fmt.Errorf("flattening %s: %w", root, err)
	}

	if verbose {
		logBoundDiagnostics(bounds)
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating %s: %w", outPath, err)
		}
		defer f.Close()
		out = f
	}
	if _, err := out.Write(buf); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if depPath != "" {
		if err := writeDepFile(depPath, outPath, bounds); err != nil {
			return err
		}
	}

	return nil
}

// logBoundDiagnostics logs one informational line per bound and
// summary statistics over the produced bound lengths, the visibility
// the original only had in ad hoc debug prints.
func logBoundDiagnostics(bounds []include.Bound) {
	lens := make([]float64, len(bounds))
	for i, b := range bounds {
		lens[i] = float64(b.Len)
		log.Printf("[INFO] bound %s entered via %s len=%d", b.Path, b.Method, b.Len)
	}
	mean, std := stat.MeanStdDev(lens, nil)
	log.Printf("[INFO] %d bounds, mean len %.1f, stddev %.1f", len(bounds), mean, std)
}

// writeDepFile records every distinct source path that contributed a
// Bound, the Go-idiomatic equivalent of the out-of-scope original CLI
// hooking dtsflatten's output into an outer ninja build graph.
func writeDepFile(depPath, outputFile string, bounds []include.Bound) error {
	seen := map[string]bool{}
	var deps []string
	for _, b := range bounds {
		if !seen[b.Path] {
			seen[b.Path] = true
			deps = append(deps, b.Path)
		}
	}
	if outputFile == "" {
		outputFile = "-"
	}
	if err := deptools.WriteDepFile(depPath, outputFile, deps); err != nil {
		return fmt.Errorf("writing depfile %s: %w", depPath, err)
	}
	return nil
}

// watchAndRerun re-flattens root whenever a file named by the
// previous run's bounds changes. The core stays synchronous and
// never blocks waiting on I/O of its own; this is just a loop
// around it.
func watchAndRerun(root string, cfg config.Config, outPath, depPath string, verbose bool) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("[ERROR] starting watcher: %s", err)
		return
	}
	defer watcher.Close()

	watched := map[string]bool{}
	addWatches := func() {
		fs := pathtools.NewOsFs(".")
		_, bounds, err := include.Flatten(root, include.WithFileSystem(fs), include.WithIncludeDirs(cfg.IncludeSearchDirs))
		if err != nil {
			log.Printf("[WARN] could not determine watch set: %s", err)
			return
		}
		for _, b := range bounds {
			if watched[b.Path] {
				continue
			}
			if err := watcher.Add(b.Path); err != nil {
				log.Printf("[WARN] could not watch %s: %s", b.Path, err)
				continue
			}
			watched[b.Path] = true
		}
	}
	addWatches()

	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		log.Printf("[INFO] %s changed, re-flattening", event.Name)
		if err := run(root, cfg, outPath, depPath, verbose); err != nil {
			log.Printf("[ERROR] %s", err)
			continue
		}
		addWatches()
	}
}
