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

// Package config loads the small TOML configuration dtsflatten's CLI
// front-end reads: the external C compiler to invoke for a CPP pass,
// the flags to pass through to it, and the directories /include/
// directives are allowed to resolve against beyond the working
// directory.
package config

import (
	"fmt"
	"io/ioutil"

	"github.com/pelletier/go-toml/v2"
)

// Config is the decoded contents of a dtsflatten.toml file.
type Config struct {
	// Compiler is the external C compiler binary used to produce the
	// CPP-preprocessed intermediate. Defaults to "cc".
	Compiler string `toml:"compiler"`
	// CompilerFlags are passed through verbatim to Compiler (e.g.
	// "-D"/"-I" flags controlling macro definitions and system header
	// search paths).
	CompilerFlags []string `toml:"compiler_flags"`
	// IncludeSearchDirs are tried, in order, when a /include/ path is
	// not found relative to the working directory.
	IncludeSearchDirs []string `toml:"include_search_dirs"`
}

// Default returns the configuration used when no config file is
// present.
func Default() Config {
	return Config{Compiler: "cc"}
}

// Load reads and decodes the TOML config at path. A missing Compiler
// field is filled in with the default ("cc").
func Load(path string) (Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.Compiler == "" {
		cfg.Compiler = "cc"
	}
	return cfg, nil
}
