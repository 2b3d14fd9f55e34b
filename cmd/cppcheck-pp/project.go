// Copyright 2025 EngFlow Inc. All rights reserved.
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

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/mzaoui/cppcheck/settings"
)

// projectConfig is the YAML project file. Include paths may be doublestar
// globs and are expanded relative to the project file's directory.
type projectConfig struct {
	IncludePaths []string `yaml:"include_paths"`
	Defines      []string `yaml:"defines"`
	Undefines    []string `yaml:"undefines"`
	Suppressions []struct {
		ID   string `yaml:"id"`
		File string `yaml:"file"`
		Line int    `yaml:"line"`
	} `yaml:"suppressions"`
}

func loadProject(path string, set *settings.Settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cfg projectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, pattern := range cfg.IncludePaths {
		if !strings.ContainsAny(pattern, "*?[{") {
			set.IncludePaths = append(set.IncludePaths, filepath.Join(base, pattern))
			continue
		}
		matches, err := doublestar.FilepathGlob(filepath.Join(base, pattern))
		if err != nil {
			return fmt.Errorf("bad include path pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			if info, err := os.Stat(match); err == nil && info.IsDir() {
				set.IncludePaths = append(set.IncludePaths, match)
			}
		}
	}

	defines := cfg.Defines
	if set.UserDefines != "" {
		defines = append([]string{set.UserDefines}, defines...)
	}
	set.UserDefines = strings.Join(defines, ";")

	for _, name := range cfg.Undefines {
		set.UserUndefs.Add(name)
	}
	for _, suppression := range cfg.Suppressions {
		if err := set.Nomsg.Add(suppression.ID, suppression.File, suppression.Line); err != nil {
			return err
		}
	}
	return nil
}
