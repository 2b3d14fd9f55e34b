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

// cppcheck-pp runs the preprocessor standalone: it prints the enumerated
// configurations of a source file, or the preprocessed text of each
// configuration.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mzaoui/cppcheck/errorlogger"
	"github.com/mzaoui/cppcheck/preprocessor"
	"github.com/mzaoui/cppcheck/settings"
)

var (
	includePaths  []string
	defineFlags   []string
	undefineFlags []string
	projectFile   string
	listConfigs   bool
	errorList     bool
	inlineSuppr   bool
	debugWarnings bool
)

// consoleLogger prints diagnostics in the familiar "file:line: severity: id:
// text" form.
type consoleLogger struct{}

func (consoleLogger) ReportErr(msg errorlogger.Message) {
	location := ""
	if len(msg.Locations) > 0 {
		location = msg.Locations[0].String() + ": "
	}
	fmt.Fprintf(os.Stderr, "%s%s: %s: %s\n", location, msg.Severity, msg.ID, msg.Text)
}

func (consoleLogger) ReportProgress(filename, stage string, value int) {}

func buildSettings() (*settings.Settings, error) {
	set := settings.New()
	set.InlineSuppressions = inlineSuppr
	set.DebugWarnings = debugWarnings
	set.IncludePaths = includePaths
	set.UserDefines = strings.Join(defineFlags, ";")
	for _, name := range undefineFlags {
		set.UserUndefs.Add(name)
	}

	if projectFile != "" {
		if err := loadProject(projectFile, set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func runFile(set *settings.Settings, filename string, out *os.File) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	pp := preprocessor.New(set, consoleLogger{})
	if listConfigs {
		_, configs := pp.PreprocessText(f, filename, set.IncludePaths)
		for _, cfg := range configs {
			fmt.Fprintf(out, "%q\n", cfg)
		}
		return nil
	}

	result := pp.Preprocess(f, filename, set.IncludePaths)
	for cfg, text := range result {
		fmt.Fprintf(out, "### configuration %q\n%s", cfg, text)
	}
	if pp.MissingInclude() {
		fmt.Fprintln(os.Stderr, "note: some include files could not be found")
	}
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "cppcheck-pp [flags] file...",
		Short: "Preprocess C/C++ sources, one output per #ifdef configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if errorList {
				preprocessor.GetErrorMessages(consoleLogger{}, settings.New())
				return nil
			}
			if len(args) == 0 {
				return fmt.Errorf("no input files")
			}
			set, err := buildSettings()
			if err != nil {
				return err
			}
			for _, filename := range args {
				if err := runFile(set, filename, os.Stdout); err != nil {
					return err
				}
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringArrayVarP(&includePaths, "include-dir", "I", nil, "add a path to search for headers")
	rootCmd.Flags().StringArrayVarP(&defineFlags, "define", "D", nil, "define a macro, NAME or NAME=VALUE")
	rootCmd.Flags().StringArrayVarP(&undefineFlags, "undefine", "U", nil, "undefine a macro")
	rootCmd.Flags().StringVar(&projectFile, "project", "", "load include paths, defines and suppressions from a YAML file")
	rootCmd.Flags().BoolVar(&listConfigs, "list-configs", false, "only list the enumerated configurations")
	rootCmd.Flags().BoolVar(&errorList, "errorlist", false, "print sample missingInclude and #error diagnostics")
	rootCmd.Flags().BoolVar(&inlineSuppr, "inline-suppr", false, "honor cppcheck-suppress comments")
	rootCmd.Flags().BoolVar(&debugWarnings, "debug-warnings", false, "report debug diagnostics")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cppcheck-pp:", err)
		os.Exit(1)
	}
}
