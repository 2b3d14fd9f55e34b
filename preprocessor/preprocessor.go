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

// Package preprocessor approximates a C/C++ preprocessor for static
// analysis. Instead of producing one translation unit it enumerates the
// interesting #ifdef configurations of a source file and can emit the
// preprocessed text for each of them, preserving line numbers throughout so
// that downstream diagnostics stay accurate.
//
// It is deliberately not a conforming preprocessor: malformed input is
// tolerated, diagnostics are reported through an errorlogger.Logger and the
// pipeline keeps going with degraded output wherever possible.
package preprocessor

import (
	"io"
	"strings"

	"github.com/mzaoui/cppcheck/errorlogger"
	"github.com/mzaoui/cppcheck/settings"
)

// Preprocessor runs the pipeline for one translation unit at a time. It is
// not safe for concurrent use; create one instance per goroutine.
type Preprocessor struct {
	settings *settings.Settings
	logger   errorlogger.Logger

	// JoinWhitespaceSplices selects gcc-compatible handling of whitespace
	// between a backslash and the following newline (the whitespace is
	// ignored and the lines are still joined). When false the backslash is
	// kept, matching the Visual Studio compilers.
	JoinWhitespaceSplices bool

	// file0 is the analyzed translation unit, recorded so diagnostics that
	// point into headers can also name the file that pulled them in.
	file0 string

	missingInclude bool
}

// New creates a Preprocessor. Both arguments may be nil; diagnostics are
// then dropped and default settings apply.
func New(set *settings.Settings, logger errorlogger.Logger) *Preprocessor {
	return &Preprocessor{
		settings:              set,
		logger:                logger,
		JoinWhitespaceSplices: true,
	}
}

// MissingInclude reports whether a user header, or a system header while
// debug warnings are on, could not be found since the Preprocessor was
// created. Failed lookups of other system headers, and any failed lookup
// while a global missingInclude suppression is registered, leave it false.
func (p *Preprocessor) MissingInclude() bool {
	return p.missingInclude
}

// Preprocess runs the full pipeline and returns one preprocessed text per
// configuration, keyed by configuration name. The empty key is the default
// configuration.
func (p *Preprocessor) Preprocess(src io.Reader, filename string, includePaths []string) map[string]string {
	processed, configs := p.PreprocessText(src, filename, includePaths)
	if p.settings != nil && p.settings.UserDefines != "" {
		// with user defines the enumeration is skipped; the user defines
		// are the one configuration to emit
		configs = []string{p.settings.UserDefines}
	}
	result := make(map[string]string, len(configs))
	for _, cfg := range configs {
		if p.settings != nil && p.settings.UserUndefs.Contains(cfg) {
			continue
		}
		result[cfg] = p.GetCode(processed, cfg, filename)
	}
	return result
}

// PreprocessText returns the cleaned, include-expanded source together with
// the list of configurations worth analyzing.
func (p *Preprocessor) PreprocessText(src io.Reader, filename string, includePaths []string) (string, []string) {
	if p.file0 == "" {
		p.file0 = filename
	}

	processed := p.Read(src, filename)
	processed = removeAsm(processed)
	processed = normalizeDefined(processed)

	var configs []string
	if p.settings != nil && (p.settings.UserDefines != "" || len(p.settings.UserUndefs) > 0) {
		defs := parseUserDefines(p.settings.UserDefines)
		processed = p.handleIncludesWithDefs(processed, filename, includePaths, defs, nil)
		if p.settings.UserDefines == "" {
			configs = p.GetConfigs(processed, filename)
		}
	} else {
		processed = p.handleIncludes(processed, filename, includePaths)
		processed = replaceIfDefined(processed)
		configs = p.GetConfigs(processed, filename)
	}
	return processed, configs
}

// parseUserDefines splits "NAME[=VAL](;NAME[=VAL])*" into a macro map.
func parseUserDefines(s string) map[string]string {
	defs := map[string]string{}
	if s == "" {
		return defs
	}
	for _, part := range strings.Split(s, ";") {
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			defs[part[:eq]] = part[eq+1:]
		} else {
			defs[part] = ""
		}
	}
	return defs
}

func writeError(logger errorlogger.Logger, fileName string, linenr int, errorType, errorText string) {
	if logger == nil {
		return
	}
	logger.ReportErr(errorlogger.Message{
		Locations: []errorlogger.FileLocation{{File: fileName, Line: linenr}},
		Severity:  errorlogger.SeverityError,
		Text:      errorText,
		ID:        errorType,
	})
}

func (p *Preprocessor) writeError(fileName string, linenr int, errorType, errorText string) {
	writeError(p.logger, fileName, linenr, errorType, errorText)
}

// errorDirective reports an active #error directive.
func (p *Preprocessor) errorDirective(filename string, linenr int, msg string) {
	if p.logger == nil {
		return
	}
	var locations []errorlogger.FileLocation
	if filename != "" {
		locations = append(locations, errorlogger.FileLocation{File: filename, Line: linenr})
	}
	p.logger.ReportErr(errorlogger.Message{
		Locations: locations,
		Severity:  errorlogger.SeverityError,
		Text:      msg,
		ID:        "preprocessorErrorDirective",
	})
}

// reportMissingInclude reports a failed header lookup. Missing user headers
// are informational; missing system headers only matter when debugging an
// analysis configuration.
func (p *Preprocessor) reportMissingInclude(filename string, linenr int, header string, userheader bool) {
	if p.logger == nil {
		return
	}
	var locations []errorlogger.FileLocation
	if filename != "" {
		locations = append(locations, errorlogger.FileLocation{File: filename, Line: linenr})
	}
	severity := errorlogger.SeverityDebug
	id := "debug"
	if userheader {
		severity = errorlogger.SeverityInformation
		id = "missingInclude"
	}
	p.logger.ReportErr(errorlogger.Message{
		Locations: locations,
		Severity:  severity,
		Text:      "Include file: \"" + header + "\" not found.",
		ID:        id,
		File0:     p.file0,
	})
}

// GetErrorMessages reports one sample missingInclude and one sample
// preprocessorErrorDirective diagnostic, for --errorlist style documentation
// output. The package's other diagnostics are not listed.
func GetErrorMessages(logger errorlogger.Logger, set *settings.Settings) {
	p := New(set, logger)
	p.reportMissingInclude("", 1, "", true)
	p.errorDirective("", 1, "#error message")
}
