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

package preprocessor

import (
	"slices"
	"strings"

	"github.com/mzaoui/cppcheck/errorlogger"
	"github.com/mzaoui/cppcheck/internal/collections"
	"github.com/mzaoui/cppcheck/internal/condexpr"
)

// unify rewrites a separator-joined list into canonical form: parts sorted
// and deduplicated. unify is idempotent.
func unify(s string, separator string) string {
	parts := collections.Set[string]{}
	for _, part := range strings.Split(s, separator) {
		if part != "" {
			parts.Add(part)
		}
	}
	return strings.Join(collections.SortedValues(parts), separator)
}

// getdef extracts the guard token from a conditional directive line. With
// def true it handles the positive forms (#ifdef X, #if ..., #elif ...);
// with def false the negative ones (#ifndef X, #elif !defined(X)). Spaces
// are stripped except between alphanumerics.
func getdef(line string, def bool) string {
	if line == "" || line[0] != '#' {
		return ""
	}

	if def && !strings.HasPrefix(line, "#ifdef ") && !strings.HasPrefix(line, "#if ") &&
		(!strings.HasPrefix(line, "#elif ") || strings.HasPrefix(line, "#elif !")) {
		return ""
	}

	if !def && !strings.HasPrefix(line, "#ifndef ") && !strings.HasPrefix(line, "#elif !") {
		return ""
	}

	// Remove the "#ifdef" or "#ifndef"
	if strings.HasPrefix(line, "#if defined ") {
		line = line[11:]
	} else if strings.HasPrefix(line, "#elif !defined(") {
		line = line[15:]
		if pos := strings.IndexByte(line, ')'); pos >= 0 {
			line = line[:pos] + line[pos+1:]
		}
	} else {
		if idx := strings.IndexByte(line, ' '); idx >= 0 {
			line = line[idx:]
		} else {
			line = ""
		}
	}

	// Remove all spaces.
	for pos := 0; ; {
		rel := strings.IndexByte(line[pos:], ' ')
		if rel < 0 {
			break
		}
		pos += rel
		var chprev, chnext byte
		if pos > 0 {
			chprev = line[pos-1]
		}
		if pos+1 < len(line) {
			chnext = line[pos+1]
		}
		if isIdentByte(chprev) && isIdentByte(chnext) {
			pos++
		} else {
			line = line[:pos] + line[pos+1:]
		}
	}

	return line
}

// GetConfigs enumerates the distinct #ifdef configurations of the cleaned,
// include-expanded source. The result is sorted, unique and contains the
// default (empty) configuration, except when a condition has mismatched
// parentheses: that is reported and an empty list is returned.
func (p *Preprocessor) GetConfigs(filedata, filename string) []string {
	ret := []string{""}

	var deflist, ndeflist []string

	// constants defined through "#define" in the code..
	defines := collections.Set[string]{}

	// how deep into included files the walk currently is
	filelevel := 0

	includeguard := false

	linenr := 0
	lines, _ := splitLines(filedata)
	for _, line := range lines {
		linenr++

		if p.logger != nil {
			p.logger.ReportProgress(filename, "Preprocessing (get configurations 1)", 0)
		}

		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "#file ") {
			includeguard = true
			filelevel++
			continue
		}
		if line == "#endfile" {
			includeguard = false
			if filelevel > 0 {
				filelevel--
			}
			continue
		}

		if strings.HasPrefix(line, "#define ") {
			valid := true
			var pos int
			for pos = 8; pos < len(line) && line[pos] != ' '; pos++ {
				ch := line[pos]
				if ch == '_' || isAlphaByte(ch) || (pos > 8 && ch >= '0' && ch <= '9') {
					continue
				}
				valid = false
				break
			}
			if !valid {
				line = ""
			} else if !strings.Contains(line[8:], " ") {
				defines.Add(line[8:])
			} else {
				s := line[8:]
				idx := strings.IndexByte(s, ' ')
				defines.Add(s[:idx] + "=" + s[idx+1:])
			}
		}

		if line != "" && !strings.HasPrefix(line, "#if") {
			includeguard = false
		}
		if line == "" || line[0] != '#' {
			continue
		}
		if includeguard {
			continue
		}

		fromNegation := false

		def := getdef(line, true)
		if def == "" {
			// sub conditionals of ndef blocks are constructed without the
			// negated define
			def = getdef(line, false)
			if def != "" {
				fromNegation = true
			}
		}
		if def != "" {
			par := 0
			for pos := 0; pos < len(def); pos++ {
				if def[pos] == '(' {
					par++
				} else if def[pos] == ')' {
					par--
					if par < 0 {
						break
					}
				}
			}
			if par != 0 {
				if p.logger != nil {
					p.logger.ReportErr(errorlogger.Message{
						Locations: []errorlogger.FileLocation{{File: filename, Line: linenr}},
						Severity:  errorlogger.SeverityError,
						Text:      "mismatching number of '(' and ')' in this line: " + def,
						ID:        "preprocessorParentheses",
					})
				}
				return []string{}
			}

			// replace constants defined earlier in the code
			varmap := map[string]string{}
			for name := range defines {
				if eq := strings.IndexByte(name, '='); eq >= 0 {
					varmap[name[:eq]] = name[eq+1:]
				}
			}
			def = p.simplifyCondition(varmap, def, false)

			if len(deflist) > 0 && strings.HasPrefix(line, "#elif ") {
				deflist = deflist[:len(deflist)-1]
			}
			deflist = append(deflist, def)
			def = ""

			for _, d := range deflist {
				if d == "0" {
					break
				}
				if d == "1" || d == "!" {
					continue
				}

				// don't add "T;T": treat similar nested conditions as one
				if def != d {
					if def != "" {
						def += ";"
					}
					def += d
				}
			}
			if fromNegation {
				ndeflist = append(ndeflist, deflist[len(deflist)-1])
				deflist[len(deflist)-1] = "!"
			}

			if !slices.Contains(ret, def) {
				ret = append(ret, def)
			}
		} else if strings.HasPrefix(line, "#else") && len(deflist) > 0 {
			if deflist[len(deflist)-1] == "!" {
				deflist[len(deflist)-1] = ndeflist[len(ndeflist)-1]
				ndeflist = ndeflist[:len(ndeflist)-1]
			} else if deflist[len(deflist)-1] == "1" {
				deflist[len(deflist)-1] = "0"
			} else {
				deflist[len(deflist)-1] = "1"
			}
		} else if strings.HasPrefix(line, "#endif") && len(deflist) > 0 {
			if deflist[len(deflist)-1] == "!" {
				ndeflist = ndeflist[:len(ndeflist)-1]
			}
			deflist = deflist[:len(deflist)-1]
		}
	}

	// remove constants defined in the code from the configurations
	definedNames := collections.SortedValues(defines)
	for idx := range ret {
		if p.logger != nil {
			p.logger.ReportProgress(filename, "Preprocessing (get configurations 2)", (100*idx)/len(ret))
		}

		cfg := ret[idx]
		for _, defineName := range definedNames {
			if eq := strings.IndexByte(defineName, '='); eq >= 0 {
				defineName = defineName[:eq]
			}

			pos := 0
			for {
				rel := strings.Index(cfg[pos:], defineName)
				if rel < 0 {
					break
				}
				pos1 := pos + rel
				pos = pos1 + 1
				if pos1 > 0 && cfg[pos1-1] != ';' {
					continue
				}
				pos2 := pos1 + len(defineName)
				if pos2 < len(cfg) && cfg[pos2] != ';' {
					continue
				}
				pos--
				cfg = cfg[:pos] + cfg[pos+len(defineName):]
			}
		}
		if len(cfg) != len(ret[idx]) {
			cfg = strings.TrimLeft(cfg, ";")
			cfg = strings.TrimRight(cfg, ";")
			for strings.Contains(cfg, ";;") {
				cfg = strings.ReplaceAll(cfg, ";;", ";")
			}
			ret[idx] = cfg
		}
	}

	// convert configurations: "defined(A) && defined(B)" => "A;B"
	for idx, s := range ret {
		if !strings.Contains(s, "&&") {
			continue
		}
		names := condexpr.ProjectAndConfig(condexpr.Tokenize(s))
		if len(names) == 0 {
			if p.logger != nil {
				p.logger.ReportErr(errorlogger.Message{
					Locations: []errorlogger.FileLocation{{File: filename, Line: 1}},
					Severity:  errorlogger.SeverityError,
					Text:      "Error parsing this: " + s,
					ID:        "preprocessorParse",
				})
			}
			continue
		}
		ret[idx] = strings.Join(collections.SortedValues(collections.ToSet(names)), ";")
	}

	// canonical form: B;C;A or C;A;B => A;B;C
	for idx := range ret {
		ret[idx] = unify(ret[idx], ";")
	}

	slices.Sort(ret)
	ret = slices.Compact(ret)

	// cleanup unhandled configurations..
	var result []string
	for _, cfg := range ret {
		if isHandledConfig(cfg) {
			result = append(result, cfg)
			continue
		}
		if p.logger != nil && p.settings != nil && p.settings.DebugWarnings {
			p.logger.ReportErr(errorlogger.Message{
				Severity: errorlogger.SeverityDebug,
				Text:     "unhandled configuration: " + cfg,
				ID:       "debug",
			})
		}
	}
	return result
}

// isHandledConfig reports whether a configuration consists only of
// ;-separated identifiers with optional decimal =VALUE parts.
func isHandledConfig(cfg string) bool {
	s := cfg + ";"
	for pos := 0; pos < len(s); pos++ {
		c := s[pos]
		if c == ';' {
			continue
		}
		if !isIdentStartByte(c) {
			return false
		}
		for pos < len(s) && isIdentByte(s[pos]) {
			pos++
		}
		if pos < len(s) && s[pos] == '=' {
			pos++
			for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
				pos++
			}
			if pos >= len(s) || s[pos] != ';' {
				return false
			}
		}
		pos--
	}
	return true
}
