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
	"strings"

	"github.com/mzaoui/cppcheck/internal/condexpr"
)

// parseCfg splits a configuration string such as "A;B=2;C" into a macro map
// {A:"", B:"2", C:""}.
func parseCfg(cfg string) map[string]string {
	cfgmap := map[string]string{}
	if cfg == "" {
		return cfgmap
	}
	for _, part := range strings.Split(cfg, ";") {
		if eq := strings.IndexByte(part, '='); eq >= 0 {
			cfgmap[part[:eq]] = part[eq+1:]
		} else {
			cfgmap[part] = ""
		}
	}
	return cfgmap
}

// GetCode emits the text selected by one configuration: conditional branches
// not chosen by cfg become empty lines, matching #define/#undef lines update
// the macro map, and the surviving text is run through the macro expander.
// An active #error aborts with empty output; it is reported only when user
// defines are in effect.
func (p *Preprocessor) GetCode(filedata, cfg, filename string) string {
	lineno := 0

	var ret strings.Builder

	match := true
	var matchingIfdef, matchedIfdef []bool

	cfgmap := parseCfg(cfg)

	filenames := []string{filename}
	var lineNumbers []int

	lines, _ := splitLines(filedata)
	for idx := 0; idx < len(lines); idx++ {
		line := lines[idx]
		lineno++

		if strings.HasPrefix(line, "#pragma asm") {
			ret.WriteByte('\n')
			foundEnd := false
			for idx+1 < len(lines) {
				idx++
				line = lines[idx]
				if strings.HasPrefix(line, "#pragma endasm") {
					foundEnd = true
					break
				}
				ret.WriteByte('\n')
			}
			if !foundEnd {
				break
			}

			if strings.Contains(line, "=") {
				payload := line[min(len(line), len("#pragma endasm")+1):]
				if name, ok := condexpr.MatchParenAssign(condexpr.Tokenize(payload)); ok {
					ret.WriteString("asm(" + name + ");")
				}
			}

			ret.WriteByte('\n')
			continue
		}

		def := getdef(line, true)
		ndef := getdef(line, false)

		emptymatch := len(matchingIfdef) == 0 || len(matchedIfdef) == 0

		switch {
		case strings.HasPrefix(line, "#define "):
			match = true

			if p.settings != nil {
				for undef := range p.settings.UserUndefs {
					rest := line[8:]
					skip := len(rest) - len(strings.TrimLeft(rest, " "))
					pos := 8 + skip
					if pos >= len(line) {
						continue
					}
					rel := strings.Index(line[pos:], undef)
					if rel < 0 {
						continue
					}
					pos2 := pos + rel
					if len(line) == pos2+len(undef) ||
						line[pos2+len(undef)] == ' ' ||
						line[pos2+len(undef)] == '(' {
						match = false
						break
					}
				}
			}

			for _, m := range matchingIfdef {
				match = match && m
			}

			if match {
				rel := strings.IndexAny(line[8:], " (")
				if rel < 0 {
					cfgmap[line[8:]] = ""
				} else if line[8+rel] == ' ' {
					value := line[8+rel+1:]
					if known, ok := cfgmap[value]; ok {
						value = known
					}
					cfgmap[line[8:8+rel]] = value
				} else {
					cfgmap[line[8:8+rel]] = ""
				}
			}

		case strings.HasPrefix(line, "#undef "):
			delete(cfgmap, line[7:])

		case !emptymatch && strings.HasPrefix(line, "#elif !"):
			if matchedIfdef[len(matchedIfdef)-1] {
				matchingIfdef[len(matchingIfdef)-1] = false
			} else if !p.matchCfgDef(cfgmap, ndef) {
				matchingIfdef[len(matchingIfdef)-1] = true
				matchedIfdef[len(matchedIfdef)-1] = true
			}

		case !emptymatch && strings.HasPrefix(line, "#elif "):
			if matchedIfdef[len(matchedIfdef)-1] {
				matchingIfdef[len(matchingIfdef)-1] = false
			} else if p.matchCfgDef(cfgmap, def) {
				matchingIfdef[len(matchingIfdef)-1] = true
				matchedIfdef[len(matchedIfdef)-1] = true
			}

		case def != "":
			matchingIfdef = append(matchingIfdef, p.matchCfgDef(cfgmap, def))
			matchedIfdef = append(matchedIfdef, matchingIfdef[len(matchingIfdef)-1])

		case ndef != "":
			matchingIfdef = append(matchingIfdef, !p.matchCfgDef(cfgmap, ndef))
			matchedIfdef = append(matchedIfdef, matchingIfdef[len(matchingIfdef)-1])

		case !emptymatch && strings.HasPrefix(line, "#else"):
			if len(matchedIfdef) > 0 {
				matchingIfdef[len(matchingIfdef)-1] = !matchedIfdef[len(matchedIfdef)-1]
			}

		case strings.HasPrefix(line, "#endif"):
			if len(matchedIfdef) > 0 {
				matchedIfdef = matchedIfdef[:len(matchedIfdef)-1]
			}
			if len(matchingIfdef) > 0 {
				matchingIfdef = matchingIfdef[:len(matchingIfdef)-1]
			}
		}

		if line != "" && line[0] == '#' {
			match = true
			for _, m := range matchingIfdef {
				match = match && m
			}
		}

		// #error => return ""
		if match && strings.HasPrefix(line, "#error") {
			if p.settings != nil && p.settings.UserDefines != "" {
				p.errorDirective(filenames[len(filenames)-1], lineno, line)
			}
			return ""
		}

		if !match && (strings.HasPrefix(line, "#define ") || strings.HasPrefix(line, "#undef")) {
			// this define is not part of the configuration
			line = ""
		} else if strings.HasPrefix(line, "#file \"") ||
			strings.HasPrefix(line, "#endfile") ||
			strings.HasPrefix(line, "#define ") ||
			strings.HasPrefix(line, "#undef") {
			// #file tags must survive or line numbers are corrupted; the
			// tokenizer removes them later
			if strings.HasPrefix(line, "#file \"") {
				filenames = append(filenames, line[7:len(line)-1])
				lineNumbers = append(lineNumbers, lineno)
				lineno = 0
			} else if strings.HasPrefix(line, "#endfile") {
				if len(filenames) > 1 {
					filenames = filenames[:len(filenames)-1]
				}
				if len(lineNumbers) > 0 {
					lineno = lineNumbers[len(lineNumbers)-1]
					lineNumbers = lineNumbers[:len(lineNumbers)-1]
				}
			}
		} else if !match || strings.HasPrefix(line, "#") {
			// remove #if, #else, #pragma etc, and lines that are not part
			// of this configuration
			line = ""
		}

		ret.WriteString(line)
		ret.WriteByte('\n')
	}

	return ExpandMacros(ret.String(), filename, p.logger)
}
