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

	"github.com/mzaoui/cppcheck/errorlogger"
)

// lineReader yields statement-sized chunks: a chunk never ends mid-statement.
// Directive lines are returned at the newline; other chunks extend until a
// ";" at parenthesis depth zero, or a newline when the next line starts a
// directive (whatever the parenthesis depth at that point).
type lineReader struct {
	s   string
	pos int
}

func (r *lineReader) getlines() (string, bool) {
	if r.pos >= len(r.s) {
		return "", false
	}
	var line []byte
	parlevel := 0
	for r.pos < len(r.s) {
		ch := r.s[r.pos]
		r.pos++

		if ch == '\'' || ch == '"' {
			line = append(line, ch)
			var c byte
			for r.pos < len(r.s) && c != ch {
				if c == '\\' {
					if r.pos >= len(r.s) {
						return string(line), true
					}
					c = r.s[r.pos]
					r.pos++
					line = append(line, c)
				}
				if r.pos >= len(r.s) {
					return string(line), true
				}
				c = r.s[r.pos]
				r.pos++
				if c == '\n' && len(line) > 0 && line[0] == '#' {
					return string(line), true
				}
				line = append(line, c)
			}
			continue
		}

		if ch == '(' {
			parlevel++
		} else if ch == ')' {
			parlevel--
		} else if ch == '\n' {
			if len(line) > 0 && line[0] == '#' {
				return string(line), true
			}
			if r.pos < len(r.s) && r.s[r.pos] == '#' {
				line = append(line, ch)
				return string(line), true
			}
		} else if (len(line) == 0 || line[0] != '#') && parlevel <= 0 && ch == ';' {
			line = append(line, ';')
			return string(line), true
		}

		line = append(line, ch)
	}
	return string(line), true
}

// ExpandMacros collects #define directives and expands macro calls in the
// remaining text. Expanded spans are marked with a leading '$'. On a fatal
// problem (unterminated literal, a variadic macro called with fewer arguments
// than its named parameters) the diagnostic is reported and the empty string
// is returned. A call to a non-variadic macro with the wrong number of
// arguments is left unexpanded without a diagnostic.
func ExpandMacros(code string, filename string, logger errorlogger.Logger) string {
	// available macros, by name
	macros := map[string]*macro{}

	linenr := 1

	type fileinfo struct {
		linenr   int
		filename string
	}
	var filestack []fileinfo

	var ostr strings.Builder

	reader := &lineReader{s: code}
	for {
		line, ok := reader.getlines()
		if !ok {
			break
		}

		if strings.HasPrefix(line, "#define ") {
			mac := newMacro(line[8:])
			switch {
			case mac.name == "":
				// defines with invalid names are unusable
			case mac.name == "BOOST_FOREACH":
				// too complex to parse, skip it
			default:
				macros[mac.name] = mac
			}
			line = "\n"
		} else if strings.HasPrefix(line, "#undef ") {
			delete(macros, line[7:])
			line = "\n"
		} else if strings.HasPrefix(line, "#file \"") {
			filestack = append(filestack, fileinfo{linenr: linenr, filename: filename})
			filename = line[7 : len(line)-1]
			linenr = 0
			line += "\n"
		} else if line == "#endfile" {
			if len(filestack) > 0 {
				top := filestack[len(filestack)-1]
				linenr = top.linenr
				filename = top.filename
				filestack = filestack[:len(filestack)-1]
			}
			line += "\n"
		} else if strings.HasPrefix(line, "#") {
			line += "\n"
		} else {
			// Per-macro re-expansion limits, as offsets from the end of
			// line: a macro may not expand again while the scan position is
			// at or before its limit. Because the limit is anchored to the
			// end of the line, edits before it keep it valid; once the scan
			// passes a limit it must be dropped.
			limits := map[*macro]int{}

			pos := 0
			tmpLinenr := 0
			for pos < len(line) {
				if line[pos] == '\n' {
					tmpLinenr++
				}

				// skip strings..
				if line[pos] == '"' || line[pos] == '\'' {
					ch := line[pos]
					pos = skipstring(line, pos)
					pos++
					if pos >= len(line) {
						writeError(logger, filename, linenr+tmpLinenr, "noQuoteCharPair",
							"No pair for character ("+string(ch)+"). Can't process file. "+
								"File is either invalid or unicode, which is currently not supported.")
						return ""
					}
					continue
				}

				if !isIdentStartByte(line[pos]) {
					pos++
				}

				// the inner loop re-scans immediately when an expansion
				// reveals another macro call
				for pos < len(line) && isIdentStartByte(line[pos]) {
					pos1 := pos
					pos++
					for pos < len(line) && isIdentByte(line[pos]) {
						pos++
					}
					id := line[pos1:pos]

					mac, found := macros[id]
					if !found {
						break
					}

					if limit, limited := limits[mac]; limited && pos <= len(line)-limit {
						break
					}

					pos2 := pos
					if len(mac.params) > 0 && pos2 >= len(line) {
						break
					}

					numberOfNewlines := 0
					var params []string
					if mac.variadic || mac.nopar || len(mac.params) > 0 {
						var endFound bool
						params, pos2, numberOfNewlines, endFound = getparams(line, pos2)
						// the closing parenthesis may be in a later chunk
						if !endFound {
							break
						}
					}

					// just an empty parameter => clear
					if len(params) == 1 && params[0] == "" {
						params = nil
					}

					if !mac.variadic && len(params) != len(mac.params) {
						break
					}

					tempMacro, codeOK := mac.code(params, macros)
					if !codeOK {
						writeError(logger, filename, linenr+tmpLinenr, "syntaxError",
							"Syntax error. Not enough parameters for macro '"+mac.name+"'.")
						return ""
					}

					// the expansion must contain the newlines consumed by
					// the argument list
					macrocode := strings.Repeat("\n", numberOfNewlines) + tempMacro

					if mac.variadic || mac.nopar || len(mac.params) > 0 {
						pos2++
					}

					// purge limits the scan has moved past
					for other, limit := range limits {
						if len(line)-pos1 < limit {
							delete(limits, other)
						}
					}

					// block re-expansion of this macro before pos2
					limits[mac] = len(line) - pos2

					// replace the call with the expansion
					line = line[:pos1] + line[pos2:]
					if pos1 < len(line) && isIdentByte(line[pos1]) {
						// don't glue the expansion into a following word
						macrocode += " "
					}
					line = line[:pos1] + "$" + macrocode + line[pos1:]

					pos = pos1
				}
			}
		}

		ostr.WriteString(line)
		linenr += strings.Count(line, "\n")
	}

	return ostr.String()
}
