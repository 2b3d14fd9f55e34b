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
	"fmt"
	"strings"
)

func hasBOM(str string) bool {
	return len(str) >= 3 && str[0] == 0xef && str[1] == 0xbb && str[2] == 0xbf
}

// isFallThroughComment reports whether a comment announces an intentional
// switch-case fall through.
func isFallThroughComment(comment string) bool {
	var b strings.Builder
	for i := 0; i < len(comment); i++ {
		if !isSpaceByte(comment[i]) {
			b.WriteByte(comment[i])
		}
	}
	comment = strings.ToLower(b.String())

	return strings.Contains(comment, "fallthr") ||
		strings.Contains(comment, "fallsthr") ||
		strings.Contains(comment, "fall-thr") ||
		strings.Contains(comment, "dropthr") ||
		strings.Contains(comment, "passthr") ||
		strings.Contains(comment, "nobreak") ||
		comment == "fall"
}

// removeComments strips //- and /*-comments while keeping the line count
// intact. String and character literals are copied through; raw string
// literals are rewritten as ordinary string literals (quotes escaped,
// newlines turned into \n escapes, control characters into spaces). Inline
// "cppcheck-suppress ID" comments are
// collected and attached to the next code or directive line.
func (p *Preprocessor) removeComments(str, filename string) string {
	lineno := 1

	// newlines deferred by multi-line comments and spliced strings; they
	// are flushed on the next ordinary newline
	newlines := 0
	var code strings.Builder
	var previous byte
	inPreprocessorLine := false
	var suppressionIDs []string
	fallThroughComment := false

	flushSuppressions := func() {
		if len(suppressionIDs) == 0 {
			return
		}
		if p.settings != nil {
			for _, id := range suppressionIDs {
				if err := p.settings.Nomsg.Add(id, filename, lineno); err != nil {
					p.writeError(filename, lineno, "cppcheckError", err.Error())
				}
			}
		}
		suppressionIDs = suppressionIDs[:0]
	}

	start := 0
	if hasBOM(str) {
		start = 3
	}
	for i := start; i < len(str); i++ {
		ch := str[i]
		if ch&0x80 != 0 {
			errmsg := fmt.Sprintf("The code contains characters that are unhandled. "+
				"Neither unicode nor extended ASCII are supported. "+
				"(line=%d, character code=%x)", lineno, ch)
			p.writeError(filename, lineno, "syntaxError", errmsg)
		}

		// #warning lines, and #error lines when no user defines are set, are
		// kept verbatim, comments included
		if (strings.HasPrefix(str[i:], "#error") && (p.settings == nil || p.settings.UserDefines == "")) ||
			strings.HasPrefix(str[i:], "#warning") {
			rel := strings.IndexByte(str[i:], '\n')
			if rel < 0 {
				break
			}
			code.WriteString(str[i : i+rel])
			i += rel - 1
			continue
		}

		if isSpaceByte(ch) {
			if ch == ' ' && previous == ' ' {
				// skip double white space
			} else {
				code.WriteByte(ch)
				previous = ch
			}

			if ch == '\n' {
				inPreprocessorLine = false
				lineno++
				if newlines > 0 {
					code.WriteString(strings.Repeat("\n", newlines))
					newlines = 0
					previous = '\n'
				}
			}
			continue
		}

		if strings.HasPrefix(str[i:], "//") {
			commentStart := i + 2
			rel := strings.IndexByte(str[i:], '\n')
			if rel < 0 {
				break
			}
			i += rel
			comment := str[commentStart:i]

			if p.settings != nil && p.settings.InlineSuppressions {
				if fields := strings.Fields(comment); len(fields) >= 2 && fields[0] == "cppcheck-suppress" {
					suppressionIDs = append(suppressionIDs, fields[1])
				}
			}
			if isFallThroughComment(comment) {
				fallThroughComment = true
			}

			code.WriteByte('\n')
			previous = '\n'
			lineno++
		} else if strings.HasPrefix(str[i:], "/*") {
			commentStart := i + 2
			var chPrev byte
			i++
			for i < len(str) && !(chPrev == '*' && ch == '/') {
				chPrev = ch
				i++
				if i >= len(str) {
					break
				}
				ch = str[i]
				if ch == '\n' {
					newlines++
					lineno++
				}
			}
			end := min(max(i-1, commentStart), len(str))
			comment := str[commentStart:end]

			if isFallThroughComment(comment) {
				fallThroughComment = true
			}
			if p.settings != nil && p.settings.InlineSuppressions {
				if fields := strings.Fields(comment); len(fields) >= 2 && fields[0] == "cppcheck-suppress" {
					suppressionIDs = append(suppressionIDs, fields[1])
				}
			}
		} else if ch == '#' && previous == '\n' {
			code.WriteByte(ch)
			previous = ch
			inPreprocessorLine = true

			// pending inline suppressions attach to this directive line
			flushSuppressions()
		} else {
			if !inPreprocessorLine {
				// Not whitespace, not a comment, and not preprocessor.
				// Must be code here!

				// a fall-through comment only suppresses on a following
				// 'case' or 'default'
				if p.settings != nil && p.settings.IsEnabled("style") && p.settings.Experimental && fallThroughComment {
					j := i
					for j < len(str) && str[j] >= 'a' && str[j] <= 'z' {
						j++
					}
					if tok := str[i:j]; tok == "case" || tok == "default" {
						suppressionIDs = append(suppressionIDs, "switchCaseFallThrough")
					}
					fallThroughComment = false
				}

				flushSuppressions()
			}

			// String or char constants..
			if ch == '"' || ch == '\'' {
				code.WriteByte(ch)
				var chNext byte
				for {
					i++
					if i >= len(str) {
						break
					}
					chNext = str[i]
					if chNext == '\\' {
						i++
						if i >= len(str) {
							break
						}
						chSeq := str[i]
						if chSeq == '\n' {
							newlines++
						} else {
							code.WriteByte(chNext)
							code.WriteByte(chSeq)
							previous = chSeq
						}
					} else {
						code.WriteByte(chNext)
						previous = chNext
					}
					if !(i < len(str) && chNext != ch && chNext != '\n') {
						break
					}
				}
			} else if strings.HasPrefix(str[i:], "R\"") {
				// Rawstring..
				delim := ""
				for i2 := i + 2; i2 < len(str); i2++ {
					if i2-(i+2) >= 16 ||
						isSpaceByte(str[i2]) ||
						isCntrlByte(str[i2]) ||
						str[i2] == ')' ||
						str[i2] == '\\' {
						delim = " "
						break
					} else if str[i2] == '(' {
						break
					}
					delim += string(str[i2])
				}
				endpos := strings.Index(str[i:], ")"+delim+"\"")
				if delim != " " && endpos >= 0 {
					endpos += i
					rawstringnewlines := 0
					code.WriteByte('"')
					for q := i + 3 + len(delim); q < endpos; q++ {
						switch c := str[q]; {
						case c == '\n':
							rawstringnewlines++
							code.WriteString("\\n")
						case isCntrlByte(c) || isSpaceByte(c):
							code.WriteByte(' ')
						case c == '\\':
							code.WriteByte('\\')
						case c == '"' || c == '\'':
							code.WriteByte('\\')
							code.WriteByte(c)
						default:
							code.WriteByte(c)
						}
					}
					code.WriteByte('"')
					if rawstringnewlines > 0 {
						code.WriteString(strings.Repeat("\n", rawstringnewlines))
					}
					i = endpos + len(delim) + 1
				} else {
					code.WriteByte('R')
					previous = 'R'
				}
			} else {
				code.WriteByte(ch)
				previous = ch
			}
		}
	}

	return code.String()
}
