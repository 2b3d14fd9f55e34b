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
	"bufio"
	"io"
	"strings"
)

func isSpaceByte(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func isCntrlByte(ch byte) bool {
	return ch < 0x20 || ch == 0x7f
}

func isAlphaByte(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isAlnumByte(ch byte) bool {
	return isAlphaByte(ch) || (ch >= '0' && ch <= '9')
}

func isIdentStartByte(ch byte) bool {
	return isAlphaByte(ch) || ch == '_'
}

func isIdentByte(ch byte) bool {
	return isAlnumByte(ch) || ch == '_'
}

// charReader yields one logical character at a time: "\r\n" and "\r" both
// collapse to "\n".
type charReader struct {
	r *bufio.Reader
}

func (cr charReader) read() (byte, bool) {
	ch, err := cr.r.ReadByte()
	if err != nil {
		return 0, false
	}
	if ch == '\r' {
		ch = '\n'
		if next, err := cr.r.Peek(1); err == nil && next[0] == '\n' {
			cr.r.Discard(1)
		}
	}
	return ch, true
}

func (cr charReader) peek() (byte, bool) {
	next, err := cr.r.Peek(1)
	if err != nil {
		return 0, false
	}
	return next[0], true
}

// Read reads source code and performs the lexical cleanup: newline
// normalization, backslash-newline joining (extra newlines are emitted later
// so the line count is preserved), comment removal, directive re-spacing,
// redundant-parenthesis removal and #if 0 elision.
func (p *Preprocessor) Read(istr io.Reader, filename string) string {
	cr := charReader{r: bufio.NewReader(istr)}

	var code strings.Builder
	newlines := 0
	for {
		ch, ok := cr.read()
		if !ok {
			break
		}

		// Replace assorted special chars with spaces..
		if ch&0x80 == 0 && ch != '\n' && (isSpaceByte(ch) || isCntrlByte(ch)) {
			ch = ' '
		}

		if ch == '\\' {
			var chNext byte
			if p.JoinWhitespaceSplices {
				// gcc-compatibility: whitespace between the backslash and
				// the newline does not break the splice
				for {
					chNext, _ = cr.peek()
					if chNext != '\n' && chNext != '\r' && (isSpaceByte(chNext) || isCntrlByte(chNext)) {
						cr.read()
						continue
					}
					break
				}
			} else {
				chNext, _ = cr.peek()
			}
			if chNext == '\n' || chNext == '\r' {
				newlines++
				cr.read() // skip the <backslash><newline>
			} else {
				code.WriteByte('\\')
			}
		} else {
			code.WriteByte(ch)

			// flush newlines deferred by earlier <backslash><newline> joins
			if ch == '\n' && newlines > 0 {
				code.WriteString(strings.Repeat("\n", newlines))
				newlines = 0
			}
		}
	}

	result := p.removeComments(code.String(), filename)
	result = preprocessCleanupDirectives(result)
	result = removeParentheses(result)
	if strings.Contains(result, "#if 0\n") {
		result = removeIf0(result)
	}
	return result
}
