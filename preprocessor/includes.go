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
	"bytes"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mzaoui/cppcheck/internal/collections"
)

type headerType int

const (
	noHeader headerType = iota
	userHeader
	systemHeader
)

// getHeaderFileName extracts the header path from the remainder of an
// #include line, classifying it as a user ("...") or system (<...>) header.
func getHeaderFileName(str string) (string, headerType) {
	i := strings.IndexAny(str, "<\"")
	if i < 0 {
		return "", noHeader
	}

	closing := str[i]
	if closing == '<' {
		closing = '>'
	}

	var result strings.Builder
	for i = i + 1; i < len(str); i++ {
		if str[i] == closing {
			break
		}
		result.WriteByte(str[i])
	}

	// backslash separators cannot be opened on Linux, so fix them
	name := strings.ReplaceAll(result.String(), "\\", "/")
	if closing == '"' {
		return name, userHeader
	}
	return name, systemHeader
}

// dirOf returns the directory part of a path including the trailing
// separator, or "" when the path has none.
func dirOf(p string) string {
	idx := strings.LastIndexAny(p, "\\/")
	return p[:idx+1]
}

// simplifyPath resolves "." and ".." path segments.
func simplifyPath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// openHeader looks for a header file: first as given, then in each include
// path in order, and finally next to the including file.
func openHeader(filename string, includePaths []string, filePath string) (string, []byte, bool) {
	candidates := make([]string, 0, len(includePaths)+2)
	candidates = append(candidates, filename)
	for _, dir := range includePaths {
		candidates = append(candidates, filepath.Join(dir, filename))
	}
	candidates = append(candidates, filePath+filename)

	for _, candidate := range candidates {
		if data, err := os.ReadFile(candidate); err == nil {
			return candidate, data, true
		}
	}
	return "", nil, false
}

// handleIncludesWithDefs evaluates the file against a live macro map built
// from the user defines: only branches selected by the defines survive, and
// #include directives inside live branches are resolved recursively with the
// same map and spliced in between #file/#endfile markers. Headers already on
// the include chain are not spliced again.
func (p *Preprocessor) handleIncludesWithDefs(code, filePath string, includePaths []string, defs map[string]string, includes []string) string {
	includerDir := dirOf(filePath)

	// current #if indent level, and how deep the #if conditions match
	indent := 0
	indentmatch := 0

	// has there been a true #if condition at the current indentmatch level?
	// then no more #elif or #else can be true before the #endif is seen
	elseIsTrue := true

	linenr := 0

	undefs := collections.Set[string]{}
	if p.settings != nil {
		undefs = p.settings.UserUndefs
	}

	var ostr strings.Builder
	lines, _ := splitLines(code)
	suppressCurrentCodePath := false
	for _, line := range lines {
		linenr++

		switch {
		case strings.HasPrefix(line, "#ifdef "):
			if indent == indentmatch {
				tag := getdef(line, true)
				if _, ok := defs[tag]; ok {
					elseIsTrue = false
					indentmatch++
				} else if undefs.Contains(tag) {
					elseIsTrue = true
					indentmatch++
					suppressCurrentCodePath = true
				}
			}
			indent++
			if indent == indentmatch+1 {
				elseIsTrue = true
			}

		case strings.HasPrefix(line, "#ifndef "):
			if indent == indentmatch {
				tag := getdef(line, false)
				if _, ok := defs[tag]; !ok {
					elseIsTrue = false
					indentmatch++
				} else if undefs.Contains(tag) {
					elseIsTrue = false
					indentmatch++
					suppressCurrentCodePath = false
				}
			}
			indent++
			if indent == indentmatch+1 {
				elseIsTrue = true
			}

		case !suppressCurrentCodePath && strings.HasPrefix(line, "#if "):
			if indent == indentmatch && p.matchCfgDef(defs, line[4:]) {
				elseIsTrue = false
				indentmatch++
			}
			indent++
			if indent == indentmatch+1 {
				elseIsTrue = true
			}

		case strings.HasPrefix(line, "#elif ") || strings.HasPrefix(line, "#else"):
			if !elseIsTrue {
				if indentmatch == indent {
					indentmatch = indent - 1
				}
			} else {
				if indentmatch == indent {
					indentmatch = indent - 1
				} else if indentmatch == indent-1 {
					if strings.HasPrefix(line, "#else") || p.matchCfgDef(defs, line[6:]) {
						indentmatch = indent
						elseIsTrue = false
					}
				}
			}
			if suppressCurrentCodePath {
				suppressCurrentCodePath = false
				indentmatch = indent
			}

		case strings.HasPrefix(line, "#endif"):
			if indent > 0 {
				indent--
			}
			if indentmatch > indent || indent == 0 {
				indentmatch = indent
				elseIsTrue = false
				suppressCurrentCodePath = false
			}

		case indentmatch == indent:
			if !suppressCurrentCodePath && strings.HasPrefix(line, "#define ") {
				const endOfDefine = 8
				endOfTag := strings.IndexAny(line[endOfDefine:], "( ")
				var tag string
				if endOfTag < 0 {
					// define a symbol
					tag = line[endOfDefine:]
					defs[tag] = ""
				} else {
					endOfTag += endOfDefine
					tag = line[endOfDefine:endOfTag]
					if line[endOfTag] == '(' {
						// function-macro, no value for branch evaluation
						defs[tag] = ""
					} else {
						value := line[endOfTag+1:]
						if known, ok := defs[value]; ok {
							defs[tag] = known
						} else {
							defs[tag] = value
						}
					}
				}
				if undefs.Contains(tag) {
					delete(defs, tag)
				}
			} else if !suppressCurrentCodePath && strings.HasPrefix(line, "#undef ") {
				delete(defs, line[7:])
			} else if !suppressCurrentCodePath && strings.HasPrefix(line, "#error ") {
				p.errorDirective(filePath, linenr, line[7:])
			} else if !suppressCurrentCodePath && strings.HasPrefix(line, "#include ") {
				filename, header := getHeaderFileName(line[9:])
				if header == noHeader {
					ostr.WriteByte('\n')
					continue
				}

				var searchPath string
				if header == userHeader {
					searchPath = includerDir
				}
				resolved, content, opened := openHeader(filename, includePaths, searchPath)
				if !opened {
					if p.settings != nil && (header == userHeader || p.settings.DebugWarnings) {
						if !p.settings.Nomsg.IsSuppressed("missingInclude", "", 0) {
							p.missingInclude = true
							p.reportMissingInclude(filePath, linenr, filename, header == userHeader)
						}
					}
					ostr.WriteByte('\n')
					continue
				}

				// prevent recursive inclusion
				if slices.Contains(includes, resolved) {
					ostr.WriteByte('\n')
					continue
				}
				includes = append(includes, resolved)

				headerCode := p.Read(bytes.NewReader(content), resolved)
				ostr.WriteString("#file \"" + resolved + "\"\n")
				ostr.WriteString(p.handleIncludesWithDefs(headerCode, resolved, includePaths, defs, includes))
				ostr.WriteString("\n#endfile\n")
				continue
			}

			if !suppressCurrentCodePath {
				ostr.WriteString(line)
			}
		}

		// A line has been read..
		ostr.WriteByte('\n')
	}

	return ostr.String()
}

// handleIncludes splices every #include it can resolve, unconditionally, so
// the configuration enumerator sees the guards contributed by headers. Each
// header is spliced at most once per document (case-folded), which also
// breaks inclusion cycles. Only #include directives at the start of a line
// are handled.
func (p *Preprocessor) handleIncludes(code, filePath string, includePaths []string) string {
	paths := []string{dirOf(filePath)}
	handledFiles := collections.Set[string]{}

	pos := 0
	endfilePos := 0
	for {
		rel := strings.Index(code[pos:], "#include")
		if rel < 0 {
			break
		}
		pos += rel

		// accept only includes that are at the start of a line
		if pos > 0 && code[pos-1] != '\n' {
			pos += 8 // length of "#include"
			continue
		}

		// an #endfile between here and the previous include means we left
		// a spliced header, so drop its search path
		for {
			rel2 := strings.Index(code[endfilePos:], "\n#endfile")
			if rel2 < 0 || endfilePos+rel2 >= pos {
				break
			}
			endfilePos += rel2 + 9
			if len(paths) > 1 {
				paths = paths[:len(paths)-1]
			}
		}
		endfilePos = pos

		end := strings.IndexByte(code[pos:], '\n')
		if end < 0 {
			end = len(code)
		} else {
			end += pos
		}
		includeLine := code[pos:end]

		// remove the #include clause
		code = code[:pos] + code[end:]

		filename, header := getHeaderFileName(includeLine)
		if header == noHeader {
			continue
		}

		var searchPath string
		if header == userHeader {
			searchPath = paths[len(paths)-1]
		}
		resolved, content, opened := openHeader(filename, includePaths, searchPath)

		var processedFile string
		if opened {
			filename = simplifyPath(resolved)
			folded := strings.ToLower(filename)
			if handledFiles.Contains(folded) {
				// already spliced once, skip it to avoid an eternal loop
				continue
			}
			handledFiles.Add(folded)
			processedFile = p.Read(bytes.NewReader(content), filename)
		}

		if processedFile != "" {
			processedFile = "#file \"" + filename + "\"\n" + processedFile + "\n#endfile"
			code = code[:pos] + processedFile + code[pos:]
			paths = append(paths, dirOf(filename))
		} else if !opened && p.settings != nil && (header == userHeader || p.settings.DebugWarnings) {
			if !p.settings.Nomsg.IsSuppressed("missingInclude", "", 0) {
				p.missingInclude = true
			}
			if p.logger != nil && p.settings.CheckConfiguration {
				f, linenr := includeLocation(code, pos, filePath)
				if !p.settings.Nomsg.IsSuppressed("missingInclude", f, linenr) {
					p.reportMissingInclude(f, linenr, filename, header == userHeader)
				}
			}
		}
	}

	return code
}

// includeLocation determines the file and line number of the #include that
// used to sit at pos, walking backwards and accounting for spliced headers.
func includeLocation(code string, pos int, filePath string) (string, int) {
	f := filePath
	linenr := 1
	level := 0
	for back := 1; back <= pos; back++ {
		idx := pos - back
		if level == 0 && code[idx] == '\n' {
			linenr++
		} else if strings.HasPrefix(code[idx:], "#endfile\n") {
			level++
		} else if strings.HasPrefix(code[idx:], "#file ") {
			if level == 0 {
				linenr--
				pos1 := idx + 7
				if pos1 <= len(code) {
					if rel := strings.IndexAny(code[pos1:], "\"\n"); rel >= 0 {
						f = code[pos1 : pos1+rel]
					} else {
						f = code[pos1:]
					}
				}
				break
			}
			level--
		}
	}
	return f, linenr
}
