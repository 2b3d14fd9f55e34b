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

	"github.com/mzaoui/cppcheck/internal/condexpr"
)

func tokenAt(tokens []string, i int) string {
	if i < 0 || i >= len(tokens) {
		return ""
	}
	return tokens[i]
}

// simplifyCondition evaluates a textual #if condition against a macro map.
// defined(X) clauses and mapped identifiers are substituted, then the token
// stream is folded. The returned condition is "1" or "0" when the verdict is
// known; otherwise the condition is returned unchanged. In strict mode
// unknown defined(X) clauses count as 0.
func (p *Preprocessor) simplifyCondition(cfg map[string]string, condition string, match bool) string {
	tokens := condexpr.Tokenize(condition)
	if len(tokens) == 0 {
		return condition
	}

	if len(tokens) == 1 && condexpr.IsIdentifier(tokens[0]) {
		if value, ok := cfg[tokens[0]]; ok {
			if value == "0" {
				return "0"
			}
			return "1"
		}
		if match {
			return "0"
		}
		return condition
	}

	if len(tokens) == 2 && tokens[0] == "!" && condexpr.IsIdentifier(tokens[1]) {
		value, ok := cfg[tokens[1]]
		if !ok || value == "0" {
			return "1"
		}
		if match {
			return "0"
		}
		return condition
	}

	// replace defined() clauses and known identifiers with values
	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		if tok == "defined" {
			var name string
			span := 0
			if tokenAt(tokens, i+1) == "(" && condexpr.IsIdentifier(tokenAt(tokens, i+2)) && tokenAt(tokens, i+3) == ")" {
				name = tokens[i+2]
				span = 4
			} else if condexpr.IsIdentifier(tokenAt(tokens, i+1)) {
				name = tokens[i+1]
				span = 2
			}
			if span == 0 {
				continue
			}
			if _, ok := cfg[name]; ok {
				tokens[i] = "1"
			} else if match {
				tokens[i] = "0"
			} else {
				i += span - 1
				continue
			}
			tokens = slices.Delete(tokens, i+1, i+span)
			continue
		}
		if !condexpr.IsIdentifier(tok) {
			continue
		}
		value, ok := cfg[tok]
		if !ok {
			continue
		}
		if value != "" {
			valueTokens := condexpr.Tokenize(value)
			tokens = slices.Concat(tokens[:i], valueTokens, tokens[i+1:])
			i += len(valueTokens) - 1
		} else if isConditionBoundary(tokenAt(tokens, i-1), "(") && isConditionBoundary(tokenAt(tokens, i+1), ")") {
			// an empty define used standalone in a boolean context is truthy
			tokens[i] = "1"
		} else {
			tokens = slices.Delete(tokens, i, i+1)
			i--
		}
	}

	simplified := condexpr.Simplify(tokens)
	switch {
	case len(simplified) == 1 && simplified[0] == "1":
		return "1"
	case len(simplified) == 1 && simplified[0] == "0":
		return "0"
	case len(simplified) >= 2 && simplified[0] == "1" && simplified[1] == "||":
		return "1"
	default:
		return condition
	}
}

func isConditionBoundary(tok, paren string) bool {
	return tok == "" || tok == "&&" || tok == "||" || tok == paren
}

// matchCfgDef reports whether a configuration map selects a condition.
func (p *Preprocessor) matchCfgDef(cfg map[string]string, def string) bool {
	def = p.simplifyCondition(cfg, def, true)

	if _, ok := cfg[def]; ok {
		return true
	}
	if def == "0" {
		return false
	}
	return def == "1"
}
