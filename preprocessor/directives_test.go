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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocessCleanupDirectives(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"#if(A)\n", "#if (A)\n"},
		{"#if!defined(A)\n", "#if !defined (A)\n"},
		{"#if  A  ==  1\n", "#if A == 1\n"},
		{"  #define X 1\n", "#define X 1\n"},
		{"#define S \"a  b\"\n", "#define S \"a  b\"\n"},
		{"code  stays\n", "code  stays\n"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, preprocessCleanupDirectives(tc.input), "input: %q", tc.input)
	}
}

func TestRemoveParentheses(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"#if (A)\n", "#if A\n"},
		{"#if ((A))\n", "#if A\n"},
		{"#if (defined(X))\n", "#if defined(X)\n"},
		{"#if (A) || defined (B)\n", "#if (A)|| defined(B)\n"},
		{"#elif (A)\n", "#elif A\n"},
		{"#ifdef A\n", "#ifdef A\n"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, removeParentheses(tc.input), "input: %q", tc.input)
	}
}

func TestRemoveIf0(t *testing.T) {
	input := "#if 0\njunk\n#endif\nok\n"
	expected := "#if 0\n\n#endif\nok\n"
	assert.Equal(t, expected, removeIf0(input))
}

func TestRemoveIf0KeepsElseBranch(t *testing.T) {
	input := "#if 0\njunk\n#else\nkept\n#endif\n"
	expected := "#if 0\n\n#else\nkept\n#endif\n"
	assert.Equal(t, expected, removeIf0(input))
}

func TestRemoveIf0Nested(t *testing.T) {
	input := "#if 0\n#ifdef A\nx\n#endif\ny\n#endif\nok\n"
	expected := "#if 0\n#ifdef A\n\n#endif\n\n#endif\nok\n"
	assert.Equal(t, expected, removeIf0(input))
}

func TestRemoveAsm(t *testing.T) {
	input := "#asm\nmov a, b\n#endasm\n"
	result := removeAsm(input)
	assert.Contains(t, result, "asm(")
	assert.Contains(t, result, ");")
	assert.NotContains(t, result, "#asm")
	assert.NotContains(t, result, "#endasm")
}

func TestNormalizeDefined(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"#if defined A\n", "#if defined(A)\n"},
		{"#if defined A && defined B\n", "#if defined(A) && defined(B)\n"},
		{"#if defined A || x\n", "#if defined(A) || x\n"},
		{"#elif defined B\n", "#elif defined(B)\n"},
		{"#ifdef A\n", "#ifdef A\n"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, normalizeDefined(tc.input), "input: %q", tc.input)
	}
}

func TestReplaceIfDefined(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"#if defined(X)\n", "#ifdef X\n"},
		{"#if !defined(X)\n", "#ifndef X\n"},
		{"#elif defined(X)\n", "#elif X\n"},
		{"#if defined(X) && defined(Y)\n", "#if defined(X) && defined(Y)\n"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, replaceIfDefined(tc.input), "input: %q", tc.input)
	}
}

func TestReadNormalizesConditionals(t *testing.T) {
	// the full cleaning pipeline rewrites a redundant parenthesis pair
	assert.Equal(t, "#if defined(X)\n", read(t, "#if(defined(X))\n"))
}

func TestGetdef(t *testing.T) {
	testCases := []struct {
		line     string
		def      bool
		expected string
	}{
		{"#ifdef A", true, "A"},
		{"#ifndef A", false, "A"},
		{"#ifndef A", true, ""},
		{"#ifdef A", false, ""},
		{"#if A", true, "A"},
		{"#if defined(A)&&defined(B)", true, "defined(A)&&defined(B)"},
		{"#elif A", true, "A"},
		{"#elif !defined(A)", false, "A"},
		{"#elif !defined(A)", true, ""},
		{"#if A == 1", true, "A==1"},
		{"#if A B", true, "A B"},
		{"not a directive", true, ""},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, getdef(tc.line, tc.def), "line: %q def: %v", tc.line, tc.def)
	}
}
