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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaoui/cppcheck/errorlogger"
	"github.com/mzaoui/cppcheck/settings"
)

func getConfigs(t *testing.T, source string) []string {
	t.Helper()
	p := New(settings.New(), &errorlogger.Recorder{})
	// the same normalization PreprocessText applies before enumerating
	text := p.Read(strings.NewReader(source), "test.c")
	text = replaceIfDefined(normalizeDefined(removeAsm(text)))
	return p.GetConfigs(text, "test.c")
}

func TestGetConfigs(t *testing.T) {
	testCases := []struct {
		name     string
		source   string
		expected []string
	}{
		{
			"no conditionals",
			"int x;\n",
			[]string{""},
		},
		{
			"two independent guards",
			"#ifdef A\nx\n#endif\n#ifdef B\ny\n#endif\n",
			[]string{"", "A", "B"},
		},
		{
			"nested guards with else",
			"#ifdef A\n#ifdef B\nx\n#else\ny\n#endif\n#endif\n",
			[]string{"", "A", "A;B"},
		},
		{
			"ifndef",
			"#ifndef A\nx\n#endif\n",
			[]string{"", "A"},
		},
		{
			"elif alternatives",
			"#ifdef A\nx\n#elif defined(B)\ny\n#endif\n",
			[]string{"", "A", "B"},
		},
		{
			"already defined symbols are dropped",
			"#define A 1\n#ifdef A\nx\n#endif\n",
			[]string{""},
		},
		{
			"and-combined conditions project to identifiers",
			"#if defined(A) && defined(B)\nx\n#endif\n",
			[]string{"", "A;B"},
		},
		{
			"duplicated nested guard counted once",
			"#ifdef A\n#ifdef A\nx\n#endif\n#endif\n",
			[]string{"", "A"},
		},
		{
			"negative guard does not leak into children",
			"#ifndef A\n#ifdef B\nx\n#endif\n#endif\n",
			[]string{"", "A", "B"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, getConfigs(t, tc.source))
		})
	}
}

func TestGetConfigsSortedUniqueWithDefault(t *testing.T) {
	sources := []string{
		"#ifdef Z\n#endif\n#ifdef A\n#endif\n#ifdef Z\n#endif\n",
		"#ifdef B\n#ifdef B\n#endif\n#endif\n",
		"x;\n",
	}
	for _, source := range sources {
		configs := getConfigs(t, source)
		assert.True(t, slices.IsSorted(configs), "not sorted: %v", configs)
		assert.Equal(t, slices.Compact(slices.Clone(configs)), configs, "not unique: %v", configs)
		assert.Contains(t, configs, "")
	}
}

func TestGetConfigsIncludeGuard(t *testing.T) {
	source := "#file \"x.h\"\n#ifndef X_H\n#define X_H\nint x;\n#endif\n#endfile\n"
	p := New(settings.New(), nil)
	configs := p.GetConfigs(source, "test.c")
	assert.NotContains(t, configs, "X_H")
}

func TestGetConfigsMismatchedParens(t *testing.T) {
	recorder := &errorlogger.Recorder{}
	p := New(settings.New(), recorder)
	configs := p.GetConfigs("#ifdef A(\nx\n#endif\n", "test.c")
	assert.Empty(t, configs)
	require.Len(t, recorder.ByID("preprocessorParentheses"), 1)
	assert.Contains(t, recorder.ByID("preprocessorParentheses")[0].Text, "mismatching number")
}

func TestGetConfigsUnhandledDropped(t *testing.T) {
	set := settings.New()
	set.DebugWarnings = true
	recorder := &errorlogger.Recorder{}
	p := New(set, recorder)

	configs := p.GetConfigs("#if A+B\nx\n#endif\n", "test.c")
	assert.Equal(t, []string{""}, configs)
	require.NotEmpty(t, recorder.ByID("debug"))
	assert.Contains(t, recorder.ByID("debug")[0].Text, "unhandled configuration:")
}

func TestGetConfigsValuedDefine(t *testing.T) {
	// a guard on a #define'd value simplifies away
	source := "#define MAXVAL 5\n#if MAXVAL>3\nx\n#endif\n"
	assert.Equal(t, []string{""}, getConfigs(t, source))
}

func TestUnify(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"B;C;A", "A;B;C"},
		{"A;A;B", "A;B"},
		{"A", "A"},
		{"", ""},
		{";A;", "A"},
	}
	for _, tc := range testCases {
		result := unify(tc.input, ";")
		assert.Equal(t, tc.expected, result, "input: %q", tc.input)
		// canonicalization is idempotent
		assert.Equal(t, result, unify(result, ";"), "input: %q", tc.input)
	}
}

func TestGetConfigsProgressReported(t *testing.T) {
	var stages []string
	p := New(settings.New(), progressRecorder{stages: &stages})
	p.GetConfigs("#ifdef A\nx\n#endif\n", "test.c")
	assert.Contains(t, stages, "Preprocessing (get configurations 1)")
	assert.Contains(t, stages, "Preprocessing (get configurations 2)")
}

type progressRecorder struct {
	stages *[]string
}

func (progressRecorder) ReportErr(msg errorlogger.Message) {}

func (r progressRecorder) ReportProgress(filename, stage string, value int) {
	*r.stages = append(*r.stages, stage)
}
