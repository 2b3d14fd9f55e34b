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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mzaoui/cppcheck/errorlogger"
	"github.com/mzaoui/cppcheck/settings"
)

func TestGetCodeSelectsBranch(t *testing.T) {
	p := New(nil, nil)
	source := "#ifdef A\nx;\n#else\ny;\n#endif\n"

	withA := p.GetCode(source, "A", "test.c")
	assert.Contains(t, withA, "x;")
	assert.NotContains(t, withA, "y;")

	defaultCfg := p.GetCode(source, "", "test.c")
	assert.Contains(t, defaultCfg, "y;")
	assert.NotContains(t, defaultCfg, "x;")
}

func TestGetCodeLineCountPreserved(t *testing.T) {
	p := New(nil, nil)
	sources := []string{
		"#ifdef A\nx;\n#else\ny;\n#endif\n",
		"#ifdef A\n#ifdef B\nx;\n#endif\n#endif\n",
		"a;\nb;\nc;\n",
		"#if A>1\nx;\n#endif\n",
	}
	for _, source := range sources {
		for _, cfg := range []string{"", "A", "A;B", "A=2"} {
			result := p.GetCode(source, cfg, "test.c")
			assert.Equal(t, strings.Count(source, "\n"), strings.Count(result, "\n"),
				"source=%q cfg=%q", source, cfg)
		}
	}
}

func TestGetCodeValuedConfiguration(t *testing.T) {
	p := New(nil, nil)
	source := "#if A==2\nx;\n#endif\n"
	assert.Contains(t, p.GetCode(source, "A=2", "test.c"), "x;")
	assert.NotContains(t, p.GetCode(source, "A=1", "test.c"), "x;")
}

func TestGetCodeElifChain(t *testing.T) {
	p := New(nil, nil)
	source := "#ifdef A\na;\n#elif defined(B)\nb;\n#else\nc;\n#endif\n"

	assert.Contains(t, p.GetCode(source, "A", "test.c"), "a;")
	result := p.GetCode(source, "B", "test.c")
	assert.Contains(t, result, "b;")
	assert.NotContains(t, result, "a;")
	assert.NotContains(t, result, "c;")
	assert.Contains(t, p.GetCode(source, "", "test.c"), "c;")
}

func TestGetCodeElifAfterMatchSuppressed(t *testing.T) {
	p := New(nil, nil)
	source := "#ifdef A\na;\n#elif defined(A)\nb;\n#endif\n"
	result := p.GetCode(source, "A", "test.c")
	assert.Contains(t, result, "a;")
	assert.NotContains(t, result, "b;")
}

func TestGetCodeDefineUpdatesMap(t *testing.T) {
	p := New(nil, nil)
	source := "#define A\n#ifdef A\nx;\n#endif\n"
	assert.Contains(t, p.GetCode(source, "", "test.c"), "x;")
}

func TestGetCodeUndef(t *testing.T) {
	p := New(nil, nil)
	source := "#define A\n#undef A\n#ifdef A\nx;\n#endif\n"
	assert.NotContains(t, p.GetCode(source, "", "test.c"), "x;")
}

func TestGetCodeDefineInDeadBranchIgnored(t *testing.T) {
	p := New(nil, nil)
	source := "#ifdef A\n#define B\n#endif\n#ifdef B\nx;\n#endif\n"
	assert.NotContains(t, p.GetCode(source, "", "test.c"), "x;")
}

func TestGetCodeDefineCopiesKnownValue(t *testing.T) {
	p := New(nil, nil)
	source := "#define A 2\n#define B A\n#if B==2\nx;\n#endif\n"
	assert.Contains(t, p.GetCode(source, "", "test.c"), "x;")
}

func TestGetCodeUserUndefBlocksDefine(t *testing.T) {
	set := settings.New()
	set.UserUndefs.Add("A")
	p := New(set, nil)
	source := "#define A\n#ifdef A\nx;\n#endif\n"
	assert.NotContains(t, p.GetCode(source, "", "test.c"), "x;")
}

func TestGetCodeErrorDirective(t *testing.T) {
	set := settings.New()
	set.UserDefines = "FOO"
	recorder := &errorlogger.Recorder{}
	p := New(set, recorder)

	result := p.GetCode("#error oops\n", "FOO", "test.c")
	assert.Equal(t, "", result)
	require.Len(t, recorder.ByID("preprocessorErrorDirective"), 1)
}

func TestGetCodeErrorDirectiveWithoutUserDefines(t *testing.T) {
	recorder := &errorlogger.Recorder{}
	p := New(settings.New(), recorder)

	// without user defines the configuration is still abandoned, silently
	assert.Equal(t, "", p.GetCode("#error oops\n", "", "test.c"))
	assert.Empty(t, recorder.ByID("preprocessorErrorDirective"))
}

func TestGetCodeErrorInDeadBranch(t *testing.T) {
	set := settings.New()
	set.UserDefines = "FOO"
	p := New(set, nil)

	source := "#ifdef A\n#error unreachable\n#endif\nok;\n"
	assert.Contains(t, p.GetCode(source, "FOO", "test.c"), "ok;")
}

func TestGetCodePragmaAsm(t *testing.T) {
	p := New(nil, nil)
	source := "#pragma asm\nmov a, b\n#pragma endasm\nrest;\n"
	result := p.GetCode(source, "", "test.c")
	assert.NotContains(t, result, "mov")
	assert.Contains(t, result, "rest;")
	assert.Equal(t, strings.Count(source, "\n"), strings.Count(result, "\n"))
}

func TestGetCodePragmaAsmAssignment(t *testing.T) {
	p := New(nil, nil)
	source := "#pragma asm\nmov a, b\n#pragma endasm ( VOLUME = 1 )\nrest;\n"
	assert.Contains(t, p.GetCode(source, "", "test.c"), "asm(VOLUME);")
}

func TestGetCodeFileMarkersSurvive(t *testing.T) {
	p := New(nil, nil)
	source := "#file \"x.h\"\nint x;\n#endfile\nint y;\n"
	result := p.GetCode(source, "", "test.c")
	assert.Contains(t, result, "#file \"x.h\"")
	assert.Contains(t, result, "#endfile")
}

func TestGetCodeErrorLocationInsideInclude(t *testing.T) {
	set := settings.New()
	set.UserDefines = "FOO"
	recorder := &errorlogger.Recorder{}
	p := New(set, recorder)

	source := "#file \"inner.h\"\n\n#error bad\n#endfile\n"
	p.GetCode(source, "FOO", "test.c")
	messages := recorder.ByID("preprocessorErrorDirective")
	require.Len(t, messages, 1)
	require.Len(t, messages[0].Locations, 1)
	assert.Equal(t, "inner.h", messages[0].Locations[0].File)
	assert.Equal(t, 2, messages[0].Locations[0].Line)
}
