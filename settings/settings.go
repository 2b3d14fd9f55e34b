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

// Package settings carries the analysis configuration consumed by the
// preprocessor: user macro definitions, include paths, enabled checks and
// the suppression registry.
package settings

import (
	"strings"

	"github.com/mzaoui/cppcheck/internal/collections"
)

// Settings is passed by reference into the preprocessor. The zero value is
// usable; New adds the conventional initialization.
type Settings struct {
	// UserDefines has the shape "NAME[=VAL](;NAME[=VAL])*".
	UserDefines string
	// UserUndefs names macros that must never be defined.
	UserUndefs collections.Set[string]
	// IncludePaths are searched in order when resolving #include.
	IncludePaths []string

	InlineSuppressions bool
	DebugWarnings      bool
	Experimental       bool
	CheckConfiguration bool

	// Nomsg filters diagnostics and accepts inline suppressions.
	Nomsg Suppressions

	enabled collections.Set[string]
}

func New() *Settings {
	return &Settings{
		UserUndefs: collections.Set[string]{},
		enabled:    collections.Set[string]{},
	}
}

// Enable turns on a check tag such as "style" or "information". Accepts a
// comma-separated list for convenience.
func (s *Settings) Enable(tags string) {
	if s.enabled == nil {
		s.enabled = collections.Set[string]{}
	}
	for _, tag := range strings.Split(tags, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			s.enabled.Add(tag)
		}
	}
}

// IsEnabled reports whether a check tag has been enabled.
func (s *Settings) IsEnabled(tag string) bool {
	return s.enabled.Contains(tag)
}
