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

package settings

import (
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/bmatcuk/doublestar/v4"
)

var suppressionIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

type suppression struct {
	id   string
	file string // doublestar pattern; "" matches everything
	line int    // 0 matches every line
}

// Suppressions registers message ids that must not be reported. File entries
// are doublestar patterns, so "src/**/*.c" suppresses across a whole tree.
type Suppressions struct {
	entries []suppression
}

// Add registers a suppression. An empty file with a nonzero line is
// rejected, as is a malformed id.
func (s *Suppressions) Add(id, file string, line int) error {
	if !suppressionIDRegex.MatchString(id) {
		return fmt.Errorf("failed to add suppression, invalid id %q", id)
	}
	if file == "" && line > 0 {
		return fmt.Errorf("failed to add suppression, bad line number %d without a file", line)
	}
	s.entries = append(s.entries, suppression{id: id, file: filepath.ToSlash(file), line: line})
	return nil
}

// IsSuppressed reports whether a message with the given id at file:line has
// been suppressed.
func (s *Suppressions) IsSuppressed(id, file string, line int) bool {
	file = filepath.ToSlash(file)
	for _, entry := range s.entries {
		if entry.id != id {
			continue
		}
		if entry.file != "" && !doublestar.MatchUnvalidated(entry.file, file) {
			continue
		}
		if entry.line != 0 && entry.line != line {
			continue
		}
		return true
	}
	return false
}
