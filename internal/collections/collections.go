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

// Package collections provides small generic helpers for slices and a Set
// type used across the preprocessor pipeline.
package collections

// Map applies the provided transformation function `fn` to each element of
// the input slice `s` and returns a new slice of the resulting values.
func Map[TSlice ~[]T, T, V any](s TSlice, fn func(T) V) []V {
	result := make([]V, 0, len(s))
	for _, elem := range s {
		result = append(result, fn(elem))
	}
	return result
}

// Filter returns a new slice containing only the elements of `s` for which
// the `predicate` function returns true.
func Filter[TSlice ~[]T, T any](s TSlice, predicate func(T) bool) TSlice {
	var result TSlice
	for _, elem := range s {
		if predicate(elem) {
			result = append(result, elem)
		}
	}
	return result
}
