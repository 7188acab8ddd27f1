// Copyright 2023 s3bridge authors
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

// Package patterns matches bucket names against the glob patterns a
// service is authorized for. It is the only gate between a service
// wanting to touch a bucket and being allowed to.
package patterns

import (
	"github.com/bmatcuk/doublestar/v4"
)

// Matches reports whether bucket matches any of the authorized
// patterns. Matching is case-sensitive, `*` matches zero or more
// characters and an exact string matches only itself. An empty
// pattern list matches nothing.
func Matches(bucket string, patterns []string) bool {
	for _, pattern := range patterns {
		ok, err := doublestar.Match(pattern, bucket)
		if err != nil {
			// a malformed pattern never grants access
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// IsWildcardOnly reports whether the pattern list is the reserved
// universal form, a single "*". Only the universal service may carry
// it; administrative operations use this to refuse it elsewhere.
func IsWildcardOnly(patterns []string) bool {
	return len(patterns) == 1 && patterns[0] == "*"
}
