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
package patterns

import (
	"testing"
)

func TestMatchesAnyPattern(t *testing.T) {
	if !Matches("analytics-data", []string{"other-*", "analytics-*"}) {
		t.Error("expected bucket to match second pattern")
	}
}

func TestExactNameMatchesOnlyItself(t *testing.T) {
	if !Matches("reports", []string{"reports"}) {
		t.Error("expected exact match")
	}

	if Matches("reports-archive", []string{"reports"}) {
		t.Error("exact pattern shouldn't match a longer name")
	}
}

func TestWildcardMatchesEverything(t *testing.T) {
	for _, bucket := range []string{"a", "analytics-data", ""} {
		if !Matches(bucket, []string{"*"}) {
			t.Errorf("expected %q to match the wildcard", bucket)
		}
	}
}

func TestEmptyPatternListMatchesNothing(t *testing.T) {
	if Matches("anything", []string{}) {
		t.Error("empty pattern list should match nothing")
	}

	if Matches("anything", nil) {
		t.Error("nil pattern list should match nothing")
	}
}

func TestMatchingIsCaseSensitive(t *testing.T) {
	if Matches("Analytics-data", []string{"analytics-*"}) {
		t.Error("matching should be case-sensitive")
	}
}

func TestStarMatchesZeroCharacters(t *testing.T) {
	if !Matches("analytics-", []string{"analytics-*"}) {
		t.Error("star should match zero characters")
	}
}

func TestMalformedPatternNeverGrantsAccess(t *testing.T) {
	if Matches("anything", []string{"[unterminated"}) {
		t.Error("malformed pattern should be skipped")
	}
}

func TestIsWildcardOnly(t *testing.T) {
	if !IsWildcardOnly([]string{"*"}) {
		t.Error("expected wildcard-only")
	}

	for _, patterns := range [][]string{{"app-*"}, {"*", "app-*"}, {}, nil} {
		if IsWildcardOnly(patterns) {
			t.Errorf("unexpected wildcard-only for %v", patterns)
		}
	}
}
