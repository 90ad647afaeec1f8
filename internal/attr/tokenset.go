// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr

import "strings"

// ParseTokenSet parses an `accept` (or `charsets`) attribute: a
// comma-or-space-separated list of tokens, such as "gzip, deflate". A nil
// or empty input returns ok=false and no error; it is not an error for an
// individual token list to be empty-after-trimming, it simply contributes
// no entries.
func ParseTokenSet(s *string) (tokens []string, ok bool, err error) {
	if s == nil || *s == "" {
		return nil, false, nil
	}
	for _, field := range strings.FieldsFunc(*s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	}) {
		if field != "" {
			tokens = append(tokens, field)
		}
	}
	return tokens, true, nil
}

// HasToken reports whether tokens contains name, case-insensitively (as
// HTTP content-coding tokens are).
func HasToken(tokens []string, name string) bool {
	for _, t := range tokens {
		if strings.EqualFold(t, name) {
			return true
		}
	}
	return false
}
