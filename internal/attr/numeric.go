// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr

import (
	"fmt"
	"strconv"
)

// ParseNonNegInt parses an attribute that must be a non-negative integer,
// such as `inactivity`, `polling`, `requests`, `maxpause`, `pause`, or
// `hold`. A nil or empty input returns ok=false and no error.
func ParseNonNegInt(s *string) (n int, ok bool, err error) {
	if s == nil || *s == "" {
		return 0, false, nil
	}
	n, err = strconv.Atoi(*s)
	if err != nil {
		return 0, false, fmt.Errorf("attr: malformed integer %q: %w", *s, err)
	}
	if n < 0 {
		return 0, false, fmt.Errorf("attr: integer attribute %q must not be negative", *s)
	}
	return n, true, nil
}
