// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

package attr_test

import (
	"testing"

	"codeberg.org/boshgo/client/internal/attr"
)

func strp(s string) *string { return &s }

func TestParseVersion(t *testing.T) {
	v, ok, err := attr.ParseVersion(strp("1.10"))
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}
	if v.Major != 1 || v.Minor != 10 {
		t.Fatalf("got %+v, want {1 10}", v)
	}

	if _, ok, err := attr.ParseVersion(nil); ok || err != nil {
		t.Fatalf("nil input should yield ok=false, err=nil; got ok=%v err=%v", ok, err)
	}

	for _, bad := range []string{"1", "1.a", "a.1", "-1.0", "1.-1", ""} {
		if bad == "" {
			continue
		}
		if _, _, err := attr.ParseVersion(strp(bad)); err == nil {
			t.Errorf("ParseVersion(%q) should have failed", bad)
		}
	}
}

func TestVersionCompare(t *testing.T) {
	lo := attr.Version{Major: 2, Minor: 9}
	hi := attr.Version{Major: 2, Minor: 10}
	if lo.Compare(hi) >= 0 {
		t.Error("2.9 should compare less than 2.10 numerically, not lexicographically")
	}
	if hi.Compare(lo) <= 0 {
		t.Error("2.10 should compare greater than 2.9")
	}
	if lo.Compare(lo) != 0 {
		t.Error("a version should compare equal to itself")
	}
}
