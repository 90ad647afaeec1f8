// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

package jid

import (
	"encoding/xml"
	"strings"
	"testing"
)

func TestParseValid(t *testing.T) {
	for _, tc := range []struct {
		jid, lp, dp, rp string
	}{
		{"example.net", "", "example.net", ""},
		{"example.net/rp", "", "example.net", "rp"},
		{"mercutio@example.net", "mercutio", "example.net", ""},
		{"mercutio@example.net/rp", "mercutio", "example.net", "rp"},
		{"mercutio@example.net/rp@rp", "mercutio", "example.net", "rp@rp"},
		{"[::1]", "", "[::1]", ""},
	} {
		j, err := Parse(tc.jid)
		switch {
		case err != nil:
			t.Errorf("Parse(%q) returned unexpected error: %v", tc.jid, err)
		case j.Domainpart() != tc.dp:
			t.Errorf("Parse(%q) domainpart = %q, want %q", tc.jid, j.Domainpart(), tc.dp)
		case j.Localpart() != tc.lp:
			t.Errorf("Parse(%q) localpart = %q, want %q", tc.jid, j.Localpart(), tc.lp)
		case j.Resourcepart() != tc.rp:
			t.Errorf("Parse(%q) resourcepart = %q, want %q", tc.jid, j.Resourcepart(), tc.rp)
		}
	}
}

var invalidUTF8 = string([]byte{0xff, 0xfe, 0xfd})

func TestParseInvalid(t *testing.T) {
	for _, jid := range []string{
		"test@/test",
		invalidUTF8 + "@example.com/rp",
		invalidUTF8,
		"lp@/rp",
		`b"d@example.net`,
		`b&d@example.net`,
		`b'd@example.net`,
		`b:d@example.net`,
		`b<d@example.net`,
		`b>d@example.net`,
		`e@example.net/`,
	} {
		if _, err := Parse(jid); err == nil {
			t.Errorf("Parse(%q) should have failed", jid)
		}
	}
}

func TestFromPartsInvalid(t *testing.T) {
	for _, tc := range []struct {
		lp, dp, rp string
	}{
		{strings.Repeat("a", 1024), "example.net", ""},
		{"e", "example.net", strings.Repeat("a", 1024)},
		{"b/d", "example.net", ""},
		{"b@d", "example.net", ""},
		{"e", "[example.net]", ""},
	} {
		if _, err := FromParts(tc.lp, tc.dp, tc.rp); err == nil {
			t.Errorf("FromParts(%q, %q, %q) should have failed", tc.lp, tc.dp, tc.rp)
		}
	}
}

func TestEqual(t *testing.T) {
	m, err := Parse("mercutio@example.net/test")
	if err != nil {
		t.Fatal(err)
	}
	other, err := Parse("mercutio@example.net/test")
	if err != nil {
		t.Fatal(err)
	}
	bare, err := Parse("mercutio@example.net")
	if err != nil {
		t.Fatal(err)
	}
	different, err := Parse("mercutio@example.net/nope")
	if err != nil {
		t.Fatal(err)
	}

	if !m.Equal(other) {
		t.Errorf("%s and %s should be equal", m, other)
	}
	if !m.Bare().Equal(bare) {
		t.Errorf("%s and %s should be equal", m.Bare(), bare)
	}
	if m.Equal(different) {
		t.Errorf("%s and %s should not be equal", m, different)
	}
	if !((*JID)(nil)).Equal((*JID)(nil)) {
		t.Error("two nil JIDs should be equal")
	}
	if m.Equal(nil) {
		t.Error("a non-nil JID should not equal nil")
	}
}

func TestMarshalXMLAttr(t *testing.T) {
	j, err := Parse("feste@shakespeare.lit/ilyria")
	if err != nil {
		t.Fatal(err)
	}
	attr, err := j.MarshalXMLAttr(xml.Name{Local: "to"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "feste@shakespeare.lit/ilyria"; attr.Value != want {
		t.Errorf("MarshalXMLAttr value = %q, want %q", attr.Value, want)
	}

	if _, err := ((*JID)(nil)).MarshalXMLAttr(xml.Name{}); err != nil {
		t.Errorf("marshaling a nil JID should not error, got %v", err)
	}
}

func TestUnmarshalXMLAttr(t *testing.T) {
	j := &JID{}
	err := j.UnmarshalXMLAttr(xml.Attr{Value: "feste@shakespeare.lit"})
	if err != nil {
		t.Fatal(err)
	}
	if want := "feste@shakespeare.lit"; j.String() != want {
		t.Errorf("UnmarshalXMLAttr produced %q, want %q", j.String(), want)
	}

	if err := j.UnmarshalXMLAttr(xml.Attr{Value: invalidUTF8}); err == nil {
		t.Error("UnmarshalXMLAttr should fail on invalid UTF-8")
	}
}
