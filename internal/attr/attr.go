// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause
// license that can be found in the LICENSE file.

// Package attr parses and looks up BOSH body attributes (XEP-0124 §15/§17),
// each of which carries semantics beyond an opaque string.
package attr

import (
	"encoding/xml"
)

// Get returns the value and index of the first attribute with the provided
// local name from a list of attributes or -1 and an empty string if no such
// attribute exists. Attribute names are matched on the local part only;
// callers that must distinguish namespaces (as the Body type does) use
// GetQName instead.
func Get(attr []xml.Attr, local string) (int, string) {
	for idx, a := range attr {
		if a.Name.Local == local {
			return idx, a.Value
		}
	}
	return -1, ""
}

// GetQName returns the value and index of the first attribute matching the
// fully qualified name, or -1 and an empty string if none match.
func GetQName(attr []xml.Attr, name xml.Name) (int, string) {
	for idx, a := range attr {
		if a.Name == name {
			return idx, a.Value
		}
	}
	return -1, ""
}
