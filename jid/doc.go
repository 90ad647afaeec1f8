// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package jid implements XMPP addresses (historically called "Jabber ID's" or
// "JID's") as described in RFC 7622. The bosh package does not import it:
// Config.To and Config.From, which fill the session-creation `to` and
// `from` attributes (XEP-0124 §7), are plain strings.
package jid // import "codeberg.org/boshgo/client/jid"
