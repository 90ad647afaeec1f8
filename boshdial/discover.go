// Copyright 2026 The bosh Contributors.
// Use of this source code is governed by the BSD 2-clause license that can be
// found in the LICENSE file.

// Package boshdial discovers BOSH connection manager endpoints for an XMPP
// domain, the "how do I get a URL" companion to the bosh package, adapted
// from the teacher's internal/discover package (which performs the
// analogous lookup for plain XMPP and websocket connections). It is
// entirely optional: a caller that already has a literal endpoint URL can
// skip this package and call bosh.Dial directly.
package boshdial

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	boshPrefix = "_xmpp-client-xbosh="
	boshRel    = "urn:xmpp:alt-connections:xbosh"
	hostMeta   = "/.well-known/host-meta"
)

// ErrNoEndpoint is returned by LookupEndpoints when neither DNS nor
// host-meta discovery found a BOSH connection manager for the domain.
var ErrNoEndpoint = errors.New("boshdial: no BOSH endpoint advertised for this domain")

// xrd represents an Extensible Resource Descriptor document (RFC 6415),
// the format host-meta discovery returns:
//
//	<?xml version="1.0" encoding="UTF-8"?>
//	<XRD xmlns="http://docs.oasis-open.org/ns/xri/xrd-1.0">
//	  <Link rel="urn:xmpp:alt-connections:xbosh"
//	        href="https://web.example.com:5280/bosh" />
//	</XRD>
type xrd struct {
	XMLName xml.Name `xml:"http://docs.oasis-open.org/ns/xri/xrd-1.0 XRD"`
	Links   []link   `xml:"Link"`
}

type link struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

// LookupEndpoints discovers BOSH connection manager endpoints for domain
// using the two mechanisms XEP-0156 describes for BOSH-over-DNS discovery:
// a DNS TXT record carrying a `_xmpp-client-xbosh=` entry, and a
// `/.well-known/host-meta` XRD document carrying an
// `urn:xmpp:alt-connections:xbosh` link. Both lookups run concurrently;
// the first to return a non-empty result cancels the other. If both return
// results, the DNS result is used. If client is nil, only the DNS lookup is
// performed.
func LookupEndpoints(ctx context.Context, client *http.Client, domain string) ([]string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg                 sync.WaitGroup
		dnsURLs, metaURLs  []string
		dnsErr, metaErr    error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		dnsURLs, dnsErr = lookupDNS(ctx, domain)
		if dnsErr == nil && len(dnsURLs) > 0 {
			cancel()
		}
	}()

	if client != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metaURLs, metaErr = lookupHostMeta(ctx, client, domain)
			if metaErr == nil && len(metaURLs) > 0 {
				cancel()
			}
		}()
	}
	wg.Wait()

	switch {
	case dnsErr == nil && len(dnsURLs) > 0:
		return dnsURLs, nil
	case metaErr == nil && len(metaURLs) > 0:
		return metaURLs, nil
	case dnsErr != nil:
		return nil, dnsErr
	case metaErr != nil:
		return nil, metaErr
	}
	return nil, ErrNoEndpoint
}

func lookupDNS(ctx context.Context, domain string) ([]string, error) {
	txts, err := net.DefaultResolver.LookupTXT(ctx, domain)
	if err != nil {
		return nil, err
	}
	var urls []string
	for _, txt := range txts {
		if u := strings.TrimPrefix(txt, boshPrefix); u != txt {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

func lookupHostMeta(ctx context.Context, client *http.Client, domain string) ([]string, error) {
	u := &url.URL{Scheme: "https", Host: domain, Path: hostMeta}
	return fetchXRDLinks(ctx, client, u.String())
}

// fetchXRDLinks retrieves and parses the XRD document at endpoint, returning
// the href of every Link whose rel is boshRel. Split out from lookupHostMeta
// so tests can point it at a plain-http test server instead of a real
// "https://domain/.well-known/host-meta" URL.
func fetchXRDLinks(ctx context.Context, client *http.Client, endpoint string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var doc xrd
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, err
	}
	var urls []string
	for _, l := range doc.Links {
		if l.Rel == boshRel {
			urls = append(urls, l.Href)
		}
	}
	return urls, nil
}
