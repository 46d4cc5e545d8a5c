// Package psl normalizes a mail host to its organizational root domain
// using the public suffix list, so "mail.eu.acme.com" and "news.acme.com"
// both fold to "acme.com" for profiling purposes (§4.3 "sender_domain is
// the organizational root, sender_subdomain is the raw host").
package psl

import (
	"strings"

	"golang.org/x/net/publicsuffix"
)

// OrganizationalRoot returns the registrable domain for host (e.g.
// "mail.eu.acme.com" -> "acme.com"). If host is already bare or PSL lookup
// fails, host itself (lowercased) is returned.
func OrganizationalRoot(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	if host == "" {
		return ""
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return root
}

// IsSameOrganization reports whether two hosts share an organizational root.
func IsSameOrganization(a, b string) bool {
	return OrganizationalRoot(a) == OrganizationalRoot(b)
}
