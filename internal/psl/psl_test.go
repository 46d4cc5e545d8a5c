package psl

import "testing"

func TestOrganizationalRoot(t *testing.T) {
	cases := map[string]string{
		"mail.eu.acme.com": "acme.com",
		"news.acme.com":    "acme.com",
		"acme.com":         "acme.com",
		"acme.co.uk":       "acme.co.uk",
		"":                 "",
	}
	for in, want := range cases {
		if got := OrganizationalRoot(in); got != want {
			t.Errorf("OrganizationalRoot(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsSameOrganization(t *testing.T) {
	if !IsSameOrganization("mail.acme.com", "billing.acme.com") {
		t.Errorf("expected same organization")
	}
	if IsSameOrganization("acme.com", "other.com") {
		t.Errorf("expected different organizations")
	}
}
