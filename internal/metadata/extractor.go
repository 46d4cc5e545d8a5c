// Package metadata turns a raw domain.Message into the header/infra
// forensics row the rest of the pipeline reads (§4.3). It never touches
// the message body — that is internal/content's job.
package metadata

import (
	"net/mail"
	"regexp"
	"strings"

	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/psl"
)

// espFingerprint is one ESP's detection rule: a header key and a substring
// to match against its value.
type espFingerprint struct {
	name       string
	headerKey  string
	substrings []string
	confidence domain.ESPConfidence
}

// espFingerprints is the ordered fingerprint table, most-specific header
// matches first. Grounded in how real ESPs stamp their outbound mail
// (X-Mailer, Message-ID host, List-Unsubscribe domain).
var espFingerprints = []espFingerprint{
	{"Mailchimp", "x-mailer", []string{"mailchimp"}, domain.ESPConfidenceHigh},
	{"Mailchimp", "message-id", []string{"mailchimp.com"}, domain.ESPConfidenceHigh},
	{"SendGrid", "x-mailer", []string{"sendgrid"}, domain.ESPConfidenceHigh},
	{"SendGrid", "message-id", []string{"sendgrid.net"}, domain.ESPConfidenceHigh},
	{"HubSpot", "x-mailer", []string{"hubspot"}, domain.ESPConfidenceHigh},
	{"HubSpot", "message-id", []string{"hubspotemail.net"}, domain.ESPConfidenceHigh},
	{"Marketo", "x-mailer", []string{"marketo"}, domain.ESPConfidenceHigh},
	{"Salesforce Marketing Cloud", "message-id", []string{"exacttarget.com", "marketingcloudapps.com"}, domain.ESPConfidenceHigh},
	{"Constant Contact", "message-id", []string{"constantcontact.com"}, domain.ESPConfidenceHigh},
	{"Klaviyo", "message-id", []string{"klaviyomail.com"}, domain.ESPConfidenceHigh},
	{"Amazon SES", "x-mailer", []string{"amazon ses", "amazonses"}, domain.ESPConfidenceMedium},
	{"Mailgun", "message-id", []string{"mailgun.org"}, domain.ESPConfidenceMedium},
	{"SparkPost", "message-id", []string{"sparkpostmail.com"}, domain.ESPConfidenceMedium},
	{"Outlook/Exchange", "x-mailer", []string{"microsoft outlook", "microsoft exchange"}, domain.ESPConfidenceLow},
	{"Gmail", "x-mailer", []string{"gmail"}, domain.ESPConfidenceLow},
}

var bulkPrecedenceValues = map[string]bool{"bulk": true, "list": true, "junk": true}

// Extract builds a ParsedMetadata row from a message's headers (§4.3).
func Extract(msg domain.Message) domain.ParsedMetadata {
	h := msg.RawHeaders

	senderHost := hostOf(msg.From.Email)
	espName, espConf := fingerprintESP(h)

	m := domain.ParsedMetadata{
		MessageID:            msg.MessageID,
		SenderDomain:         psl.OrganizationalRoot(senderHost),
		SenderSubdomain:      senderHost,
		EnvelopeSender:       envelopeSender(h),
		ESPIdentified:        espName,
		ESPConfidence:        espConf,
		DKIMDomain:           authResultDomain(h["authentication-results"], "dkim"),
		SPFResult:            authResultVerdict(h["authentication-results"], "spf"),
		DMARCResult:          authResultVerdict(h["authentication-results"], "dmarc"),
		SendingIP:            receivedIP(h["received"]),
		MailServer:           h["x-mailer"],
		XMailer:              h["x-mailer"],
		Precedence:           h["precedence"],
		FeedbackID:           h["feedback-id"],
		ListUnsubscribeURL:   listUnsubscribeURL(h["list-unsubscribe"]),
		ListUnsubscribeEmail: listUnsubscribeEmail(h["list-unsubscribe"]),
	}
	m.IsBulk = isBulk(h, m)
	return m
}

func fingerprintESP(h map[string]string) (string, domain.ESPConfidence) {
	for _, fp := range espFingerprints {
		val := strings.ToLower(h[fp.headerKey])
		if val == "" {
			continue
		}
		for _, sub := range fp.substrings {
			if strings.Contains(val, sub) {
				return fp.name, fp.confidence
			}
		}
	}
	return "", ""
}

func hostOf(email string) string {
	parts := strings.SplitN(email, "@", 2)
	if len(parts) != 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}

func envelopeSender(h map[string]string) string {
	if v := h["return-path"]; v != "" {
		if addr, err := mail.ParseAddress(strings.Trim(v, "<>")); err == nil {
			return addr.Address
		}
		return strings.Trim(v, "<> ")
	}
	return ""
}

var authResultsPattern = regexp.MustCompile(`(?i)(dkim|spf|dmarc)=(\w+)`)
var authResultsHeaderPattern = regexp.MustCompile(`(?i)header\.d=([\w.-]+)`)

// authResultVerdict extracts the pass/fail/none verdict for a given
// mechanism from a raw Authentication-Results header value.
func authResultVerdict(raw, mechanism string) string {
	for _, m := range authResultsPattern.FindAllStringSubmatch(raw, -1) {
		if strings.EqualFold(m[1], mechanism) {
			return strings.ToLower(m[2])
		}
	}
	return ""
}

// authResultDomain pulls the header.d= domain associated with a dkim
// verdict out of Authentication-Results.
func authResultDomain(raw, mechanism string) string {
	if mechanism != "dkim" {
		return ""
	}
	if m := authResultsHeaderPattern.FindStringSubmatch(raw); m != nil {
		return strings.ToLower(m[1])
	}
	return ""
}

var receivedIPPattern = regexp.MustCompile(`\[(\d{1,3}(?:\.\d{1,3}){3})\]`)

func receivedIP(raw string) string {
	if m := receivedIPPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

var listUnsubscribeURLPattern = regexp.MustCompile(`<(https?://[^>]+)>`)
var listUnsubscribeEmailPattern = regexp.MustCompile(`<mailto:([^>]+)>`)

func listUnsubscribeURL(raw string) string {
	if m := listUnsubscribeURLPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func listUnsubscribeEmail(raw string) string {
	if m := listUnsubscribeEmailPattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// isBulk applies the §4.3 bulk-mail heuristic: a recognized ESP, a bulk
// Precedence header, or a List-Unsubscribe header all count as evidence.
func isBulk(h map[string]string, m domain.ParsedMetadata) bool {
	if m.ESPIdentified != "" && m.ESPIdentified != "Outlook/Exchange" && m.ESPIdentified != "Gmail" {
		return true
	}
	if bulkPrecedenceValues[strings.ToLower(h["precedence"])] {
		return true
	}
	if m.ListUnsubscribeURL != "" || m.ListUnsubscribeEmail != "" {
		return true
	}
	return false
}
