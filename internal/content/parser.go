// Package content turns a message's HTML/text body into the structured
// ParsedContent row the profiler, segmenter, and gem detector read (§4.4).
package content

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/hoyack/gemsieve/internal/domain"
)

var sanitizer = bluemonday.StrictPolicy()

// ctaVerbs is the vocabulary of call-to-action phrasing scanned for on
// every link/button (§4.4 "CTA extraction").
var ctaVerbs = regexp.MustCompile(`(?i)\b(shop now|buy now|get started|sign up|subscribe|learn more|book (a )?(call|demo)|schedule|claim (your|this)|redeem|upgrade|register|download|try (it )?free|start (your )?trial|act now|apply now|join (now|us))\b`)

// offerKeywords maps a regex to the offer_types tag it implies (§4.4).
var offerKeywords = []struct {
	pattern *regexp.Regexp
	offer   string
}{
	{regexp.MustCompile(`(?i)\d{1,3}%\s*off`), "percent_discount"},
	{regexp.MustCompile(`(?i)\bfree\s+(shipping|trial|month|gift)\b`), "free_value_add"},
	{regexp.MustCompile(`(?i)\bbogo\b|\bbuy one get one\b`), "bogo"},
	{regexp.MustCompile(`(?i)\blimited time\b|\bends (today|soon|tonight)\b|\bflash sale\b`), "urgency"},
	{regexp.MustCompile(`(?i)\bbundle\b|\bpackage deal\b`), "bundle"},
	{regexp.MustCompile(`(?i)\bwebinar\b|\bworkshop\b`), "event"},
	{regexp.MustCompile(`(?i)\bcase study\b|\bwhitepaper\b|\breport\b`), "content_offer"},
}

var personalizationTokenPattern = regexp.MustCompile(`\{\{[^}]+\}\}|%[A-Z_]+%|\[FIRST[ _]?NAME\]`)

var quoteHeaderPattern = regexp.MustCompile(`(?im)^(on .+ wrote:|-{2,}\s*original message\s*-{2,}|from:\s*.+\n?sent:)`)

var signatureStartPattern = regexp.MustCompile(`(?im)^(--\s*$|best( regards)?,|regards,|thanks,|sincerely,|cheers,)`)

// Parse extracts a ParsedContent row from a message (§4.4).
func Parse(msg domain.Message) domain.ParsedContent {
	body := msg.HTMLBody
	if body == "" {
		return parseTextOnly(msg)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return parseTextOnly(msg)
	}

	pc := domain.ParsedContent{MessageID: msg.MessageID}
	pc.LinkIntents = map[string][]string{}
	pc.SocialLinks = map[string]string{}

	fullText := strings.TrimSpace(doc.Text())
	pc.BodyClean, pc.SignatureBlock, pc.FooterBlock = splitSections(fullText)
	pc.PrimaryHeadline = primaryHeadline(doc)

	linkDomains := map[string]bool{}
	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		text := strings.TrimSpace(s.Text())
		pc.LinkCount++

		if u, err := url.Parse(href); err == nil && u.Host != "" {
			linkDomains[strings.ToLower(u.Host)] = true
			if campaign := u.Query().Get("utm_campaign"); campaign != "" {
				pc.UTMCampaigns = appendUnique(pc.UTMCampaigns, campaign)
			}
		}

		intent := classifyLinkIntent(href, text)
		pc.LinkIntents[intent] = append(pc.LinkIntents[intent], href)

		if ctaVerbs.MatchString(text) {
			pc.CTATexts = appendUnique(pc.CTATexts, text)
		}
		if social, handle := socialPlatform(href); social != "" {
			pc.SocialLinks[social] = handle
		}
	})
	for d := range linkDomains {
		pc.UniqueLinkDomains = append(pc.UniqueLinkDomains, d)
	}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		pc.ImageCount++
		if w, _ := s.Attr("width"); w == "1" {
			if h, _ := s.Attr("height"); h == "1" {
				pc.TrackingPixelCount++
			}
		}
	})

	for _, rule := range offerKeywords {
		if rule.pattern.MatchString(fullText) {
			pc.OfferTypes = appendUnique(pc.OfferTypes, rule.offer)
		}
	}

	if toks := personalizationTokenPattern.FindAllString(fullText, -1); len(toks) > 0 {
		pc.HasPersonalization = true
		pc.PersonalizationTokens = dedupe(toks)
	}
	if addr := physicalAddress(fullText); addr != "" {
		pc.PhysicalAddress = addr
	}

	pc.TemplateComplexityScore = complexityScore(doc, pc)
	return pc
}

func parseTextOnly(msg domain.Message) domain.ParsedContent {
	pc := domain.ParsedContent{MessageID: msg.MessageID, LinkIntents: map[string][]string{}, SocialLinks: map[string]string{}}
	pc.BodyClean, pc.SignatureBlock, pc.FooterBlock = splitSections(msg.TextBody)
	return pc
}

// splitSections strips quoted history and trailing signature/footer
// blocks from a plain-text rendering of the body (§4.4 "quote/signature/
// footer stripping").
func splitSections(text string) (body, signature, footer string) {
	if loc := quoteHeaderPattern.FindStringIndex(text); loc != nil {
		text = text[:loc[0]]
	}
	if loc := signatureStartPattern.FindStringIndex(text); loc != nil {
		return strings.TrimSpace(text[:loc[0]]), strings.TrimSpace(text[loc[0]:]), ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 6 {
		tail := strings.Join(lines[len(lines)-3:], "\n")
		if strings.Contains(strings.ToLower(tail), "unsubscribe") {
			return strings.TrimSpace(strings.Join(lines[:len(lines)-3], "\n")), "", strings.TrimSpace(tail)
		}
	}
	return strings.TrimSpace(text), "", ""
}

func primaryHeadline(doc *goquery.Document) string {
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return h
	}
	if h := strings.TrimSpace(doc.Find("h2").First().Text()); h != "" {
		return h
	}
	return ""
}

// classifyLinkIntent buckets a link by what it's for (§4.4 "link-intent
// classification").
func classifyLinkIntent(href, text string) string {
	lower := strings.ToLower(href + " " + text)
	switch {
	case strings.Contains(lower, "unsubscribe"):
		return "unsubscribe"
	case strings.Contains(lower, "preferences") || strings.Contains(lower, "manage subscription"):
		return "preferences"
	case strings.Contains(lower, "/pixel") || strings.Contains(lower, "open.aspx") || strings.Contains(lower, "track"):
		return "tracking"
	case ctaVerbs.MatchString(text):
		return "cta"
	case strings.Contains(lower, "facebook.com") || strings.Contains(lower, "twitter.com") ||
		strings.Contains(lower, "x.com") || strings.Contains(lower, "linkedin.com") || strings.Contains(lower, "instagram.com"):
		return "social"
	default:
		return "other"
	}
}

func socialPlatform(href string) (platform, handle string) {
	u, err := url.Parse(href)
	if err != nil {
		return "", ""
	}
	host := strings.ToLower(u.Host)
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	handle = segments[len(segments)-1]
	switch {
	case strings.Contains(host, "linkedin.com"):
		return "linkedin", handle
	case strings.Contains(host, "twitter.com") || strings.Contains(host, "x.com"):
		return "twitter", handle
	case strings.Contains(host, "facebook.com"):
		return "facebook", handle
	case strings.Contains(host, "instagram.com"):
		return "instagram", handle
	default:
		return "", ""
	}
}

var physicalAddressPattern = regexp.MustCompile(`\d{1,6}\s+[A-Za-z0-9.,'\s]{5,60},\s*[A-Za-z\s]+,\s*[A-Z]{2}\s*\d{5}`)

func physicalAddress(text string) string {
	return strings.TrimSpace(physicalAddressPattern.FindString(text))
}

// complexityScore is a coarse 0..100 proxy for template sophistication:
// more images, more unique link domains, more tables, and more
// style elements/inline styles all push it up (§4.4 "template_complexity_score", §4.7.1
// "marketing_sophistication" input).
func complexityScore(doc *goquery.Document, pc domain.ParsedContent) int {
	score := 0
	score += min(pc.ImageCount*4, 30)
	score += min(len(pc.UniqueLinkDomains)*3, 20)
	score += min(doc.Find("table").Length()*2, 20)
	score += min(doc.Find("style,[style]").Length(), 15)
	if len(pc.SocialLinks) > 0 {
		score += 10
	}
	if pc.TrackingPixelCount > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func dedupe(list []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range list {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Sanitize strips all markup, returning bluemonday-cleaned text — used
// when rendering sender-supplied HTML anywhere gemsieve's own UI echoes
// it back (the admin surface's gem explanation/preview views).
func Sanitize(html string) string {
	return sanitizer.Sanitize(html)
}
