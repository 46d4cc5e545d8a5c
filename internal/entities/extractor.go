// Package entities turns a message's cleaned body plus its tagger output
// into the extracted_entities rows the profiler and gem detector read
// (§4.5). NER spans come from an external tagger (internal/ner); money,
// phone, URL, role, and procurement-signal spans are found by regex here.
package entities

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/ner"
)

var moneyPattern = regexp.MustCompile(`(?i)(\$\s?\d[\d,]*(\.\d{2})?|\d[\d,]*(\.\d{2})?\s?(usd|dollars))|\b\d{1,5}\s?/\s?(mo|month|yr|year)\b|\b\d{1,3}%\s*(off|discount)\b`)

var phonePattern = regexp.MustCompile(`\+?\d{1,2}[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}\b`)

var urlPattern = regexp.MustCompile(`https?://[^\s<>"']+`)

var rolePattern = regexp.MustCompile(`(?i)\b(ceo|cfo|coo|cto|president|vp|vice president|director|head of [a-z ]+|founder|co-founder|chief [a-z]+ officer)\b`)

var seniorTitlePattern = regexp.MustCompile(`(?i)\b(ceo|cfo|coo|cto|president|vp|vice president|chief [a-z]+ officer|founder|co-founder)\b`)

// procurementSignal pairs a detection band with the phrasing that implies it
// (§4.5 "three bands").
type procurementSignal struct {
	band    string
	pattern *regexp.Regexp
}

var procurementSignals = []procurementSignal{
	{"active_buying", regexp.MustCompile(`(?i)\b(requesting (a )?quote|send (us |me )?(a )?proposal|evaluating vendors|shortlist|rfp|request for proposal)\b`)},
	{"contract_activity", regexp.MustCompile(`(?i)\b(contract (renewal|expir\w*)|renewing our (contract|agreement)|up for renewal|\bmsa\b|statement of work|\bsow\b)\b`)},
	{"security_review", regexp.MustCompile(`(?i)\b(security review|vendor (risk|security) assessment|soc ?2|security questionnaire|infosec review)\b`)},
}

var dateBandKeywords = []struct {
	band     string
	keywords []string
}{
	{"renewal", []string{"renew", "renewal"}},
	{"expiration", []string{"expir"}},
	{"trial_end", []string{"trial"}},
	{"contract", []string{"contract", "agreement"}},
}

var roleLikeLocalParts = map[string]bool{
	"noreply": true, "no-reply": true, "donotreply": true, "support": true,
	"info": true, "help": true, "hello": true, "sales": true, "billing": true,
	"notifications": true, "alerts": true, "team": true, "contact": true,
}

// Extract builds the full set of extracted_entities rows for one message
// (§4.5). pc supplies the cleaned body/signature text; cfg toggles which
// regex-driven branches run.
func Extract(ctx context.Context, msg domain.Message, pc domain.ParsedContent, tagger ner.Tagger, cfg config.EntitiesConfig) ([]domain.ExtractedEntity, error) {
	text := strings.TrimSpace(pc.BodyClean + "\n" + pc.SignatureBlock)
	fullText := msg.Subject + "\n" + text

	var out []domain.ExtractedEntity

	spans, err := tagger.Tag(ctx, fullText)
	if err != nil {
		spans = nil
	}
	for _, sp := range spans {
		switch strings.ToUpper(sp.Label) {
		case "PERSON":
			e := domain.ExtractedEntity{
				MessageID:  msg.MessageID,
				Type:       domain.EntityPerson,
				Value:      sp.Text,
				Normalized: strings.ToLower(strings.TrimSpace(sp.Text)),
				Source:     domain.SourceSpacy,
				Confidence: 0.75,
			}
			e.Context = string(classifyPersonRelationship(e, msg, fullText))
			out = append(out, e)
		case "ORG":
			out = append(out, domain.ExtractedEntity{
				MessageID:  msg.MessageID,
				Type:       domain.EntityOrganization,
				Value:      sp.Text,
				Normalized: strings.ToLower(strings.TrimSpace(sp.Text)),
				Source:     domain.SourceSpacy,
				Confidence: 0.7,
			})
		case "DATE":
			out = append(out, dateEntity(msg.MessageID, sp.Text, fullText, sp.Start))
		}
	}

	if cfg.ExtractMonetary {
		for _, m := range dedupeStrings(moneyPattern.FindAllString(fullText, -1)) {
			out = append(out, domain.ExtractedEntity{
				MessageID: msg.MessageID, Type: domain.EntityMoney, Value: m,
				Normalized: strings.ToLower(m), Source: domain.SourceRegex, Confidence: 0.8,
			})
		}
	}
	for _, p := range dedupeStrings(phonePattern.FindAllString(fullText, -1)) {
		out = append(out, domain.ExtractedEntity{
			MessageID: msg.MessageID, Type: domain.EntityPhone, Value: p,
			Normalized: normalizePhone(p), Source: domain.SourceRegex, Confidence: 0.85,
		})
	}
	for _, u := range dedupeStrings(urlPattern.FindAllString(fullText, -1)) {
		out = append(out, domain.ExtractedEntity{
			MessageID: msg.MessageID, Type: domain.EntityURL, Value: u,
			Normalized: u, Source: domain.SourceRegex, Confidence: 0.9,
		})
	}
	for _, r := range dedupeStrings(rolePattern.FindAllString(fullText, -1)) {
		out = append(out, domain.ExtractedEntity{
			MessageID: msg.MessageID, Type: domain.EntityRole, Value: r,
			Normalized: strings.ToLower(r), Source: domain.SourceRegex, Confidence: 0.7,
		})
	}

	if cfg.ExtractProcurement {
		for _, sig := range procurementSignals {
			if m := sig.pattern.FindString(fullText); m != "" {
				out = append(out, domain.ExtractedEntity{
					MessageID: msg.MessageID, Type: domain.EntityProcurementSignal, Value: m,
					Normalized: sig.band, Source: domain.SourceRegex, Confidence: 0.6,
				})
			}
		}
	}

	for _, cc := range msg.CC {
		local := strings.ToLower(strings.SplitN(cc.Email, "@", 2)[0])
		e := domain.ExtractedEntity{
			MessageID:  msg.MessageID,
			Type:       domain.EntityPerson,
			Value:      displayNameOr(cc),
			Normalized: strings.ToLower(cc.Email),
			Source:     domain.SourceHeader,
			Confidence: 0.6,
		}
		if roleLikeLocalParts[local] {
			e.Context = string(domain.PersonAutomated)
		} else {
			e.Context = string(classifyPersonRelationship(e, msg, fullText))
		}
		out = append(out, e)
	}

	return out, nil
}

// classifyPersonRelationship buckets a person entity per §4.5's
// classification rules.
func classifyPersonRelationship(e domain.ExtractedEntity, msg domain.Message, fullText string) domain.PersonRelationship {
	if seniorTitlePattern.MatchString(fullText) {
		return domain.PersonDecisionMaker
	}
	local := strings.ToLower(strings.SplitN(msg.From.Email, "@", 2)[0])
	if e.Source == domain.SourceHeader && !rolePattern.MatchString(fullText) && roleLikeLocalParts[local] {
		return domain.PersonAutomated
	}
	if strings.EqualFold(e.Normalized, msg.From.Email) || roleLikeLocalParts[local] {
		return domain.PersonVendorContact
	}
	return domain.PersonPeer
}

// dateEntity parses a NER-tagged date span and assigns it a bucket and
// tense suffix (§4.5 "Date is-future").
func dateEntity(messageID, text, fullText string, start int) domain.ExtractedEntity {
	e := domain.ExtractedEntity{
		MessageID:  messageID,
		Type:       domain.EntityDate,
		Value:      text,
		Source:     domain.SourceSpacy,
		Confidence: 0.7,
	}

	band := "date"
	window := strings.ToLower(contextWindow(fullText, start, 40))
bands:
	for _, bk := range dateBandKeywords {
		for _, kw := range bk.keywords {
			if strings.Contains(window, kw) {
				band = bk.band
				break bands
			}
		}
	}

	parsed, err := dateparse.ParseAny(text)
	if err != nil {
		e.Normalized = band + ":unknown"
		return e
	}
	if parsed.After(nowFunc()) {
		e.Normalized = band + ":future"
	} else {
		e.Normalized = band + ":past"
	}
	return e
}

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now

func contextWindow(text string, center, radius int) string {
	start := center - radius
	if start < 0 {
		start = 0
	}
	end := center + radius
	if end > len(text) {
		end = len(text)
	}
	if start >= len(text) || start > end {
		return text
	}
	return text[start:end]
}

func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' || r == '+' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func displayNameOr(a domain.Address) string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

func dedupeStrings(list []string) []string {
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
