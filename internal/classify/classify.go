// Package classify runs the AI classifier stage: one ai_classifications
// row per message, built from an LLM call layered under user overrides
// (§4.6).
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hoyack/gemsieve/internal/config"
	"github.com/hoyack/gemsieve/internal/domain"
	"github.com/hoyack/gemsieve/internal/llm"
	"github.com/hoyack/gemsieve/internal/prompttpl"
)

// requiredFields are the ai_classifications columns that must be covered
// either by override or by the AI response before a row is considered
// complete (§4.6 "If every required field is already overridden, skip").
var requiredFields = []string{
	"industry", "company_size_estimate", "marketing_sophistication", "sender_intent",
	"product_type", "product_description", "target_audience",
	"partner_program_detected", "renewal_signal_detected",
}

// Store is the subset of internal/store.Store the classifier needs.
type Store interface {
	GetMessage(ctx context.Context, messageID string) (domain.Message, error)
	GetParsedContent(ctx context.Context, messageID string) (domain.ParsedContent, error)
	GetParsedMetadata(ctx context.Context, messageID string) (domain.ParsedMetadata, error)
	EntitiesForMessage(ctx context.Context, messageID string) ([]domain.ExtractedEntity, error)
	OverridesForSenderDomain(ctx context.Context, senderDomain string) ([]domain.ClassificationOverride, error)
	OverridesForMessage(ctx context.Context, messageID string) ([]domain.ClassificationOverride, error)
	RecentOverrides(ctx context.Context, limit int) ([]domain.ClassificationOverride, error)
	UpsertAIClassification(ctx context.Context, c domain.AIClassification) error
}

// completer is the narrow slice of llm.AuditedProvider the classifier
// calls — every classification call is audited and sender-attributed.
type completer interface {
	CompleteFor(ctx context.Context, req llm.Request, senderDomain string) (llm.Response, error)
}

// Classifier produces ai_classifications rows, respecting the override
// layering and retrain-mode corrections the spec requires.
type Classifier struct {
	store    Store
	provider completer
	tpl      *prompttpl.Engine
	cfg      config.AIConfig
}

// New builds a Classifier. provider is expected to be an
// *llm.AuditedProvider so every call lands in the AI audit trail.
func New(store Store, provider completer, cfg config.AIConfig) *Classifier {
	return &Classifier{store: store, provider: provider, tpl: prompttpl.New(), cfg: cfg}
}

// ClassifyMessage builds and persists the classification row for one
// message (§4.6). Re-running it for an already-classified message simply
// overwrites the row in place — the caller's anti-join query is what
// keeps an already-processed message out of the backlog.
func (c *Classifier) ClassifyMessage(ctx context.Context, messageID string) error {
	msg, err := c.store.GetMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("classify: load message: %w", err)
	}
	pc, err := c.store.GetParsedContent(ctx, messageID)
	if err != nil {
		pc = domain.ParsedContent{}
	}
	pm, err := c.store.GetParsedMetadata(ctx, messageID)
	if err != nil {
		pm = domain.ParsedMetadata{}
	}
	ents, err := c.store.EntitiesForMessage(ctx, messageID)
	if err != nil {
		return fmt.Errorf("classify: load entities: %w", err)
	}

	overrides, err := c.layeredOverrides(ctx, pm.SenderDomain, messageID)
	if err != nil {
		return fmt.Errorf("classify: load overrides: %w", err)
	}

	result := domain.AIClassification{MessageID: messageID}
	if len(overrides) > 0 {
		applyOverrides(&result, overrides)
		result.HasOverride = true
	}

	if !allRequiredCovered(overrides) {
		corrections := ""
		if c.cfg.RetrainMode {
			corrections, err = c.correctionsBlock(ctx)
			if err != nil {
				return fmt.Errorf("classify: load corrections: %w", err)
			}
		}

		prompt, err := c.renderPrompt(msg, pc, pm, ents, corrections)
		if err != nil {
			return fmt.Errorf("classify: render prompt: %w", err)
		}

		resp, err := c.provider.CompleteFor(ctx, llm.Request{
			System:   classificationSystemPrompt,
			User:     prompt,
			Model:    c.cfg.Model,
			JSONMode: true,
		}, pm.SenderDomain)
		if err != nil {
			return fmt.Errorf("classify: ai call: %w", err)
		}

		var parsed aiResponsePayload
		if err := json.Unmarshal([]byte(resp.Text), &parsed); err != nil {
			return fmt.Errorf("classify: invalid json response: %w", err)
		}
		parsed.mergeInto(&result)
		result.ModelUsed = resp.ModelUsed

		// overrides take precedence over whatever the model said.
		if len(overrides) > 0 {
			applyOverrides(&result, overrides)
		}
	}

	return c.store.UpsertAIClassification(ctx, result)
}

// layeredOverrides merges sender-scope overrides with message-scope
// overrides, message-scope winning on conflict (§4.6 "Override layering").
func (c *Classifier) layeredOverrides(ctx context.Context, senderDomain, messageID string) (map[string]string, error) {
	out := map[string]string{}
	if senderDomain != "" {
		senderOverrides, err := c.store.OverridesForSenderDomain(ctx, senderDomain)
		if err != nil {
			return nil, err
		}
		for _, o := range senderOverrides {
			out[o.FieldName] = o.CorrectedValue
		}
	}
	messageOverrides, err := c.store.OverridesForMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	for _, o := range messageOverrides {
		out[o.FieldName] = o.CorrectedValue
	}
	return out, nil
}

func allRequiredCovered(overrides map[string]string) bool {
	for _, f := range requiredFields {
		if _, ok := overrides[f]; !ok {
			return false
		}
	}
	return true
}

// correctionsBlock builds the few-shot "corrections" text retrain mode
// appends to the user prompt, from the ten most recent overrides
// (§4.6 "Retrain mode").
func (c *Classifier) correctionsBlock(ctx context.Context) (string, error) {
	recent, err := c.store.RecentOverrides(ctx, 10)
	if err != nil {
		return "", err
	}
	if len(recent) == 0 {
		return "", nil
	}
	lines := make([]string, 0, len(recent))
	for _, o := range recent {
		lines = append(lines, fmt.Sprintf("%s / %s / %s -> %s", o.SenderDomain, o.FieldName, o.OriginalValue, o.CorrectedValue))
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Classifier) renderPrompt(msg domain.Message, pc domain.ParsedContent, pm domain.ParsedMetadata, ents []domain.ExtractedEntity, corrections string) (string, error) {
	maxBodyChars := c.cfg.MaxBodyChars
	if maxBodyChars == 0 {
		maxBodyChars = 2000
	}
	ctx := map[string]interface{}{
		"from_name":                   msg.From.Name,
		"from_address":                msg.From.Email,
		"subject":                     msg.Subject,
		"esp_identified":              pm.ESPIdentified,
		"offer_types":                 pc.OfferTypes,
		"cta_texts":                   pc.CTATexts,
		"extracted_entities_summary":  summarizeEntities(ents),
		"body_clean":                  pc.BodyClean,
		"max_body_chars":              maxBodyChars,
		"corrections":                 corrections,
	}
	return c.tpl.Render(classificationTemplateID, classificationPromptTemplate, ctx)
}

func summarizeEntities(ents []domain.ExtractedEntity) string {
	if len(ents) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.Context != "" {
			parts = append(parts, fmt.Sprintf("%s: %s (%s)", e.Type, e.Value, e.Context))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", e.Type, e.Value))
		}
	}
	return strings.Join(parts, "; ")
}

// aiResponsePayload mirrors the JSON schema the classification system
// prompt demands.
type aiResponsePayload struct {
	Industry                string   `json:"industry"`
	CompanySizeEstimate     string   `json:"company_size_estimate"`
	MarketingSophistication int      `json:"marketing_sophistication"`
	SenderIntent            string   `json:"sender_intent"`
	ProductType             string   `json:"product_type"`
	ProductDescription      string   `json:"product_description"`
	PainPoints              []string `json:"pain_points"`
	TargetAudience          string   `json:"target_audience"`
	PartnerProgramDetected  bool     `json:"partner_program_detected"`
	RenewalSignalDetected   bool     `json:"renewal_signal_detected"`
	AIConfidence            float64  `json:"ai_confidence"`
}

func (p aiResponsePayload) mergeInto(c *domain.AIClassification) {
	c.Industry = p.Industry
	c.CompanySizeEstimate = domain.CompanySize(p.CompanySizeEstimate)
	c.MarketingSophistication = p.MarketingSophistication
	c.SenderIntent = domain.SenderIntent(p.SenderIntent)
	c.ProductType = p.ProductType
	c.ProductDescription = p.ProductDescription
	c.PainPoints = p.PainPoints
	c.TargetAudience = p.TargetAudience
	c.PartnerProgramDetected = p.PartnerProgramDetected
	c.RenewalSignalDetected = p.RenewalSignalDetected
	c.AIConfidence = p.AIConfidence
}

// applyOverrides writes each override's corrected value onto the matching
// field of c, converting to the field's native type.
func applyOverrides(c *domain.AIClassification, overrides map[string]string) {
	for field, value := range overrides {
		switch field {
		case "industry":
			c.Industry = value
		case "company_size_estimate":
			c.CompanySizeEstimate = domain.CompanySize(value)
		case "marketing_sophistication":
			if n, err := strconv.Atoi(value); err == nil {
				c.MarketingSophistication = n
			}
		case "sender_intent":
			c.SenderIntent = domain.SenderIntent(value)
		case "product_type":
			c.ProductType = value
		case "product_description":
			c.ProductDescription = value
		case "target_audience":
			c.TargetAudience = value
		case "partner_program_detected":
			c.PartnerProgramDetected = value == "true"
		case "renewal_signal_detected":
			c.RenewalSignalDetected = value == "true"
		}
	}
}
