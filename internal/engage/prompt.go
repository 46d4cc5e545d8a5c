package engage

import "github.com/hoyack/gemsieve/internal/domain"

// engagementSystemPrompt requires a JSON-only reply matching the §4.9
// "AI call & response schema".
const engagementSystemPrompt = `You are an outreach drafting assistant for a commercial-opportunity mining tool. Respond with JSON only, no prose, matching exactly this schema:
{
  "subject_line": string,
  "body": string
}
Write in the sender's configured tone. Never invent facts not present in the supplied context.`

// baseEngagementTemplate holds the always-present §4.9 context variables
// common to every strategy.
const baseEngagementTemplate = `Draft a {{ gem_type }} outreach email using the {{ your_tone | default: "professional" }} tone.

Recipient company: {{ company_name }}
Contact: {{ contact_name | default: "the team" }}{% if contact_role %} ({{ contact_role }}){% endif %}
Industry: {{ industry | default: "unknown" }}
Company size: {{ company_size | default: "unknown" }}
ESP used: {{ esp_used | default: "unknown" }}
Marketing sophistication (1-10): {{ sophistication }}
Their product: {{ product_description | default: "unknown" }}
Their pain points: {{ pain_points | joinlist: ", " }}

Your service: {{ your_service }}
Your audience: {{ your_audience | joinlist: ", " }}

Opportunity signal: {{ gem_explanation }}
Observation to reference naturally: {{ observation }}
`

const revivalTemplate = baseEngagementTemplate + `
Thread subject: {{ thread_subject }}
Days since last activity: {{ dormancy_days }}
Write a brief, warm check-in that revives this specific dormant thread.`

const renewalNegotiationTemplate = baseEngagementTemplate + `
Renewal dates on record: {{ renewal_dates | joinlist: ", " }}
Monetary signals observed: {{ monetary_signals | joinlist: ", " }}
Write a message that opens a renewal conversation and leaves room to negotiate terms.`

const partnerTemplate = baseEngagementTemplate + `
Partner program URLs: {{ partner_urls | joinlist: ", " }}
Write a message proposing to join or expand within their partner program.`

const distributionPitchTemplate = baseEngagementTemplate + `
Their target audience: {{ target_audience }}
Write a pitch for inclusion in their distribution channel (newsletter, event, or community).`

const auditTemplate = baseEngagementTemplate + `
Write a message offering a free audit or assessment of their current marketing approach.`

const industryReportTemplate = baseEngagementTemplate + `
Write a message offering to share relevant industry intelligence you've gathered.`

const mirrorTemplate = baseEngagementTemplate + `
Write a direct, natural reply addressing what they asked for.`

// templateForStrategy returns the Liquid template body for a strategy.
// The default case mirrors RouteStrategy's unreachable fallback.
func templateForStrategy(strategy domain.Strategy) string {
	switch strategy {
	case domain.StrategyRevival:
		return revivalTemplate
	case domain.StrategyRenewalNegotiation:
		return renewalNegotiationTemplate
	case domain.StrategyPartner:
		return partnerTemplate
	case domain.StrategyDistributionPitch:
		return distributionPitchTemplate
	case domain.StrategyAudit:
		return auditTemplate
	case domain.StrategyIndustryReport:
		return industryReportTemplate
	default:
		return mirrorTemplate
	}
}
