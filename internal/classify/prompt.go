package classify

// classificationPromptTemplate is the §4.6 CLASSIFICATION_PROMPT. The
// system prompt requires a JSON-only reply; the schema is fixed and
// mirrors aiResponsePayload field-for-field.
const classificationPromptTemplate = `Classify the following email.

From: {{ from_name | default: "" }} <{{ from_address }}>
Subject: {{ subject }}
ESP identified: {{ esp_identified | default: "unknown" }}
Offer types observed: {{ offer_types | joinlist: ", " }}
Call-to-action phrases: {{ cta_texts | joinlist: ", " }}
Extracted entities: {{ extracted_entities_summary }}

Body:
{{ body_clean | truncate: max_body_chars }}
{% if corrections %}
Corrections from prior manual review (domain / field / was -> corrected):
{{ corrections }}
{% endif %}`

const classificationSystemPrompt = `You are an email classification engine for a commercial-opportunity mining tool. Respond with JSON only, no prose, matching exactly this schema:
{
  "industry": string,
  "company_size_estimate": "small"|"medium"|"enterprise",
  "marketing_sophistication": integer 1-10,
  "sender_intent": one of "human_1to1","cold_outreach","nurture_sequence","newsletter","transactional","promotional","event_invitation","partnership_pitch","re_engagement","procurement","recruiting","community",
  "product_type": string,
  "product_description": string,
  "pain_points": [string],
  "target_audience": string,
  "partner_program_detected": boolean,
  "renewal_signal_detected": boolean,
  "ai_confidence": number 0-1
}`

const classificationTemplateID = "CLASSIFICATION_PROMPT"
