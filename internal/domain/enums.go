// Package domain holds the persistent entity types and closed enumerations
// shared across every pipeline stage. Stage packages read and write these
// types against the store; none of them import each other.
package domain

// AwaitingResponseFrom is the thread-level inference of who owes a reply.
type AwaitingResponseFrom string

const (
	AwaitingUser  AwaitingResponseFrom = "user"
	AwaitingOther AwaitingResponseFrom = "other"
	AwaitingNone  AwaitingResponseFrom = "none"
)

// ESPConfidence is the confidence band attached to an ESP fingerprint match.
type ESPConfidence string

const (
	ESPConfidenceHigh   ESPConfidence = "high"
	ESPConfidenceMedium ESPConfidence = "medium"
	ESPConfidenceLow    ESPConfidence = "low"
)

// CompanySize is the AI-estimated size band of a sender's organization.
type CompanySize string

const (
	CompanySizeSmall      CompanySize = "small"
	CompanySizeMedium     CompanySize = "medium"
	CompanySizeEnterprise CompanySize = "enterprise"
)

// SenderIntent enumerates the classifier's sender-intent field (§6.3).
type SenderIntent string

const (
	IntentHuman1to1         SenderIntent = "human_1to1"
	IntentColdOutreach      SenderIntent = "cold_outreach"
	IntentNurtureSequence   SenderIntent = "nurture_sequence"
	IntentNewsletter        SenderIntent = "newsletter"
	IntentTransactional     SenderIntent = "transactional"
	IntentPromotional       SenderIntent = "promotional"
	IntentEventInvitation   SenderIntent = "event_invitation"
	IntentPartnershipPitch  SenderIntent = "partnership_pitch"
	IntentReEngagement      SenderIntent = "re_engagement"
	IntentProcurement       SenderIntent = "procurement"
	IntentRecruiting        SenderIntent = "recruiting"
	IntentCommunity         SenderIntent = "community"
)

// EntityType enumerates extracted_entities.entity_type.
type EntityType string

const (
	EntityPerson             EntityType = "person"
	EntityOrganization       EntityType = "organization"
	EntityMoney              EntityType = "money"
	EntityDate               EntityType = "date"
	EntityRole                EntityType = "role"
	EntityPhone              EntityType = "phone"
	EntityURL                EntityType = "url"
	EntityProcurementSignal  EntityType = "procurement_signal"
)

// EntitySource enumerates extracted_entities.source.
type EntitySource string

const (
	SourceSpacy EntitySource = "spacy"
	SourceRegex EntitySource = "regex"
	SourceHeader EntitySource = "header"
)

// PersonRelationship is the classification stored in an entity's context
// field for person-type entities (§4.5).
type PersonRelationship string

const (
	PersonDecisionMaker PersonRelationship = "decision_maker"
	PersonAutomated     PersonRelationship = "automated"
	PersonVendorContact PersonRelationship = "vendor_contact"
	PersonPeer          PersonRelationship = "peer"
)

// OverrideScope enumerates classification_overrides.scope.
type OverrideScope string

const (
	ScopeMessage OverrideScope = "message"
	ScopeSender  OverrideScope = "sender"
)

// RelationshipType is the profile's role in the user's commerce graph
// (§4.7.3). Gates gem eligibility and caps score.
type RelationshipType string

const (
	RelMyVendor          RelationshipType = "my_vendor"
	RelMyServiceProvider RelationshipType = "my_service_provider"
	RelMyInfrastructure  RelationshipType = "my_infrastructure"
	RelInstitutional     RelationshipType = "institutional"
	RelInboundProspect   RelationshipType = "inbound_prospect"
	RelWarmContact       RelationshipType = "warm_contact"
	RelPotentialPartner  RelationshipType = "potential_partner"
	RelSellingToMe       RelationshipType = "selling_to_me"
	RelCommunity         RelationshipType = "community"
	RelUnknown           RelationshipType = "unknown"
)

// RelationshipSource enumerates sender_relationships.source.
type RelationshipSource string

const (
	RelSourceManual       RelationshipSource = "manual"
	RelSourceAutoDetected  RelationshipSource = "auto_detected"
	RelSourceLearned      RelationshipSource = "learned"
)

// GemType enumerates the ten (nine live + one retired) gem kinds (§6.3).
type GemType string

const (
	GemDormantWarmThread  GemType = "dormant_warm_thread"
	GemUnansweredAsk      GemType = "unanswered_ask"
	GemWeakMarketingLead  GemType = "weak_marketing_lead"
	GemPartnerProgram     GemType = "partner_program"
	GemRenewalLeverage    GemType = "renewal_leverage"
	GemDistributionChannel GemType = "distribution_channel"
	GemCoMarketing        GemType = "co_marketing"
	GemIndustryIntel      GemType = "industry_intel"
	GemProcurementSignal  GemType = "procurement_signal"
	// GemVendorUpsell is retired: tolerated in historical rows, never emitted.
	GemVendorUpsell GemType = "vendor_upsell"
)

// GemStatus enumerates gems.status.
type GemStatus string

const (
	GemStatusNew       GemStatus = "new"
	GemStatusActed     GemStatus = "acted"
	GemStatusDismissed GemStatus = "dismissed"
)

// EstimatedValue is the gem explanation's coarse value band.
type EstimatedValue string

const (
	ValueLow        EstimatedValue = "low"
	ValueMedium     EstimatedValue = "medium"
	ValueMediumHigh EstimatedValue = "medium-high"
	ValueHigh       EstimatedValue = "high"
)

// Urgency is the gem explanation's urgency band.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Segment enumerates the six economic segments a profile may belong to.
type Segment string

const (
	SegmentSpendMap       Segment = "spend_map"
	SegmentPartnerMap     Segment = "partner_map"
	SegmentProspectMap    Segment = "prospect_map"
	SegmentDormantThreads Segment = "dormant_threads"
	SegmentDistributionMap Segment = "distribution_map"
	SegmentProcurementMap Segment = "procurement_map"
)

// Strategy enumerates the seven engagement strategies (§4.9).
type Strategy string

const (
	StrategyAudit              Strategy = "audit"
	StrategyRevival            Strategy = "revival"
	StrategyPartner            Strategy = "partner"
	StrategyRenewalNegotiation Strategy = "renewal_negotiation"
	StrategyIndustryReport     Strategy = "industry_report"
	StrategyMirror             Strategy = "mirror"
	StrategyDistributionPitch  Strategy = "distribution_pitch"
)

// DraftStatus enumerates engagement_drafts.status.
type DraftStatus string

const (
	DraftStatusDraft   DraftStatus = "draft"
	DraftStatusApproved DraftStatus = "approved"
	DraftStatusSent    DraftStatus = "sent"
	DraftStatusReplied DraftStatus = "replied"
)

// StageName enumerates the seven analytic stages plus ingestion, in
// dependency order (§4.10 registry).
type StageName string

const (
	StageIngest   StageName = "ingest"
	StageMetadata StageName = "metadata"
	StageContent  StageName = "content"
	StageEntities StageName = "entities"
	StageClassify StageName = "classify"
	StageProfile  StageName = "profile"
	StageSegment  StageName = "segment"
	StageEngage   StageName = "engage"
)

// RunStatus enumerates pipeline_runs.status.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// TriggeredBy enumerates pipeline_runs.triggered_by.
type TriggeredBy string

const (
	TriggeredByWeb TriggeredBy = "web"
	TriggeredByCLI TriggeredBy = "cli"
)
