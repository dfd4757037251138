package entities

import "time"

// LeadSource is an open enum: Airtable-style bases can return values we have
// never seen, so unknown strings are carried through rather than rejected.
type LeadSource string

const (
	SourceForm      LeadSource = "Form"
	SourceChatbot   LeadSource = "Chatbot"
	SourceFBAds     LeadSource = "FB Ads"
	SourceVoicemail LeadSource = "Voicemail"
	SourceCSVImport LeadSource = "CSV Import"
	SourceStandard  LeadSource = "Standard"
)

// Known reports whether the source is one of the values the portal itself
// writes. External workflows may introduce new ones.
func (s LeadSource) Known() bool {
	switch s {
	case SourceForm, SourceChatbot, SourceFBAds, SourceVoicemail, SourceCSVImport, SourceStandard:
		return true
	}
	return false
}

// LeadStatus is the workflow stage. The set is fixed but transitions are not:
// operators move leads between any two stages, including backwards.
type LeadStatus string

const (
	StatusUnqualified     LeadStatus = "Unqualified(new)"
	StatusHotAwaiting     LeadStatus = "Hot - Awaiting Follow-up"
	StatusWarmLead        LeadStatus = "Warm Lead"
	StatusColdLead        LeadStatus = "Cold Lead"
	StatusSDRReview       LeadStatus = "SDR Review"
	StatusFollowedUp      LeadStatus = "Followed-up"
	StatusFailedToContact LeadStatus = "Failed to Contact"
	StatusArchived        LeadStatus = "Archived" // soft delete; leads are never removed
)

func (s LeadStatus) Known() bool {
	switch s {
	case StatusUnqualified, StatusHotAwaiting, StatusWarmLead, StatusColdLead,
		StatusSDRReview, StatusFollowedUp, StatusFailedToContact, StatusArchived:
		return true
	}
	return false
}

// LeadScore is an optional priority classification, independent of status.
type LeadScore string

const (
	ScoreHot  LeadScore = "Hot"
	ScoreWarm LeadScore = "Warm"
	ScoreCold LeadScore = "Cold"
)

func (s LeadScore) Known() bool {
	return s == ScoreHot || s == ScoreWarm || s == ScoreCold
}

type FollowupStatus string

const (
	FollowupNotStarted FollowupStatus = "Not Started"
	FollowupComplete   FollowupStatus = "Complete"
)

type EscalationStatus string

const (
	EscalationPending   EscalationStatus = "Pending"
	EscalationEscalated EscalationStatus = "Escalated"
	EscalationManual    EscalationStatus = "Manual"
)

// Lead is a single enquiry owned by exactly one client. The store links a
// lead to clients as a list; the first link is the authoritative owner.
type Lead struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"clientId"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Message          string           `json:"message"`
	Source           LeadSource       `json:"source"`
	Status           LeadStatus       `json:"status"`
	Score            LeadScore        `json:"score,omitempty"`
	ScoringReason    string           `json:"scoringReason"`
	VoicemailSummary string           `json:"voicemailSummary"`
	RecordingURL     string           `json:"recordingUrl"`
	ManualReview     bool             `json:"manualReview"`
	FollowupStatus   FollowupStatus   `json:"followupStatus"`
	EscalationStatus EscalationStatus `json:"escalationStatus"`
	CRMSynced        bool             `json:"crmSynced"`
	CreatedTime      time.Time        `json:"createdTime"`
}

// LeadDraft carries caller-supplied fields for a new lead. Zero values are
// replaced with lifecycle defaults at creation time.
type LeadDraft struct {
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	Email            string           `json:"email"`
	Phone            string           `json:"phone"`
	Message          string           `json:"message"`
	Source           LeadSource       `json:"source"`
	Status           LeadStatus       `json:"status"`
	Score            LeadScore        `json:"score"`
	ScoringReason    string           `json:"scoringReason"`
	VoicemailSummary string           `json:"voicemailSummary"`
	RecordingURL     string           `json:"recordingUrl"`
	ManualReview     bool             `json:"manualReview"`
	FollowupStatus   FollowupStatus   `json:"followupStatus"`
	EscalationStatus EscalationStatus `json:"escalationStatus"`
	CRMSynced        bool             `json:"crmSynced"`
}

// LeadPatch is a partial update: nil fields are left untouched in the store.
type LeadPatch struct {
	FirstName        *string           `json:"firstName"`
	LastName         *string           `json:"lastName"`
	Email            *string           `json:"email"`
	Phone            *string           `json:"phone"`
	Message          *string           `json:"message"`
	Source           *LeadSource       `json:"source"`
	Status           *LeadStatus       `json:"status"`
	Score            *LeadScore        `json:"score"`
	ScoringReason    *string           `json:"scoringReason"`
	VoicemailSummary *string           `json:"voicemailSummary"`
	RecordingURL     *string           `json:"recordingUrl"`
	ManualReview     *bool             `json:"manualReview"`
	FollowupStatus   *FollowupStatus   `json:"followupStatus"`
	EscalationStatus *EscalationStatus `json:"escalationStatus"`
	CRMSynced        *bool             `json:"crmSynced"`
}

// LeadStats is the per-client score breakdown shown on the admin overview.
type LeadStats struct {
	Total int `json:"total"`
	Hot   int `json:"hot"`
	Warm  int `json:"warm"`
	Cold  int `json:"cold"`
}
