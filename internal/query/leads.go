package query

// Store field names for the three collections. The store keeps
// human-readable field labels, so mapping layers and filters share these
// constants.
const (
	FieldClients          = "Clients"
	FieldFirstName        = "First Name"
	FieldLastName         = "Last Name"
	FieldEmail            = "Email"
	FieldPhone            = "Phone"
	FieldMessage          = "Message"
	FieldSource           = "Source"
	FieldStatus           = "Status"
	FieldScore            = "Score"
	FieldScoringReason    = "Scoring Reason"
	FieldVoicemailSummary = "Voicemail Summary"
	FieldRecordingURL     = "Recording URL"
	FieldManualReview     = "Manual Review"
	FieldFollowupStatus   = "Follow-up Status"
	FieldEscalationStatus = "Escalation Status"
	FieldCRMSynced        = "CRM Synced"
	FieldCreatedTime      = "Created time"

	FieldUserName       = "name"
	FieldUserEmail      = "email"
	FieldUserPassword   = "password"
	FieldUserClientID   = "clientId"
	FieldUserClientName = "clientName"

	FieldClientName    = "Client Name"
	FieldClientContact = "Contact"
	FieldClientEmail   = "Email"
)

// LeadFilter narrows a tenant's lead listing; empty members are skipped.
type LeadFilter struct {
	Search string
	Status string
	Score  string
}

// LeadsForTenant builds the predicate for a tenant's lead listing. The
// tenant term always comes first and is mandatory: an empty tenant id fails
// closed instead of producing an unscoped query. Search expands to a
// substring OR across name, email and phone; status and score are exact
// matches ANDed with the tenant term.
func LeadsForTenant(tenantID string, f LeadFilter) (*Predicate, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}

	terms := []*Predicate{LinksTo(FieldClients, tenantID)}

	if f.Status != "" {
		terms = append(terms, Eq(FieldStatus, f.Status))
	}
	if f.Score != "" {
		terms = append(terms, Eq(FieldScore, f.Score))
	}
	if f.Search != "" {
		terms = append(terms, Or(
			Contains(FieldFirstName, f.Search),
			Contains(FieldLastName, f.Search),
			Contains(FieldEmail, f.Search),
			Contains(FieldPhone, f.Search),
		))
	}

	p := terms[0]
	if len(terms) > 1 {
		p = And(terms...)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// UserByEmail builds the case-insensitive email lookup used by
// authentication.
func UserByEmail(email string) (*Predicate, error) {
	p := EqFold(FieldUserEmail, email)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// ClientByEmail locates a client record by its contact email.
func ClientByEmail(email string) (*Predicate, error) {
	p := EqFold(FieldClientEmail, email)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
