package repository

import (
	"context"
	"fmt"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"go.uber.org/zap"
)

// maxLeadPage caps a single listing. Callers wanting more page through;
// there is no unbounded scan on the tenant path.
const maxLeadPage = 100

type LeadRepository struct {
	store    interfaces.RecordStore
	notifier interfaces.Notifier
	log      *zap.SugaredLogger
}

func NewLeadRepository(store interfaces.RecordStore, notifier interfaces.Notifier, log *zap.SugaredLogger) *LeadRepository {
	return &LeadRepository{store: store, notifier: notifier, log: log}
}

// ListByTenant returns the tenant's leads newest first, narrowed by the
// optional filter. The tenant term is built into the predicate; an empty
// tenant id fails before the store is reached.
func (r *LeadRepository) ListByTenant(ctx context.Context, tenantID string, filter query.LeadFilter) ([]entities.Lead, error) {
	pred, err := query.LeadsForTenant(tenantID, filter)
	if err != nil {
		return nil, err
	}

	records, err := r.store.Select(ctx, interfaces.CollectionLeads, pred, interfaces.SelectOptions{
		SortField: query.FieldCreatedTime,
		SortDesc:  true,
		PageSize:  maxLeadPage,
	})
	if err != nil {
		r.log.Errorw("lead listing failed", "clientId", tenantID, "error", err)
		return nil, fmt.Errorf("list leads: %w", err)
	}

	leads := make([]entities.Lead, len(records))
	for i, rec := range records {
		leads[i] = leadFromRecord(rec)
	}
	return leads, nil
}

// GetByID fetches a lead and verifies tenant ownership. A lead owned by a
// different tenant returns (nil, nil) exactly like a missing one, so callers
// cannot probe for other tenants' record ids.
func (r *LeadRepository) GetByID(ctx context.Context, id, tenantID string) (*entities.Lead, error) {
	rec, err := r.store.Find(ctx, interfaces.CollectionLeads, id)
	if err != nil {
		return nil, fmt.Errorf("find lead: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	if !linkedTo(*rec, query.FieldClients, tenantID) {
		return nil, nil
	}
	lead := leadFromRecord(*rec)
	return &lead, nil
}

// Create persists a new lead linked to the tenant, filling lifecycle
// defaults for anything the caller left unset.
func (r *LeadRepository) Create(ctx context.Context, tenantID string, draft entities.LeadDraft) (*entities.Lead, error) {
	if tenantID == "" {
		return nil, query.ErrMissingTenant
	}

	if draft.Source == "" {
		draft.Source = entities.SourceForm
	}
	if draft.Status == "" {
		draft.Status = entities.StatusUnqualified
	}
	if draft.FollowupStatus == "" {
		draft.FollowupStatus = entities.FollowupNotStarted
	}
	if draft.EscalationStatus == "" {
		draft.EscalationStatus = entities.EscalationPending
	}

	fields := map[string]any{
		query.FieldClients:          []string{tenantID},
		query.FieldFirstName:        draft.FirstName,
		query.FieldLastName:         draft.LastName,
		query.FieldEmail:            draft.Email,
		query.FieldPhone:            draft.Phone,
		query.FieldMessage:          draft.Message,
		query.FieldSource:           string(draft.Source),
		query.FieldStatus:           string(draft.Status),
		query.FieldScoringReason:    draft.ScoringReason,
		query.FieldVoicemailSummary: draft.VoicemailSummary,
		query.FieldRecordingURL:     draft.RecordingURL,
		query.FieldManualReview:     draft.ManualReview,
		query.FieldFollowupStatus:   string(draft.FollowupStatus),
		query.FieldEscalationStatus: string(draft.EscalationStatus),
		query.FieldCRMSynced:        draft.CRMSynced,
	}
	if draft.Score != "" {
		fields[query.FieldScore] = string(draft.Score)
	}

	rec, err := r.store.Create(ctx, interfaces.CollectionLeads, fields)
	if err != nil {
		r.log.Errorw("lead creation failed", "clientId", tenantID, "error", err)
		return nil, fmt.Errorf("create lead: %w", err)
	}

	lead := leadFromRecord(*rec)
	r.notify("created", lead.ID, tenantID)
	return &lead, nil
}

// Update applies a partial patch after re-running the ownership check. Nil
// patch fields are not written, so concurrent writers only clobber the
// fields they actually send.
func (r *LeadRepository) Update(ctx context.Context, id, tenantID string, patch entities.LeadPatch) (*entities.Lead, error) {
	existing, err := r.GetByID(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	fields := patchFields(patch)
	if len(fields) == 0 {
		r.notify("updated", existing.ID, tenantID)
		return existing, nil
	}

	rec, err := r.store.Update(ctx, interfaces.CollectionLeads, id, fields)
	if err != nil {
		r.log.Errorw("lead update failed", "leadId", id, "clientId", tenantID, "error", err)
		return nil, fmt.Errorf("update lead: %w", err)
	}

	lead := leadFromRecord(*rec)
	r.notify("updated", lead.ID, tenantID)
	return &lead, nil
}

// ListAll returns every lead in the store, newest first. Admin-only
// aggregation path; tenant requests never reach this.
func (r *LeadRepository) ListAll(ctx context.Context) ([]entities.Lead, error) {
	records, err := r.store.Select(ctx, interfaces.CollectionLeads, nil, interfaces.SelectOptions{
		SortField: query.FieldCreatedTime,
		SortDesc:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	leads := make([]entities.Lead, len(records))
	for i, rec := range records {
		leads[i] = leadFromRecord(rec)
	}
	return leads, nil
}

func (r *LeadRepository) notify(event, leadID, tenantID string) {
	if r.notifier == nil {
		return
	}
	r.notifier.Notify(interfaces.LeadEvent{Event: event, LeadID: leadID, ClientID: tenantID})
}

func patchFields(p entities.LeadPatch) map[string]any {
	fields := map[string]any{}
	setString := func(key string, v *string) {
		if v != nil {
			fields[key] = *v
		}
	}
	setString(query.FieldFirstName, p.FirstName)
	setString(query.FieldLastName, p.LastName)
	setString(query.FieldEmail, p.Email)
	setString(query.FieldPhone, p.Phone)
	setString(query.FieldMessage, p.Message)
	setString(query.FieldScoringReason, p.ScoringReason)
	setString(query.FieldVoicemailSummary, p.VoicemailSummary)
	setString(query.FieldRecordingURL, p.RecordingURL)
	if p.Source != nil {
		fields[query.FieldSource] = string(*p.Source)
	}
	if p.Status != nil {
		fields[query.FieldStatus] = string(*p.Status)
	}
	if p.Score != nil {
		fields[query.FieldScore] = string(*p.Score)
	}
	if p.FollowupStatus != nil {
		fields[query.FieldFollowupStatus] = string(*p.FollowupStatus)
	}
	if p.EscalationStatus != nil {
		fields[query.FieldEscalationStatus] = string(*p.EscalationStatus)
	}
	if p.ManualReview != nil {
		fields[query.FieldManualReview] = *p.ManualReview
	}
	if p.CRMSynced != nil {
		fields[query.FieldCRMSynced] = *p.CRMSynced
	}
	return fields
}

func leadFromRecord(rec interfaces.Record) entities.Lead {
	links := recordLinks(rec, query.FieldClients)
	clientID := ""
	if len(links) > 0 {
		// A lead can carry several client links; the first is authoritative.
		clientID = links[0]
	}

	lead := entities.Lead{
		ID:               rec.ID,
		ClientID:         clientID,
		FirstName:        stringField(rec, query.FieldFirstName),
		LastName:         stringField(rec, query.FieldLastName),
		Email:            stringField(rec, query.FieldEmail),
		Phone:            stringField(rec, query.FieldPhone),
		Message:          stringField(rec, query.FieldMessage),
		Source:           entities.LeadSource(stringField(rec, query.FieldSource)),
		Status:           entities.LeadStatus(stringField(rec, query.FieldStatus)),
		Score:            entities.LeadScore(stringField(rec, query.FieldScore)),
		ScoringReason:    stringField(rec, query.FieldScoringReason),
		VoicemailSummary: stringField(rec, query.FieldVoicemailSummary),
		RecordingURL:     stringField(rec, query.FieldRecordingURL),
		ManualReview:     boolField(rec, query.FieldManualReview),
		FollowupStatus:   entities.FollowupStatus(stringField(rec, query.FieldFollowupStatus)),
		EscalationStatus: entities.EscalationStatus(stringField(rec, query.FieldEscalationStatus)),
		CRMSynced:        boolField(rec, query.FieldCRMSynced),
		CreatedTime:      rec.CreatedTime,
	}
	if lead.Source == "" {
		lead.Source = entities.SourceForm
	}
	if lead.Status == "" {
		lead.Status = entities.StatusUnqualified
	}
	if lead.FollowupStatus == "" {
		lead.FollowupStatus = entities.FollowupNotStarted
	}
	if lead.EscalationStatus == "" {
		lead.EscalationStatus = entities.EscalationPending
	}
	return lead
}
