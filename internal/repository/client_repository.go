package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/Elish-Ab/qualify-law/internal/entities"
	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"go.uber.org/zap"
)

// ClientRepository covers the Clients and Users collections: registration,
// the authentication lookup, and the admin aggregation.
type ClientRepository struct {
	store interfaces.RecordStore
	log   *zap.SugaredLogger
}

func NewClientRepository(store interfaces.RecordStore, log *zap.SugaredLogger) *ClientRepository {
	return &ClientRepository{store: store, log: log}
}

func (r *ClientRepository) CreateClient(ctx context.Context, name, contact, email string) (*entities.Client, error) {
	fields := map[string]any{query.FieldClientName: name}
	if contact != "" {
		fields[query.FieldClientContact] = contact
	}
	if email != "" {
		fields[query.FieldClientEmail] = email
	}

	rec, err := r.store.Create(ctx, interfaces.CollectionClients, fields)
	if err != nil {
		r.log.Errorw("client creation failed", "error", err)
		return nil, fmt.Errorf("create client: %w", err)
	}
	return clientFromRecord(*rec), nil
}

func (r *ClientRepository) GetClientByID(ctx context.Context, id string) (*entities.Client, error) {
	rec, err := r.store.Find(ctx, interfaces.CollectionClients, id)
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	if rec == nil {
		return nil, nil
	}
	return clientFromRecord(*rec), nil
}

// CreateUser persists a tenant login. Email uniqueness is the caller's job
// via FindUserByEmail; the check-then-create race is a known gap of the
// store contract.
func (r *ClientRepository) CreateUser(ctx context.Context, u entities.User) (*entities.User, error) {
	fields := map[string]any{
		query.FieldUserName:       u.Name,
		query.FieldUserEmail:      u.Email,
		query.FieldUserPassword:   u.PasswordHash,
		query.FieldUserClientID:   u.ClientID,
		query.FieldUserClientName: u.ClientName,
	}

	rec, err := r.store.Create(ctx, interfaces.CollectionUsers, fields)
	if err != nil {
		r.log.Errorw("user creation failed", "error", err)
		return nil, fmt.Errorf("create user: %w", err)
	}

	created := u
	created.ID = rec.ID
	return &created, nil
}

// FindUserByEmail is the sole authentication lookup. Emails compare
// case-insensitively; (nil, nil) means no match.
func (r *ClientRepository) FindUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	pred, err := query.UserByEmail(email)
	if err != nil {
		return nil, err
	}

	records, err := r.store.Select(ctx, interfaces.CollectionUsers, pred, interfaces.SelectOptions{PageSize: 1})
	if err != nil {
		r.log.Errorw("user lookup failed", "error", err)
		return nil, fmt.Errorf("find user: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rec := records[0]
	return &entities.User{
		ID:           rec.ID,
		Name:         stringField(rec, query.FieldUserName),
		Email:        stringField(rec, query.FieldUserEmail),
		PasswordHash: stringField(rec, query.FieldUserPassword),
		ClientID:     stringField(rec, query.FieldUserClientID),
		ClientName:   stringField(rec, query.FieldUserClientName),
	}, nil
}

// ListClientsWithLeadStats scans the whole lead collection once and groups
// score counts per linked client. O(leads) per call; acceptable for the
// low-frequency admin overview, never exposed to tenant traffic.
func (r *ClientRepository) ListClientsWithLeadStats(ctx context.Context) ([]entities.ClientWithStats, error) {
	clients, err := r.store.Select(ctx, interfaces.CollectionClients, nil, interfaces.SelectOptions{})
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	leads, err := r.store.Select(ctx, interfaces.CollectionLeads, nil, interfaces.SelectOptions{})
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	grouped := map[string]entities.LeadStats{}
	for _, lead := range leads {
		score := strings.ToLower(stringField(lead, query.FieldScore))
		for _, clientID := range recordLinks(lead, query.FieldClients) {
			stats := grouped[clientID]
			stats.Total++
			switch {
			case strings.Contains(score, "hot"):
				stats.Hot++
			case strings.Contains(score, "warm"):
				stats.Warm++
			case strings.Contains(score, "cold"):
				stats.Cold++
			}
			grouped[clientID] = stats
		}
	}

	out := make([]entities.ClientWithStats, len(clients))
	for i, rec := range clients {
		out[i] = entities.ClientWithStats{
			Client:    *clientFromRecord(rec),
			LeadStats: grouped[rec.ID],
		}
	}
	return out, nil
}

// UpdateProfile applies the settings form: the user's display name plus the
// owning client's contact details, both located by the session email.
func (r *ClientRepository) UpdateProfile(ctx context.Context, email, name, phone string) error {
	user, err := r.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user != nil && name != "" {
		if _, err := r.store.Update(ctx, interfaces.CollectionUsers, user.ID, map[string]any{
			query.FieldUserName: name,
		}); err != nil {
			return fmt.Errorf("update user profile: %w", err)
		}
	}

	pred, err := query.ClientByEmail(email)
	if err != nil {
		return err
	}
	clients, err := r.store.Select(ctx, interfaces.CollectionClients, pred, interfaces.SelectOptions{PageSize: 1})
	if err != nil {
		return fmt.Errorf("find client by email: %w", err)
	}
	if len(clients) == 0 {
		return nil
	}

	fields := map[string]any{query.FieldClientEmail: email}
	if phone != "" {
		fields[query.FieldClientContact] = phone
	}
	if _, err := r.store.Update(ctx, interfaces.CollectionClients, clients[0].ID, fields); err != nil {
		return fmt.Errorf("update client profile: %w", err)
	}
	return nil
}

func clientFromRecord(rec interfaces.Record) *entities.Client {
	return &entities.Client{
		ID:      rec.ID,
		Name:    stringField(rec, query.FieldClientName),
		Contact: stringField(rec, query.FieldClientContact),
		Email:   stringField(rec, query.FieldClientEmail),
	}
}
