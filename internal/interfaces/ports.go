package interfaces

import (
	"context"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/query"
)

// Collection names in the record store.
const (
	CollectionUsers   = "Users"
	CollectionClients = "Clients"
	CollectionLeads   = "Leads"
)

// Record is a row from the record store: a store-assigned immutable id and
// creation timestamp plus a bag of named fields.
type Record struct {
	ID          string
	CreatedTime time.Time
	Fields      map[string]any
}

// SelectOptions bound and order a Select. PageSize is a hard cap on the
// number of returned records.
type SelectOptions struct {
	SortField string
	SortDesc  bool
	PageSize  int
}

// RecordStore is the external store the portal runs against. Find returns
// (nil, nil) when the id does not exist. Implementations are externally
// synchronized; callers do no client-side locking.
type RecordStore interface {
	Select(ctx context.Context, collection string, filter *query.Predicate, opts SelectOptions) ([]Record, error)
	Find(ctx context.Context, collection, id string) (*Record, error)
	Create(ctx context.Context, collection string, fields map[string]any) (*Record, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) (*Record, error)
}

// LeadEvent describes a lead mutation for downstream automation.
type LeadEvent struct {
	Event    string `json:"event"` // "created" or "updated"
	LeadID   string `json:"leadId"`
	ClientID string `json:"clientId"`
}

// Notifier delivers lead events to external systems. Delivery is
// best-effort: implementations must never block the caller beyond a bounded
// enqueue and must swallow delivery failures.
type Notifier interface {
	Notify(event LeadEvent)
}
