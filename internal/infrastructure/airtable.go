package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"go.uber.org/zap"
)

// AirtableStore talks to an Airtable-dialect REST base. Filters arrive as
// predicate trees and are serialized to filterByFormula here, in one place,
// so no handler or repository ever concatenates filter text.
type AirtableStore struct {
	baseURL string // e.g. https://api.airtable.com/v0/<baseID>
	apiKey  string
	client  *http.Client
	log     *zap.SugaredLogger
}

func NewAirtableStore(baseURL, apiKey string, log *zap.SugaredLogger) *AirtableStore {
	return &AirtableStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type airtableRecord struct {
	ID          string         `json:"id"`
	CreatedTime time.Time      `json:"createdTime"`
	Fields      map[string]any `json:"fields"`
}

type airtableList struct {
	Records []airtableRecord `json:"records"`
}

func (r airtableRecord) toRecord() interfaces.Record {
	return interfaces.Record{ID: r.ID, CreatedTime: r.CreatedTime, Fields: r.Fields}
}

func (s *AirtableStore) Select(ctx context.Context, collection string, filter *query.Predicate, opts interfaces.SelectOptions) ([]interfaces.Record, error) {
	params := url.Values{}
	if filter != nil {
		formula, err := Formula(filter)
		if err != nil {
			return nil, err
		}
		params.Set("filterByFormula", formula)
	}
	if opts.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	if opts.SortField != "" {
		params.Set("sort[0][field]", opts.SortField)
		direction := "asc"
		if opts.SortDesc {
			direction = "desc"
		}
		params.Set("sort[0][direction]", direction)
	}

	var list airtableList
	if err := s.do(ctx, http.MethodGet, collection+"?"+params.Encode(), nil, &list); err != nil {
		return nil, err
	}
	records := make([]interfaces.Record, len(list.Records))
	for i, r := range list.Records {
		records[i] = r.toRecord()
	}
	return records, nil
}

func (s *AirtableStore) Find(ctx context.Context, collection, id string) (*interfaces.Record, error) {
	var raw airtableRecord
	err := s.do(ctx, http.MethodGet, collection+"/"+url.PathEscape(id), nil, &raw)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	rec := raw.toRecord()
	return &rec, nil
}

func (s *AirtableStore) Create(ctx context.Context, collection string, fields map[string]any) (*interfaces.Record, error) {
	body := map[string]any{
		"records":  []map[string]any{{"fields": fields}},
		"typecast": true,
	}
	var list airtableList
	if err := s.do(ctx, http.MethodPost, collection, body, &list); err != nil {
		return nil, err
	}
	if len(list.Records) == 0 {
		return nil, fmt.Errorf("store: create returned no records")
	}
	rec := list.Records[0].toRecord()
	return &rec, nil
}

func (s *AirtableStore) Update(ctx context.Context, collection, id string, fields map[string]any) (*interfaces.Record, error) {
	body := map[string]any{"fields": fields, "typecast": true}
	var raw airtableRecord
	if err := s.do(ctx, http.MethodPatch, collection+"/"+url.PathEscape(id), body, &raw); err != nil {
		return nil, err
	}
	rec := raw.toRecord()
	return &rec, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("store: unexpected status %d", e.code)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.code == http.StatusNotFound
}

func (s *AirtableStore) do(ctx context.Context, method, path string, body, out any) error {
	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+"/"+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("store: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if resp.StatusCode != http.StatusNotFound {
			s.log.Errorw("record store error", "method", method, "status", resp.StatusCode, "body", string(raw))
		}
		return &statusError{code: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
