package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elish-Ab/qualify-law/internal/interfaces"
	"github.com/Elish-Ab/qualify-law/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAirtableStore(t *testing.T, handler http.HandlerFunc) *AirtableStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewAirtableStore(srv.URL, "key-test", zap.NewNop().Sugar())
}

func TestAirtableSelectSendsFormulaAndSort(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	store := testAirtableStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(airtableList{Records: []airtableRecord{
			{ID: "recLead1", Fields: map[string]any{"First Name": "Ada"}},
		}})
	})

	pred, err := query.LeadsForTenant("recClientA", query.LeadFilter{})
	require.NoError(t, err)

	records, err := store.Select(context.Background(), interfaces.CollectionLeads, pred, interfaces.SelectOptions{
		SortField: query.FieldCreatedTime,
		SortDesc:  true,
		PageSize:  100,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "recLead1", records[0].ID)

	assert.Equal(t, "/Leads", gotPath)
	assert.Equal(t, "Bearer key-test", gotAuth)
	assert.Equal(t, []string{"FIND('recClientA', ARRAYJOIN({Clients})) > 0"}, gotQuery["filterByFormula"])
	assert.Equal(t, []string{"100"}, gotQuery["pageSize"])
	assert.Equal(t, []string{"Created time"}, gotQuery["sort[0][field]"])
	assert.Equal(t, []string{"desc"}, gotQuery["sort[0][direction]"])
}

func TestAirtableFindMapsNotFoundToNil(t *testing.T) {
	store := testAirtableStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"NOT_FOUND"}`, http.StatusNotFound)
	})

	rec, err := store.Find(context.Background(), interfaces.CollectionLeads, "recNope")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestAirtableFindOtherErrorsPropagate(t *testing.T) {
	store := testAirtableStore(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := store.Find(context.Background(), interfaces.CollectionLeads, "recLead1")
	assert.Error(t, err)
}

func TestAirtableCreateWrapsRecordAndTypecasts(t *testing.T) {
	var gotBody map[string]any
	store := testAirtableStore(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(airtableList{Records: []airtableRecord{
			{ID: "recNew", Fields: map[string]any{"First Name": "Ada"}},
		}})
	})

	rec, err := store.Create(context.Background(), interfaces.CollectionLeads, map[string]any{"First Name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", rec.ID)

	assert.Equal(t, true, gotBody["typecast"])
	records, ok := gotBody["records"].([]any)
	require.True(t, ok)
	require.Len(t, records, 1)
}

func TestAirtableUpdatePatchesRecord(t *testing.T) {
	var gotMethod, gotPath string
	store := testAirtableStore(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(airtableRecord{ID: "recLead1", Fields: map[string]any{"Status": "Warm Lead"}})
	})

	rec, err := store.Update(context.Background(), interfaces.CollectionLeads, "recLead1", map[string]any{"Status": "Warm Lead"})
	require.NoError(t, err)
	assert.Equal(t, "Warm Lead", rec.Fields["Status"])
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/Leads/recLead1", gotPath)
}
