package agencyapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

type tenant struct {
	mu     sync.Mutex
	agency *models.Agency
}

func (t *tenant) SelectedAgency() *models.Agency {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.agency == nil {
		return nil
	}
	a := *t.agency
	return &a
}

func (t *tenant) set(id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.agency = &models.Agency{ID: id, Name: fmt.Sprintf("Agency %d", id)}
}

type upload struct {
	name        string
	fileName    string
	contentType string
	size        int
	agencyID    string
}

// fakeAPI is an in-memory stand-in for the agency REST API.
type fakeAPI struct {
	t *testing.T

	mu        sync.Mutex
	nextID    int64
	customers map[string][]map[string]any
	uploads   []upload
	removed   []int64

	requests     atomic.Int32
	unauthorized atomic.Bool
	deleteStatus int
	onList       func()
}

func newFakeAPI(t *testing.T) *fakeAPI {
	return &fakeAPI{t: t, nextID: 100, customers: map[string][]map[string]any{}}
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/csrf/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-CSRFToken", "token")
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		f.requests.Add(1)

		if f.unauthorized.Load() {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"detail":"Authentication credentials were not provided."}`)
			return
		}
		if r.Method != http.MethodGet && r.Header.Get("X-CSRFToken") != "token" {
			w.WriteHeader(http.StatusForbidden)
			_, _ = io.WriteString(w, `{"detail":"CSRF Failed"}`)
			return
		}

		agencyID := r.URL.Query().Get("agency_id")
		if agencyID == "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"agency_id is required"}`)
			return
		}

		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 2 && parts[1] == "customers":
			f.customersHandler(w, r, agencyID)
		case len(parts) == 3 && parts[1] == "customers":
			f.customerHandler(w, r, agencyID, parts[2])
		case len(parts) == 2 && parts[1] == "policies":
			f.writeJSON(w, http.StatusOK, []map[string]any{policyJSON(1, 10), policyJSON(2, 10)})
		case len(parts) == 3 && parts[1] == "businesses":
			if parts[2] != "10" {
				w.WriteHeader(http.StatusNotFound)
				_, _ = io.WriteString(w, `{"detail":"Not found."}`)
				return
			}
			f.writeJSON(w, http.StatusOK, businessJSON(10))
		case len(parts) == 4 && parts[3] == "uploaded_documents":
			if parts[2] != "10" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			f.writeJSON(w, http.StatusOK, []map[string]any{documentJSON(5)})
		case len(parts) == 4 && parts[3] == "add_document":
			f.uploadHandler(w, r, agencyID)
		case len(parts) == 4 && parts[3] == "remove_document":
			var body struct {
				DocumentID int64 `json:"document_id"`
			}
			require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
			f.mu.Lock()
			f.removed = append(f.removed, body.DocumentID)
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		case len(parts) == 4 && parts[3] == "generate_renewal_comparison":
			f.writeJSON(w, http.StatusOK, map[string]any{
				"ai_provider": r.URL.Query().Get("ai_provider"),
				"email":       "Hi <b>there</b>",
				"attachment":  "# Comparison",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	return mux
}

func (f *fakeAPI) customersHandler(w http.ResponseWriter, r *http.Request, agencyID string) {
	switch r.Method {
	case http.MethodGet:
		if f.onList != nil {
			f.onList()
		}
		f.mu.Lock()
		list := append([]map[string]any{}, f.customers[agencyID]...)
		f.mu.Unlock()
		f.writeJSON(w, http.StatusOK, list)

	case http.MethodPost:
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(f.t, agencyID, fmt.Sprint(body["agency_id"]))

		if body["email"] == "taken@example.com" {
			f.writeJSON(w, http.StatusBadRequest, map[string]any{"email": []string{"customer with this email already exists."}})
			return
		}

		f.mu.Lock()
		f.nextID++
		now := time.Now().UTC().Format(time.RFC3339)
		aid, _ := strconv.ParseInt(agencyID, 10, 64)
		rec := map[string]any{
			"id":                  f.nextID,
			"first_name":          body["first_name"],
			"last_name":           body["last_name"],
			"email":               body["email"],
			"phone_number":        body["phone_number"],
			"businesses":          []any{},
			"agency":              aid,
			"agency_name":         "Agency " + agencyID,
			"created_by":          7,
			"created_by_username": "ann",
			"created_at":          now,
			"updated_at":          now,
		}
		f.customers[agencyID] = append(f.customers[agencyID], rec)
		f.mu.Unlock()

		f.writeJSON(w, http.StatusCreated, rec)
	}
}

func (f *fakeAPI) customerHandler(w http.ResponseWriter, r *http.Request, agencyID, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	list := f.customers[agencyID]
	idx := -1
	for i, c := range list {
		if fmt.Sprint(c["id"]) == id {
			idx = i
		}
	}
	if idx < 0 {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Not found."}`)
		return
	}

	switch r.Method {
	case http.MethodGet:
		f.writeJSON(w, http.StatusOK, list[idx])
	case http.MethodPatch:
		var body map[string]any
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&body))
		for k, v := range body {
			if k != "agency_id" {
				list[idx][k] = v
			}
		}
		f.writeJSON(w, http.StatusOK, list[idx])
	case http.MethodDelete:
		if f.deleteStatus != 0 {
			w.WriteHeader(f.deleteStatus)
			return
		}
		f.customers[agencyID] = append(list[:idx], list[idx+1:]...)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeAPI) uploadHandler(w http.ResponseWriter, r *http.Request, agencyID string) {
	require.NoError(f.t, r.ParseMultipartForm(32<<20))
	file, hdr, err := r.FormFile("file")
	require.NoError(f.t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(f.t, err)

	f.mu.Lock()
	f.uploads = append(f.uploads, upload{
		name:        r.FormValue("name"),
		fileName:    hdr.Filename,
		contentType: hdr.Header.Get("Content-Type"),
		size:        len(data),
		agencyID:    agencyID,
	})
	f.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(f.t, json.NewEncoder(w).Encode(v))
}

func businessJSON(id int64) map[string]any {
	return map[string]any{
		"id": id, "name": "Acme Hardware", "description": nil, "address": "1 Main St",
		"phone_number": nil, "email": nil, "customer": 101, "documents": []any{},
		"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z",
	}
}

func policyJSON(id, business int64) map[string]any {
	return map[string]any{
		"id": id, "business": business, "business_name": "Acme Hardware",
		"policy_number": "GL-" + strconv.FormatInt(id, 10), "effective_date": "2024-01-01",
		"expiration_date": "2025-01-01", "carrier": "Hartford", "annual_premium": "1500.00",
		"policy_type": "general_liability", "policy_type_display": "General Liability",
		"is_active": true, "documents": []any{},
		"created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z",
	}
}

func documentJSON(id int64) map[string]any {
	return map[string]any{
		"id": id, "name": "Loss runs", "description": "", "file": "/media/loss.pdf",
		"field_values": []any{}, "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z",
	}
}

type fixture struct {
	fake   *fakeAPI
	api    *client.Client
	tenant *tenant
	svc    *Service
	authed atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fake := newFakeAPI(t)
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	api, err := client.New(client.Config{ServerURL: srv.URL})
	require.NoError(t, err)

	f := &fixture{fake: fake, api: api, tenant: &tenant{}}
	api.OnUnauthenticated(func() { f.authed.Add(1) })

	f.svc, err = New(api, f.tenant)
	require.NoError(t, err)

	return f
}
