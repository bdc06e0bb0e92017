// Package nzbntest provides an in-process fake of the NZBN entity API.
package nzbntest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/tpgainz/nzbn-directors/nzbn"
)

const SubscriptionKey = "test-subscription-key"

type Entity struct {
	NZBN  string
	Name  string
	Roles []nzbn.Role
}

// Registry serves /entities and /entities/{nzbn}. Search matches entities
// whose name contains the search term, ignoring case, in declaration order.
type Registry struct {
	*httptest.Server

	mu            sync.Mutex
	entities      []Entity
	searchStatus  int
	entityStatus  int
	searchTerms   []string
	pageSizes     []string
	entityLookups []string
}

func NewRegistry(entities ...Entity) *Registry {
	r := &Registry{entities: entities}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /entities", r.handleSearch)
	mux.HandleFunc("GET /entities/{nzbn}", r.handleEntity)

	r.Server = httptest.NewServer(mux)

	return r
}

// NZBNClient returns an nzbn.Client pointed at the fake with a valid key.
func (r *Registry) NZBNClient() *nzbn.Client {
	return nzbn.NewClient(SubscriptionKey, nzbn.WithBaseURL(r.URL), nzbn.WithHTTPClient(r.Server.Client()))
}

func (r *Registry) FailSearch(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.searchStatus = status
}

func (r *Registry) FailEntity(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entityStatus = status
}

func (r *Registry) SearchTerms() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.searchTerms...)
}

func (r *Registry) PageSizes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.pageSizes...)
}

func (r *Registry) EntityLookups() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.entityLookups...)
}

func (r *Registry) authorized(w http.ResponseWriter, req *http.Request) bool {
	if req.Header.Get("Ocp-Apim-Subscription-Key") != SubscriptionKey {
		http.Error(w, `{"message":"Access denied"}`, http.StatusUnauthorized)
		return false
	}

	return true
}

func (r *Registry) handleSearch(w http.ResponseWriter, req *http.Request) {
	if !r.authorized(w, req) {
		return
	}

	term := req.URL.Query().Get("search-term")
	pageSize, err := strconv.Atoi(req.URL.Query().Get("page-size"))
	if err != nil || pageSize < 1 {
		pageSize = 50
	}

	r.mu.Lock()
	r.searchTerms = append(r.searchTerms, term)
	r.pageSizes = append(r.pageSizes, req.URL.Query().Get("page-size"))
	status := r.searchStatus
	entities := r.entities
	r.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	resp := nzbn.SearchResponse{Items: []nzbn.SearchItem{}, PageSize: pageSize}

	needle := strings.ToLower(strings.TrimSpace(term))
	for _, e := range entities {
		if !strings.Contains(strings.ToLower(e.Name), needle) {
			continue
		}

		resp.TotalItems++

		if len(resp.Items) < pageSize {
			resp.Items = append(resp.Items, nzbn.SearchItem{NZBN: e.NZBN, EntityName: e.Name})
		}
	}

	writeJSON(w, resp)
}

func (r *Registry) handleEntity(w http.ResponseWriter, req *http.Request) {
	if !r.authorized(w, req) {
		return
	}

	id := req.PathValue("nzbn")

	r.mu.Lock()
	r.entityLookups = append(r.entityLookups, id)
	status := r.entityStatus
	entities := r.entities
	r.mu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return
	}

	for _, e := range entities {
		if e.NZBN == id {
			writeJSON(w, nzbn.EntityResponse{NZBN: e.NZBN, EntityName: e.Name, Roles: e.Roles})
			return
		}
	}

	http.NotFound(w, req)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Director builds an active director role.
func Director(first, last string) nzbn.Role {
	return nzbn.Role{
		RoleType:   "Director",
		RoleStatus: "ACTIVE",
		RolePerson: &nzbn.RolePerson{FirstName: first, LastName: last},
	}
}

// ResignedDirector builds a director role that is no longer in effect.
func ResignedDirector(first, last string) nzbn.Role {
	role := Director(first, last)
	role.RoleStatus = "RESIGNED"

	return role
}
