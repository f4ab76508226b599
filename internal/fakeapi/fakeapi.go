// Package fakeapi is an in-memory stand-in for the product management
// backend, served with httptest. It implements the three auth endpoints and
// a few bearer protected resources.
package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/jrsteele09/productms-console/authmodel"
	"github.com/jrsteele09/productms-console/internal/utils"
	"github.com/jrsteele09/productms-console/users"
)

type account struct {
	profile  users.Profile
	password string
}

type API struct {
	*httptest.Server

	lock     sync.RWMutex
	accounts map[string]*account // username -> account
	tokens   map[string]string   // access token -> username
	nextID   int

	// ProfileStatus, when non-zero, is returned by /auth/profile/ instead of the profile.
	ProfileStatus atomic.Int32
	// ProfileCalls counts /auth/profile/ requests.
	ProfileCalls atomic.Int32
	// LastRequestID is the X-Request-ID of the most recent request.
	LastRequestID atomic.Value
}

func New() *API {
	a := &API{
		accounts: make(map[string]*account),
		tokens:   make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/register/", a.register)
	mux.HandleFunc("POST /auth/login/", a.login)
	mux.HandleFunc("GET /auth/profile/", a.bearer(a.profile))
	mux.HandleFunc("GET /products/", a.bearer(a.products))
	mux.HandleFunc("GET /products/{id}/", a.bearer(a.product))
	mux.HandleFunc("GET /dashboard/stats/", a.bearer(a.stats))
	mux.HandleFunc("GET /admin-only/", a.bearer(a.adminOnly))

	a.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.LastRequestID.Store(r.Header.Get("X-Request-ID"))
		mux.ServeHTTP(w, r)
	}))
	return a
}

// AddUser creates an account and returns its profile.
func (a *API) AddUser(username, password string, role users.RoleType) users.Profile {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.addUserLocked(username, password, "", role)
}

// IssueToken returns a fresh access token for username, as a login would.
func (a *API) IssueToken(username string) string {
	a.lock.Lock()
	defer a.lock.Unlock()
	return a.issueLocked(username)
}

// SetRole changes the role the backend reports for username.
func (a *API) SetRole(username string, role users.RoleType) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if acc, ok := a.accounts[username]; ok {
		acc.profile.Role = role
	}
}

// RevokeAll invalidates every issued access token.
func (a *API) RevokeAll() {
	a.lock.Lock()
	defer a.lock.Unlock()
	a.tokens = make(map[string]string)
}

func (a *API) addUserLocked(username, password, firstName string, role users.RoleType) users.Profile {
	a.nextID++
	p := users.Profile{ID: a.nextID, Username: username, FirstName: firstName, Role: role}
	a.accounts[username] = &account{profile: p, password: password}
	return p
}

func (a *API) issueLocked(username string) string {
	token := "access-" + uuid.New().String()
	a.tokens[token] = username
	return token
}

func (a *API) authResponseLocked(username string) authmodel.AuthResponse {
	p := a.accounts[username].profile
	return authmodel.AuthResponse{
		Access:  utils.Ptr(a.issueLocked(username)),
		Refresh: utils.Ptr("refresh-" + uuid.New().String()),
		User:    &p,
	}
}

func (a *API) register(w http.ResponseWriter, r *http.Request) {
	var req authmodel.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	fe := req.Validate()
	if _, exists := a.accounts[req.Username]; exists {
		fe.Add("username", "A user with that username already exists.")
	}
	if !fe.Empty() {
		writeJSON(w, http.StatusBadRequest, fe)
		return
	}
	a.addUserLocked(req.Username, req.Password, req.FirstName, req.Role)
	writeJSON(w, http.StatusCreated, a.authResponseLocked(req.Username))
}

func (a *API) login(w http.ResponseWriter, r *http.Request) {
	var req authmodel.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "malformed body"})
		return
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	acc, ok := a.accounts[req.Username]
	if !ok || acc.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	writeJSON(w, http.StatusOK, a.authResponseLocked(req.Username))
}

type bearerHandler func(w http.ResponseWriter, r *http.Request, p users.Profile)

func (a *API) bearer(next bearerHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		a.lock.RLock()
		username, ok := a.tokens[token]
		var p users.Profile
		if ok {
			p = a.accounts[username].profile
		}
		a.lock.RUnlock()

		if !found || !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
			return
		}
		next(w, r, p)
	}
}

func (a *API) profile(w http.ResponseWriter, _ *http.Request, p users.Profile) {
	a.ProfileCalls.Add(1)
	if status := int(a.ProfileStatus.Load()); status != 0 {
		writeJSON(w, status, map[string]string{"detail": http.StatusText(status)})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *API) products(w http.ResponseWriter, _ *http.Request, _ users.Profile) {
	writeJSON(w, http.StatusOK, map[string]any{
		"count":   2,
		"results": []map[string]any{{"id": 1, "name": "Widget"}, {"id": 2, "name": "Gadget"}},
	})
}

func (a *API) product(w http.ResponseWriter, r *http.Request, _ users.Profile) {
	writeJSON(w, http.StatusOK, map[string]any{"id": r.PathValue("id"), "name": "Widget"})
}

func (a *API) stats(w http.ResponseWriter, _ *http.Request, _ users.Profile) {
	writeJSON(w, http.StatusOK, map[string]any{"total_products": 2})
}

func (a *API) adminOnly(w http.ResponseWriter, _ *http.Request, p users.Profile) {
	if p.Role != users.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "admin data"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
