package http

import (
	"net/http"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"claimguard/claim"
	"claimguard/monitoring"
	"claimguard/scoring"
)

const sessionCookie = "claimguard_session"

// FormView is what the form page shows for one browser session: the last
// submitted values and either the result of that submission or its error.
type FormView struct {
	Values claim.Record
	Result *scoring.Result
	Error  *ViewError
}

// ViewError is the user-facing part of a failed submission.
type ViewError struct {
	Message string
	Details string
}

// SessionStore keeps the latest FormView per session in a bounded LRU.
type SessionStore struct {
	views *lru.Cache[string, FormView]
}

// NewSessionStore creates a store holding at most capacity sessions.
func NewSessionStore(capacity int) (*SessionStore, error) {
	if capacity <= 0 {
		capacity = 1024
	}
	views, err := lru.New[string, FormView](capacity)
	if err != nil {
		return nil, err
	}
	return &SessionStore{views: views}, nil
}

// Get returns the view for the request's session, if any.
func (s *SessionStore) Get(r *http.Request) (FormView, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return FormView{}, false
	}
	return s.views.Get(c.Value)
}

// Put replaces the session's view, issuing a session cookie when needed.
func (s *SessionStore) Put(w http.ResponseWriter, r *http.Request, view FormView) {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			id = c.Value
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	s.views.Add(id, view)
	monitoring.FormSessions.Set(float64(s.Len()))
}

// Len returns the number of sessions held; evicted ones are not counted.
func (s *SessionStore) Len() int {
	return s.views.Len()
}
