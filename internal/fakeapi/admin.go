// ABOUTME: Administrator handlers of the fake backend
// ABOUTME: Manages accounts and the intern and company profiles behind them

package fakeapi

import (
	"net/http"
	"sort"

	"github.com/markalston/placement-cli/internal/model"
)

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := make([]model.UserEnvelope, 0, len(s.accounts))
	for _, a := range s.accounts {
		users = append(users, model.UserEnvelope{User: s.userDoc(a)})
	}
	s.mu.Unlock()

	sort.Slice(users, func(i, j int) bool { return users[i].User.Base().ID < users[j].User.Base().ID })
	writeJSON(w, http.StatusOK, paginate(r, users))
}

func (s *Server) handleAdminUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: s.userDoc(a)})
}

func (s *Server) handleAdminPatchUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	var in struct {
		Email    *string `json:"email"`
		IsActive *bool   `json:"is_active"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		notFound(w)
		return
	}
	if in.Email != nil && *in.Email != a.Email {
		if !validEmail(*in.Email) || s.emailTaken(*in.Email) {
			writeJSON(w, http.StatusBadRequest, map[string][]string{"email": {"Adresse e-mail invalide ou déjà utilisée."}})
			return
		}
		a.Email = *in.Email
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: s.userDoc(a)})
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		notFound(w)
		return
	}
	if a.ID == caller(r).ID {
		writeError(w, http.StatusBadRequest, "Vous ne pouvez pas supprimer votre propre compte")
		return
	}
	s.deleteAccount(a)
	w.WriteHeader(http.StatusNoContent)
}

// deleteAccount removes an account with its profile and everything attached.
// Must be called with mu held.
func (s *Server) deleteAccount(a *account) {
	switch a.Role {
	case model.RoleIntern:
		delete(s.interns, a.InternID)
		delete(s.cvs, a.InternID)
		for id, app := range s.applications {
			if app.InternID == a.InternID {
				delete(s.applications, id)
			}
		}
	case model.RoleCompany:
		delete(s.companies, a.CompanyID)
		for id, o := range s.offers {
			if o.CompanyID != a.CompanyID {
				continue
			}
			delete(s.offers, id)
			for appID, app := range s.applications {
				if app.OfferID == id {
					delete(s.applications, appID)
				}
			}
		}
	}
	for id, n := range s.notifications {
		if n.UserID == a.ID {
			delete(s.notifications, id)
		}
	}
	delete(s.accounts, a.ID)
}

func (s *Server) handleAdminInterns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.InternProfile, 0, len(s.interns))
	for _, p := range s.interns {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (s *Server) handleAdminIntern(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.interns[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) handleAdminPatchIntern(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.interns[id]
	if !ok {
		notFound(w)
		return
	}
	updated := *p
	if err := decodeBody(r, &updated); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	updated.ID, updated.CVFile, updated.CVFileURL = p.ID, p.CVFile, p.CVFileURL
	*p = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleAdminCompanies(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]model.CompanyProfile, 0, len(s.companies))
	for _, p := range s.companies {
		out = append(out, *p)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, paginate(r, out))
}

func (s *Server) handleAdminCompany(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.companies[id]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) handleAdminPatchCompany(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.companies[id]
	if !ok {
		notFound(w)
		return
	}
	updated := *p
	if err := decodeBody(r, &updated); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	updated.ID = p.ID
	*p = updated
	writeJSON(w, http.StatusOK, updated)
}

// handleAdminDeleteProfile deletes a profile and the account that owns it.
func (s *Server) handleAdminDeleteProfile(role model.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := pathID(r, "id")
		s.mu.Lock()
		defer s.mu.Unlock()

		var a *account
		if role == model.RoleIntern {
			a = s.accountForIntern(id)
		} else {
			a = s.accountForCompany(id)
		}
		if a == nil {
			notFound(w)
			return
		}
		s.deleteAccount(a)
		w.WriteHeader(http.StatusNoContent)
	}
}
