// ABOUTME: Offer and application handlers of the fake backend
// ABOUTME: Applies role visibility rules and emits application notifications

package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/markalston/placement-cli/internal/model"
)

// visibleOffers must be called with mu held.
func (s *Server) visibleOffers(me *account, q func(string) string) []model.Offer {
	search := strings.ToLower(q("search"))
	city, domain, active := q("ville"), q("domaine"), q("est_active")

	out := []model.Offer{}
	for _, row := range s.offers {
		o := s.offerView(row)

		if search != "" &&
			!strings.Contains(strings.ToLower(o.Title), search) &&
			!strings.Contains(strings.ToLower(o.Description), search) &&
			!strings.Contains(strings.ToLower(o.CompanyName()), search) {
			continue
		}
		if city != "" && o.City != city {
			continue
		}
		if domain != "" && o.Domain != domain {
			continue
		}
		if active != "" && o.Active != strings.EqualFold(active, "true") {
			continue
		}

		switch {
		case me == nil || me.Role == model.RoleIntern:
			if !o.Available {
				continue
			}
		case me.Role == model.RoleCompany:
			if row.CompanyID != me.CompanyID {
				continue
			}
		}
		out = append(out, o)
	}
	newestFirst(out, func(o model.Offer) string { return o.CreatedAt }, func(o model.Offer) int { return o.ID })
	return out
}

func (s *Server) handleListOffers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	offers := s.visibleOffers(caller(r), r.URL.Query().Get)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, offers))
}

func (s *Server) handleMyOffers(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	offers := []model.Offer{}

	s.mu.Lock()
	if me.Role == model.RoleCompany {
		for _, row := range s.offers {
			if row.CompanyID == me.CompanyID {
				offers = append(offers, s.offerView(row))
			}
		}
	}
	s.mu.Unlock()

	newestFirst(offers, func(o model.Offer) string { return o.CreatedAt }, func(o model.Offer) int { return o.ID })
	writeJSON(w, http.StatusOK, paginate(r, offers))
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	me := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.offers[id]
	if !ok {
		notFound(w)
		return
	}
	if me != nil && me.Role == model.RoleCompany && row.CompanyID != me.CompanyID {
		writeDetail(w, http.StatusForbidden, "Vous n'avez pas la permission de voir cette offre")
		return
	}
	writeJSON(w, http.StatusOK, s.offerView(row))
}

func (s *Server) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if me.Role != model.RoleCompany {
		writeDetail(w, http.StatusForbidden, "Seules les entreprises peuvent créer des offres")
		return
	}

	in := model.OfferInput{Active: true}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := in.Validate(s.now(), false); err != nil {
		s.writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	row := &offerRow{OfferInput: in, ID: s.nextID(), CompanyID: me.CompanyID, Created: now, Updated: now}
	s.offers[row.ID] = row
	writeJSON(w, http.StatusCreated, s.offerView(row))
}

func (s *Server) writeValidation(w http.ResponseWriter, err error) {
	if v, ok := err.(model.ValidationErrors); ok {
		writeFieldErrors(w, v)
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func (s *Server) handleUpdateOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	me := caller(r)

	s.mu.Lock()
	row, ok := s.offers[id]
	var current model.OfferInput
	if ok {
		current = row.OfferInput
	}
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}
	admin := me.Role == model.RoleAdmin
	if !admin && (me.Role != model.RoleCompany || row.CompanyID != me.CompanyID) {
		writeError(w, http.StatusForbidden, "Vous n'avez pas la permission de modifier cette offre")
		return
	}

	in := current
	if r.Method == http.MethodPut {
		in = model.OfferInput{Active: true}
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := in.Validate(s.now(), admin); err != nil {
		s.writeValidation(w, err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok = s.offers[id]
	if !ok {
		notFound(w)
		return
	}
	row.OfferInput = in
	row.Updated = s.now()
	writeJSON(w, http.StatusOK, s.offerView(row))
}

func (s *Server) handleDeleteOffer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	me := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.offers[id]
	if !ok {
		notFound(w)
		return
	}
	if me.Role != model.RoleAdmin && (me.Role != model.RoleCompany || row.CompanyID != me.CompanyID) {
		writeError(w, http.StatusForbidden, "Vous n'avez pas la permission de supprimer cette offre")
		return
	}
	delete(s.offers, id)
	for appID, app := range s.applications {
		if app.OfferID == id {
			delete(s.applications, appID)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// canSeeApplication must be called with mu held.
func (s *Server) canSeeApplication(me *account, app *applicationRow) bool {
	switch me.Role {
	case model.RoleAdmin:
		return true
	case model.RoleIntern:
		return app.InternID == me.InternID
	case model.RoleCompany:
		o, ok := s.offers[app.OfferID]
		return ok && o.CompanyID == me.CompanyID
	}
	return false
}

func (s *Server) applicationList(r *http.Request, keep func(*applicationRow) bool) model.Page[model.Application] {
	apps := []model.Application{}
	s.mu.Lock()
	for _, row := range s.applications {
		if keep(row) {
			apps = append(apps, s.applicationView(row))
		}
	}
	s.mu.Unlock()
	newestFirst(apps, func(a model.Application) string { return a.AppliedAt }, func(a model.Application) int { return a.ID })
	return paginate(r, apps)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	offerID, _ := strconv.Atoi(r.URL.Query().Get("offre_id"))
	writeJSON(w, http.StatusOK, s.applicationList(r, func(app *applicationRow) bool {
		return s.canSeeApplication(me, app) && (offerID == 0 || app.OfferID == offerID)
	}))
}

func (s *Server) handleMyApplications(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	writeJSON(w, http.StatusOK, s.applicationList(r, func(app *applicationRow) bool {
		return me.Role == model.RoleIntern && app.InternID == me.InternID
	}))
}

func (s *Server) handleOfferApplications(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	me := caller(r)

	s.mu.Lock()
	offer, ok := s.offers[id]
	allowed := ok && (me.Role == model.RoleAdmin || (me.Role == model.RoleCompany && offer.CompanyID == me.CompanyID))
	s.mu.Unlock()
	if !ok {
		notFound(w)
		return
	}

	writeJSON(w, http.StatusOK, s.applicationList(r, func(app *applicationRow) bool {
		return allowed && app.OfferID == id
	}))
}

func (s *Server) handleCreateApplication(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if me.Role != model.RoleIntern {
		writeDetail(w, http.StatusForbidden, "Seuls les stagiaires peuvent créer des candidatures")
		return
	}

	var in model.ApplicationInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if in.OfferID == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"offre_id": {"Ce champ est requis lors de la création"}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	offer, ok := s.offers[in.OfferID]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"offre_id": {"Offre introuvable."}})
		return
	}
	for _, app := range s.applications {
		if app.OfferID == in.OfferID && app.InternID == me.InternID {
			writeJSON(w, http.StatusBadRequest, map[string][]string{
				"non_field_errors": {"Les champs offre, stagiaire doivent former un ensemble unique."},
			})
			return
		}
	}

	now := s.now()
	row := &applicationRow{
		ID:       s.nextID(),
		OfferID:  in.OfferID,
		InternID: me.InternID,
		Letter:   in.CoverLetter,
		Status:   model.StatusPending,
		Applied:  now,
		Updated:  now,
	}
	s.applications[row.ID] = row
	s.signalNewApplication(offer)
	writeJSON(w, http.StatusCreated, s.applicationView(row))
}

func (s *Server) handleGetApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.applications[id]
	if !ok {
		notFound(w)
		return
	}
	if !s.canSeeApplication(caller(r), row) {
		writeError(w, http.StatusForbidden, "Permission refusée")
		return
	}
	writeJSON(w, http.StatusOK, s.applicationView(row))
}

func (s *Server) handleUpdateApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	var in struct {
		Letter *string                  `json:"lettre_motivation"`
		Status *model.ApplicationStatus `json:"statut"`
	}
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	me := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.applications[id]
	if !ok {
		notFound(w)
		return
	}

	switch me.Role {
	case model.RoleIntern:
		if row.InternID != me.InternID {
			writeError(w, http.StatusForbidden, "Vous n'avez pas la permission de modifier cette candidature")
			return
		}
		in.Status = nil
	case model.RoleCompany:
		if o, ok := s.offers[row.OfferID]; !ok || o.CompanyID != me.CompanyID {
			writeError(w, http.StatusForbidden, "Vous n'avez pas la permission de modifier cette candidature")
			return
		}
	}

	if in.Status != nil {
		switch *in.Status {
		case model.StatusPending, model.StatusAccepted, model.StatusRejected:
		default:
			writeJSON(w, http.StatusBadRequest, map[string][]string{"statut": {"Choix invalide."}})
			return
		}
	}

	if in.Letter != nil {
		row.Letter = *in.Letter
	}
	changed := in.Status != nil && *in.Status != row.Status
	if in.Status != nil {
		row.Status = *in.Status
	}
	row.Updated = s.now()
	if changed && row.Status != model.StatusPending {
		s.signalDecision(row)
	}
	writeJSON(w, http.StatusOK, s.applicationView(row))
}

func (s *Server) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		notFound(w)
		return
	}
	me := caller(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.applications[id]
	if !ok {
		notFound(w)
		return
	}
	if me.Role != model.RoleAdmin && (me.Role != model.RoleIntern || row.InternID != me.InternID) {
		writeError(w, http.StatusForbidden, "Vous n'avez pas la permission de supprimer cette candidature")
		return
	}
	delete(s.applications, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDecision(status model.ApplicationStatus) http.HandlerFunc {
	message := "Candidature acceptée"
	if status == model.StatusRejected {
		message = "Candidature refusée"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			notFound(w)
			return
		}
		me := caller(r)

		s.mu.Lock()
		defer s.mu.Unlock()
		row, ok := s.applications[id]
		if !ok {
			notFound(w)
			return
		}
		offer, ok := s.offers[row.OfferID]
		if me.Role != model.RoleCompany || !ok || offer.CompanyID != me.CompanyID {
			writeError(w, http.StatusForbidden, "Permission refusée")
			return
		}

		row.Status = status
		row.Updated = s.now()
		s.signalDecision(row)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":     message,
			"candidature": s.applicationView(row),
		})
	}
}
