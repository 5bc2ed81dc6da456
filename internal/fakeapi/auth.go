// ABOUTME: Authentication, profile and CV handlers of the fake backend
// ABOUTME: Mirrors the platform's registration validation and login error bodies

package fakeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/placement-cli/internal/model"
)

const (
	minPasswordLength = 8
	maxCVSize         = 10 << 20
	msgRequired       = "Ce champ est obligatoire."
)

type authResponse struct {
	Message string             `json:"message"`
	User    model.UserEnvelope `json:"user"`
	Tokens  model.Credentials  `json:"tokens"`
}

type credentialsInput struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type internRegistration struct {
	credentialsInput
	model.InternProfile
}

type companyRegistration struct {
	credentialsInput
	model.CompanyProfile
}

func (s *Server) validateCredentials(in credentialsInput, errs model.ValidationErrors) {
	switch {
	case in.Email == "":
		errs["email"] = append(errs["email"], msgRequired)
	case !validEmail(in.Email):
		errs["email"] = append(errs["email"], "Saisissez une adresse e-mail valide.")
	case s.emailTaken(in.Email):
		errs["email"] = append(errs["email"], "Un utilisateur avec cet email existe déjà.")
	}
	if len(in.Password) < minPasswordLength {
		errs["password"] = append(errs["password"], fmt.Sprintf("Assurez-vous que ce champ comporte au moins %d caractères.", minPasswordLength))
	}
	if in.Password != in.PasswordConfirm {
		errs["password"] = append(errs["password"], "Les mots de passe ne correspondent pas")
	}
}

func validEmail(s string) bool {
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}

func requireField(errs model.ValidationErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = append(errs[field], msgRequired)
	}
}

func (s *Server) handleRegisterIntern(w http.ResponseWriter, r *http.Request) {
	var in internRegistration
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	errs := model.ValidationErrors{}
	s.validateCredentials(in.credentialsInput, errs)
	requireField(errs, "nom", in.LastName)
	requireField(errs, "prenom", in.FirstName)
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	profile := in.InternProfile
	profile.CVFile, profile.CVFileURL = "", ""
	id, err := s.addIntern(in.Email, in.Password, profile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeAuth(w, http.StatusCreated, "Stagiaire créé avec succès", s.accounts[id])
}

func (s *Server) handleRegisterCompany(w http.ResponseWriter, r *http.Request) {
	var in companyRegistration
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	errs := model.ValidationErrors{}
	s.validateCredentials(in.credentialsInput, errs)
	requireField(errs, "nom_entreprise", in.CompanyName)
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	id, err := s.addCompany(in.Email, in.Password, in.CompanyProfile)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeAuth(w, http.StatusCreated, "Entreprise créée avec succès", s.accounts[id])
}

// writeAuth must be called with mu held.
func (s *Server) writeAuth(w http.ResponseWriter, status int, msg string, a *account) {
	tokens, err := s.issue(a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, status, authResponse{
		Message: msg,
		User:    model.UserEnvelope{User: s.userDoc(a)},
		Tokens:  tokens,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in credentialsInput
	if err := decodeBody(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	errs := model.ValidationErrors{}
	requireField(errs, "email", in.Email)
	requireField(errs, "password", in.Password)
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var found *account
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, in.Email) {
			found = a
			break
		}
	}
	if found == nil || bcrypt.CompareHashAndPassword(found.Hash, []byte(in.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "Email ou mot de passe incorrect")
		return
	}
	if !found.IsActive {
		writeError(w, http.StatusForbidden, "Ce compte est désactivé")
		return
	}
	s.writeAuth(w, http.StatusOK, "Connexion réussie", found)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeBody(r, &in); err != nil || in.Refresh == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {msgRequired}})
		return
	}

	c, err := s.parse(in.Refresh, tokenRefresh)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || s.revoked[c.ID] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{
			"detail": "Token is invalid or expired",
			"code":   "token_not_valid",
		})
		return
	}
	if a, ok := s.accounts[c.UserID]; !ok || !a.IsActive {
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, err := s.sign(c.UserID, tokenAccess, s.accessTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = decodeBody(r, &in)

	if in.RefreshToken != "" {
		c, err := s.parse(in.RefreshToken, tokenRefresh)
		if err != nil || c.UserID != caller(r).ID {
			writeError(w, http.StatusBadRequest, "Token invalide")
			return
		}
		s.mu.Lock()
		s.revoked[c.ID] = true
		s.mu.Unlock()
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Déconnexion réussie"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[caller(r).ID]
	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, model.UserEnvelope{User: s.userDoc(a)})
}

func (s *Server) handleUpdateIntern(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if me.Role != model.RoleIntern {
		writeError(w, http.StatusForbidden, "Vous devez être un stagiaire")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		s.uploadCV(w, r, me)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.interns[me.InternID]
	if !ok {
		notFound(w)
		return
	}

	updated := *current
	if err := json.Unmarshal(body, &updated); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	updated.ID, updated.CVFile, updated.CVFileURL = current.ID, current.CVFile, current.CVFileURL
	if raw, ok := fields["cv_file"]; ok && bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		updated.CVFile, updated.CVFileURL = "", ""
		delete(s.cvs, current.ID)
	}
	if r.Method == http.MethodPut {
		errs := model.ValidationErrors{}
		requireField(errs, "nom", updated.LastName)
		requireField(errs, "prenom", updated.FirstName)
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
	}

	*current = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) uploadCV(w http.ResponseWriter, r *http.Request, me *account) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCVSize+1<<20)
	file, header, err := r.FormFile("cv_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"cv_file": {"Aucun fichier n'a été soumis."}})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCVSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload")
		return
	}
	name := filepath.Base(header.Filename)
	switch {
	case !strings.EqualFold(filepath.Ext(name), ".pdf"):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"cv_file": {"Le fichier doit être au format PDF."}})
		return
	case len(data) > maxCVSize:
		writeJSON(w, http.StatusBadRequest, map[string][]string{"cv_file": {"La taille du fichier ne doit pas dépasser 10 Mo."}})
		return
	case len(data) == 0:
		writeJSON(w, http.StatusBadRequest, map[string][]string{"cv_file": {"Le fichier soumis est vide."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.interns[me.InternID]
	if !ok {
		notFound(w)
		return
	}
	s.cvs[p.ID] = data
	p.CVFile = "cvs/" + name
	p.CVFileURL = fmt.Sprintf("http://%s/media/cv/%d/%s", r.Host, p.ID, name)
	writeJSON(w, http.StatusOK, *p)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	me := caller(r)
	if me.Role != model.RoleCompany {
		writeError(w, http.StatusForbidden, "Vous devez être une entreprise")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.companies[me.CompanyID]
	if !ok {
		notFound(w)
		return
	}
	updated := *current
	if err := decodeBody(r, &updated); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	updated.ID = current.ID
	if r.Method == http.MethodPut {
		errs := model.ValidationErrors{}
		requireField(errs, "nom_entreprise", updated.CompanyName)
		if len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
	}
	*current = updated
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleViewCV(w http.ResponseWriter, r *http.Request) {
	me := caller(r)

	internID := me.InternID
	if chi.URLParam(r, "internID") != "" {
		id, ok := pathID(r, "internID")
		if !ok {
			notFound(w)
			return
		}
		if me.Role == model.RoleAdmin {
			internID = id
		}
	}
	if me.Role != model.RoleIntern && !(me.Role == model.RoleAdmin && internID != 0) {
		writeError(w, http.StatusForbidden, "Vous devez être un stagiaire pour voir votre CV")
		return
	}

	s.mu.Lock()
	data, ok := s.cvs[internID]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "CV non trouvé")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleMediaCV(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "internID")
	if !ok {
		notFound(w)
		return
	}
	s.mu.Lock()
	data, ok := s.cvs[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	_, _ = w.Write(data)
}
