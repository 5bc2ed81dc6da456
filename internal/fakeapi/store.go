// ABOUTME: In-memory records behind the fake backend and their JSON views
// ABOUTME: Accounts, profiles, offers, applications, notifications and stored CVs

package fakeapi

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/placement-cli/internal/model"
)

type account struct {
	model.Account
	Role      model.Role
	Hash      []byte
	InternID  int
	CompanyID int
}

type offerRow struct {
	model.OfferInput
	ID        int
	CompanyID int
	Created   time.Time
	Updated   time.Time
}

type applicationRow struct {
	ID       int
	OfferID  int
	InternID int
	Letter   string
	Status   model.ApplicationStatus
	Applied  time.Time
	Updated  time.Time
}

type notificationRow struct {
	UserID int
	model.Notification
	created time.Time
}

// nextID must be called with mu held.
func (s *Server) nextID() int {
	s.seq++
	return s.seq
}

func (s *Server) stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Server) today() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Server) emailTaken(email string) bool {
	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return true
		}
	}
	return false
}

// createAccount must be called with mu held.
func (s *Server) createAccount(email, password string, role model.Role) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	a := &account{
		Account: model.Account{
			ID:         s.nextID(),
			Email:      strings.ToLower(email),
			IsActive:   true,
			DateJoined: s.stamp(s.now()),
		},
		Role: role,
		Hash: hash,
	}
	s.accounts[a.ID] = a
	return a, nil
}

// AddIntern creates an intern account and returns its user id.
func (s *Server) AddIntern(email, password string, p model.InternProfile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addIntern(email, password, p)
}

func (s *Server) addIntern(email, password string, p model.InternProfile) (int, error) {
	if s.emailTaken(email) {
		return 0, fmt.Errorf("email %s already registered", email)
	}
	a, err := s.createAccount(email, password, model.RoleIntern)
	if err != nil {
		return 0, err
	}
	p.ID = s.nextID()
	s.interns[p.ID] = &p
	a.InternID = p.ID
	s.signalNewIntern(p)
	return a.ID, nil
}

// AddCompany creates a company account and returns its user id.
func (s *Server) AddCompany(email, password string, p model.CompanyProfile) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCompany(email, password, p)
}

func (s *Server) addCompany(email, password string, p model.CompanyProfile) (int, error) {
	if s.emailTaken(email) {
		return 0, fmt.Errorf("email %s already registered", email)
	}
	a, err := s.createAccount(email, password, model.RoleCompany)
	if err != nil {
		return 0, err
	}
	p.ID = s.nextID()
	s.companies[p.ID] = &p
	a.CompanyID = p.ID
	return a.ID, nil
}

// AddAdmin creates an administrator account and returns its user id.
func (s *Server) AddAdmin(email, password string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(email) {
		return 0, fmt.Errorf("email %s already registered", email)
	}
	a, err := s.createAccount(email, password, model.RoleAdmin)
	if err != nil {
		return 0, err
	}
	return a.ID, nil
}

// AddOffer publishes an offer for the company account userID and returns the
// offer id. Input is not validated, so past dates can be seeded.
func (s *Server) AddOffer(userID int, in model.OfferInput) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok || a.Role != model.RoleCompany {
		return 0, fmt.Errorf("user %d is not a company", userID)
	}
	now := s.now()
	row := &offerRow{OfferInput: in, ID: s.nextID(), CompanyID: a.CompanyID, Created: now, Updated: now}
	s.offers[row.ID] = row
	return row.ID, nil
}

// Notify stores a notification for userID and returns its id.
func (s *Server) Notify(userID int, n model.Notification) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notify(userID, n)
}

func (s *Server) notify(userID int, n model.Notification) int {
	now := s.now()
	n.ID = s.nextID()
	n.IsRead = false
	n.CreatedAt = s.stamp(now)
	s.notifications[n.ID] = &notificationRow{UserID: userID, Notification: n, created: now}
	return n.ID
}

// SetActive enables or disables an account.
func (s *Server) SetActive(userID int, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		a.IsActive = active
	}
}

// InternProfileID returns the profile id of an intern account.
func (s *Server) InternProfileID(userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.accounts[userID]; ok {
		return a.InternID
	}
	return 0
}

func (s *Server) userDoc(a *account) model.User {
	switch a.Role {
	case model.RoleIntern:
		u := model.InternUser{Account: a.Account}
		if p, ok := s.interns[a.InternID]; ok {
			u.Profile = *p
		}
		return u
	case model.RoleCompany:
		u := model.CompanyUser{Account: a.Account}
		if p, ok := s.companies[a.CompanyID]; ok {
			u.Profile = *p
		}
		return u
	default:
		return model.AdminUser{Account: a.Account}
	}
}

func (s *Server) accountForIntern(internID int) *account {
	for _, a := range s.accounts {
		if a.Role == model.RoleIntern && a.InternID == internID {
			return a
		}
	}
	return nil
}

func (s *Server) accountForCompany(companyID int) *account {
	for _, a := range s.accounts {
		if a.Role == model.RoleCompany && a.CompanyID == companyID {
			return a
		}
	}
	return nil
}

func (s *Server) slotsTaken(offerID int) int {
	n := 0
	for _, app := range s.applications {
		if app.OfferID == offerID && app.Status == model.StatusAccepted {
			n++
		}
	}
	return n
}

func (s *Server) offerView(row *offerRow) model.Offer {
	o := model.Offer{
		ID:             row.ID,
		Title:          row.Title,
		Type:           row.Type,
		Domain:         row.Domain,
		Description:    row.Description,
		RequiredSkills: row.RequiredSkills,
		Duration:       row.Duration,
		StartDate:      row.StartDate,
		City:           row.City,
		Pay:            row.Pay,
		Slots:          row.Slots,
		Active:         row.Active,
		Deadline:       row.Deadline,
		CreatedAt:      s.stamp(row.Created),
		UpdatedAt:      s.stamp(row.Updated),
		SlotsTaken:     s.slotsTaken(row.ID),
	}
	if p, ok := s.companies[row.CompanyID]; ok {
		c := *p
		o.Company = &c
	}
	o.Expired = s.expired(row)
	o.Full = o.SlotsTaken >= o.Slots
	o.Available = o.Active && !o.Expired && !o.Full
	return o
}

func (s *Server) expired(row *offerRow) bool {
	if row.Deadline == "" {
		return false
	}
	d, err := time.Parse(model.DateLayout, row.Deadline)
	if err != nil {
		return false
	}
	return d.Before(s.today())
}

func (s *Server) applicationView(row *applicationRow) model.Application {
	app := model.Application{
		ID:          row.ID,
		CoverLetter: row.Letter,
		Status:      row.Status,
		AppliedAt:   s.stamp(row.Applied),
		UpdatedAt:   s.stamp(row.Updated),
	}
	if o, ok := s.offers[row.OfferID]; ok {
		v := s.offerView(o)
		app.Offer = &v
	}
	if p, ok := s.interns[row.InternID]; ok {
		applicant := &model.Applicant{InternProfile: *p}
		if a := s.accountForIntern(row.InternID); a != nil {
			applicant.User = &model.AccountRef{ID: a.ID, Email: a.Email}
		}
		app.Applicant = applicant
	}
	return app
}

// newestFirst sorts by RFC 3339 timestamp, then id, descending.
func newestFirst[T any](items []T, when func(T) string, id func(T) int) {
	sort.Slice(items, func(i, j int) bool {
		wi, wj := when(items[i]), when(items[j])
		if wi != wj {
			return wi > wj
		}
		return id(items[i]) > id(items[j])
	})
}

// signalNewIntern tells companies with active offers, in the intern's domain
// when one is set, that an intern registered.
func (s *Server) signalNewIntern(p model.InternProfile) {
	notified := map[int]bool{}
	for _, o := range s.offers {
		if !o.Active || (p.Domain != "" && o.Domain != p.Domain) || notified[o.CompanyID] {
			continue
		}
		a := s.accountForCompany(o.CompanyID)
		if a == nil {
			continue
		}
		notified[o.CompanyID] = true

		domain := ""
		if p.Domain != "" {
			domain = " dans le domaine " + p.Domain
		}
		id := p.ID
		s.notify(a.ID, model.Notification{
			Type:              model.NotifNewIntern,
			Title:             "Nouveau stagiaire inscrit",
			Message:           fmt.Sprintf("Un nouveau stagiaire %s %s%s vient de s'inscrire sur la plateforme.", p.FirstName, p.LastName, domain),
			RelatedObjectType: "stagiaire",
			RelatedObjectID:   &id,
		})
	}
}

func (s *Server) signalNewApplication(offer *offerRow) {
	a := s.accountForCompany(offer.CompanyID)
	if a == nil {
		return
	}
	id := offer.ID
	s.notify(a.ID, model.Notification{
		Type:              model.NotifNewApplication,
		Title:             "Nouvelle candidature",
		Message:           fmt.Sprintf("Une nouvelle candidature a été reçue pour l'offre '%s'", offer.Title),
		RelatedObjectType: "offre",
		RelatedObjectID:   &id,
	})
}

func (s *Server) signalDecision(app *applicationRow) {
	a := s.accountForIntern(app.InternID)
	offer, ok := s.offers[app.OfferID]
	if a == nil || !ok {
		return
	}

	typ, word := model.NotifApplicationAccepted, "acceptée"
	if app.Status == model.StatusRejected {
		typ, word = model.NotifApplicationRejected, "refusée"
	}
	id := offer.ID
	s.notify(a.ID, model.Notification{
		Type:              typ,
		Title:             "Candidature " + word,
		Message:           fmt.Sprintf("Votre candidature pour l'offre '%s' a été %s", offer.Title, word),
		RelatedObjectType: "offre",
		RelatedObjectID:   &id,
	})
}
