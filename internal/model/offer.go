// ABOUTME: Internship offers and applications as exchanged with the backend
// ABOUTME: Includes client-side validation of offer input before submission

package model

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// InternshipType classifies an offer.
type InternshipType string

const (
	TypeObservation  InternshipType = "OBSERVATION"
	TypeInitiation   InternshipType = "INITIATION"
	TypeImprovement  InternshipType = "PERFECTIONNEMENT"
	TypeFinalProject InternshipType = "PFE"
)

// InternshipTypes lists the accepted types in display order.
var InternshipTypes = []InternshipType{TypeObservation, TypeInitiation, TypeImprovement, TypeFinalProject}

// DateLayout is the backend's date format.
const DateLayout = "2006-01-02"

// Offer is an internship offer published by a company.
type Offer struct {
	ID             int             `json:"id"`
	Company        *CompanyProfile `json:"entreprise,omitempty"`
	Title          string          `json:"titre"`
	Type           InternshipType  `json:"type_stage"`
	Domain         string          `json:"domaine"`
	Description    string          `json:"description"`
	RequiredSkills string          `json:"competences_requises,omitempty"`
	Duration       string          `json:"duree"`
	StartDate      string          `json:"date_debut"`
	City           string          `json:"ville"`
	Pay            string          `json:"remuneration,omitempty"`
	Slots          int             `json:"nombre_places"`
	Active         bool            `json:"est_active"`
	CreatedAt      string          `json:"date_creation,omitempty"`
	UpdatedAt      string          `json:"date_modification,omitempty"`
	Deadline       string          `json:"date_limite,omitempty"`
	SlotsTaken     int             `json:"places_prises"`
	Available      bool            `json:"est_disponible"`
	Expired        bool            `json:"est_expiree"`
	Full           bool            `json:"est_complete"`
}

// CompanyName returns the publishing company's name when it was embedded.
func (o Offer) CompanyName() string {
	if o.Company == nil {
		return ""
	}
	return o.Company.CompanyName
}

// State summarizes whether the offer can still receive applications:
// inactive, expired, full or open.
func (o Offer) State() string {
	switch {
	case !o.Active:
		return "inactive"
	case o.Expired:
		return "expired"
	case o.Full:
		return "full"
	default:
		return "open"
	}
}

// OfferInput is the write shape for creating or updating an offer.
type OfferInput struct {
	Title          string         `json:"titre"`
	Type           InternshipType `json:"type_stage"`
	Domain         string         `json:"domaine"`
	Description    string         `json:"description"`
	RequiredSkills string         `json:"competences_requises"`
	Duration       string         `json:"duree"`
	StartDate      string         `json:"date_debut"`
	City           string         `json:"ville"`
	Pay            string         `json:"remuneration"`
	Slots          int            `json:"nombre_places"`
	Active         bool           `json:"est_active"`
	Deadline       string         `json:"date_limite,omitempty"`
}

// InputFromOffer copies the editable fields of o.
func InputFromOffer(o Offer) OfferInput {
	return OfferInput{
		Title:          o.Title,
		Type:           o.Type,
		Domain:         o.Domain,
		Description:    o.Description,
		RequiredSkills: o.RequiredSkills,
		Duration:       o.Duration,
		StartDate:      o.StartDate,
		City:           o.City,
		Pay:            o.Pay,
		Slots:          o.Slots,
		Active:         o.Active,
		Deadline:       o.Deadline,
	}
}

var durationPattern = regexp.MustCompile(`^(\d+)\s*(mois|semaines?|jours?|months?|weeks?|days?)$`)

// ValidationErrors maps a field name to its messages.
type ValidationErrors map[string][]string

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Error joins every message in field order.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, strings.Join(v[f], ", ")))
	}
	return strings.Join(parts, "; ")
}

// Validate applies the checks the backend enforces on offers. Admins may use
// past dates.
func (in OfferInput) Validate(now time.Time, admin bool) error {
	errs := ValidationErrors{}

	required := map[string]string{
		"titre":       in.Title,
		"domaine":     in.Domain,
		"description": in.Description,
		"duree":       in.Duration,
		"date_debut":  in.StartDate,
		"ville":       in.City,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			errs.add(field, "this field is required")
		}
	}

	if in.Type != "" {
		known := false
		for _, t := range InternshipTypes {
			if in.Type == t {
				known = true
				break
			}
		}
		if !known {
			errs.add("type_stage", fmt.Sprintf("unknown internship type %q", in.Type))
		}
	}

	if in.Slots < 1 {
		errs.add("nombre_places", "at least one slot is required")
	}

	if d := strings.ToLower(strings.TrimSpace(in.Duration)); d != "" && !durationPattern.MatchString(d) {
		errs.add("duree", "use 'N mois', 'N semaines' or 'N jours'")
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var start, deadline time.Time
	var err error
	if in.StartDate != "" {
		if start, err = time.Parse(DateLayout, in.StartDate); err != nil {
			errs.add("date_debut", "expected YYYY-MM-DD")
		} else if !admin && start.Before(today) {
			errs.add("date_debut", "start date cannot be in the past")
		}
	}
	if in.Deadline != "" {
		if deadline, err = time.Parse(DateLayout, in.Deadline); err != nil {
			errs.add("date_limite", "expected YYYY-MM-DD")
		} else if !admin && deadline.Before(today) {
			errs.add("date_limite", "deadline cannot be in the past")
		}
	}
	if !start.IsZero() && !deadline.IsZero() && deadline.Before(start) {
		errs.add("date_limite", "deadline must be on or after the start date")
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// OfferFilter narrows the offer list.
type OfferFilter struct {
	Search string
	City   string
	Domain string
	Active *bool
	Page   int
}

// ApplicationStatus is the lifecycle state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "EN_ATTENTE"
	StatusAccepted ApplicationStatus = "ACCEPTEE"
	StatusRejected ApplicationStatus = "REFUSEE"
)

// Label is the human-readable status.
func (s ApplicationStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return string(s)
	}
}

// Applicant is the intern summary embedded in an application.
type Applicant struct {
	InternProfile
	User *AccountRef `json:"user,omitempty"`
}

// AccountRef identifies the account behind a profile.
type AccountRef struct {
	ID    int    `json:"id"`
	Email string `json:"email"`
}

// Email returns the applicant's account email when present.
func (a Applicant) Email() string {
	if a.User == nil {
		return ""
	}
	return a.User.Email
}

// Application is an intern's candidature to an offer.
type Application struct {
	ID          int               `json:"id"`
	Offer       *Offer            `json:"offre,omitempty"`
	Applicant   *Applicant        `json:"stagiaire,omitempty"`
	CoverLetter string            `json:"lettre_motivation"`
	Status      ApplicationStatus `json:"statut"`
	AppliedAt   string            `json:"date_candidature,omitempty"`
	UpdatedAt   string            `json:"date_modification,omitempty"`
}

// ApplicationInput is the write shape for a new application.
type ApplicationInput struct {
	OfferID     int    `json:"offre_id"`
	CoverLetter string `json:"lettre_motivation"`
}
