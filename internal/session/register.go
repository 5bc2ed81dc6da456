// ABOUTME: Generic registration form and its mapping onto role-specific payloads
// ABOUTME: Accepts alternate field names so CLI flags and TUI forms share one shape

package session

import (
	"strings"

	"github.com/markalston/placement-cli/internal/client"
	"github.com/markalston/placement-cli/internal/model"
)

// DefaultSector is sent when a company leaves its sector blank.
const DefaultSector = "Autre"

// RegistrationForm carries whatever fields the user filled in, keyed by field
// name, plus the role being registered.
type RegistrationForm struct {
	Role   model.Role
	Fields map[string]string
}

// get returns the first non-empty value among keys.
func (f RegistrationForm) get(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(f.Fields[k]); v != "" {
			return v
		}
	}
	return ""
}

// password is not trimmed.
func (f RegistrationForm) password(keys ...string) string {
	for _, k := range keys {
		if v := f.Fields[k]; v != "" {
			return v
		}
	}
	return ""
}

func (f RegistrationForm) intern() client.InternRegistration {
	return client.InternRegistration{
		Email:           f.get("email"),
		Password:        f.password("password"),
		PasswordConfirm: f.password("password2", "password_confirm"),
		LastName:        f.get("last_name", "nom"),
		FirstName:       f.get("first_name", "prenom"),
		Phone:           f.get("phone", "telephone"),
		Address:         f.get("address", "adresse"),
		City:            f.get("city", "ville"),
		StudyLevel:      f.get("study_level", "niveau_etude"),
		Domain:          f.get("domain", "domaine"),
	}
}

func (f RegistrationForm) company() client.CompanyRegistration {
	sector := f.get("sector", "secteur_activite")
	if sector == "" {
		sector = DefaultSector
	}
	return client.CompanyRegistration{
		Email:            f.get("email"),
		Password:         f.password("password"),
		PasswordConfirm:  f.password("password2", "password_confirm"),
		CompanyName:      f.get("company_name", "nom_entreprise"),
		Sector:           sector,
		Phone:            f.get("phone", "telephone"),
		Address:          f.get("address", "adresse"),
		City:             f.get("city", "ville"),
		ContactLastName:  f.get("contact_last_name", "contact_nom"),
		ContactFirstName: f.get("contact_first_name", "contact_prenom"),
	}
}
