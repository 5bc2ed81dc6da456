// ABOUTME: Platform user types: roles, profiles and the per-role User variants
// ABOUTME: Decodes and encodes the backend's user document with its nested profile

package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Role is the account type assigned at registration. It never changes.
type Role string

const (
	RoleIntern  Role = "STAGIAIRE"
	RoleCompany Role = "ENTREPRISE"
	RoleAdmin   Role = "ADMIN"
)

// Roles lists every known role in display order.
var Roles = []Role{RoleIntern, RoleCompany, RoleAdmin}

// ParseRole accepts the wire value case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIntern, RoleCompany, RoleAdmin:
		return true
	}
	return false
}

// Label is the human-readable role name.
func (r Role) Label() string {
	switch r {
	case RoleIntern:
		return "Intern"
	case RoleCompany:
		return "Company"
	case RoleAdmin:
		return "Administrator"
	default:
		return string(r)
	}
}

// Account holds the fields every user carries regardless of role.
type Account struct {
	ID         int    `json:"id"`
	Email      string `json:"email"`
	IsActive   bool   `json:"is_active"`
	DateJoined string `json:"date_joined,omitempty"`
}

// InternProfile is the stagiaire profile.
type InternProfile struct {
	ID            int    `json:"id,omitempty"`
	LastName      string `json:"nom"`
	FirstName     string `json:"prenom"`
	Phone         string `json:"telephone,omitempty"`
	BirthDate     string `json:"date_naissance,omitempty"`
	Address       string `json:"adresse,omitempty"`
	City          string `json:"ville,omitempty"`
	StudyLevel    string `json:"niveau_etude,omitempty"`
	Domain        string `json:"domaine,omitempty"`
	CVFile        string `json:"cv_file,omitempty"`
	CVFileURL     string `json:"cv_file_url,omitempty"`
}

// HasCV reports whether a CV has been uploaded.
func (p InternProfile) HasCV() bool {
	return p.CVFile != "" || p.CVFileURL != ""
}

// CompanyProfile is the entreprise profile.
type CompanyProfile struct {
	ID               int    `json:"id,omitempty"`
	CompanyName      string `json:"nom_entreprise"`
	Sector           string `json:"secteur_activite,omitempty"`
	Phone            string `json:"telephone,omitempty"`
	Address          string `json:"adresse,omitempty"`
	City             string `json:"ville,omitempty"`
	Website          string `json:"site_web,omitempty"`
	Description      string `json:"description,omitempty"`
	ContactLastName  string `json:"contact_nom,omitempty"`
	ContactFirstName string `json:"contact_prenom,omitempty"`
	ContactTitle     string `json:"contact_fonction,omitempty"`
}

// User is an authenticated platform user. The concrete type fixes the role,
// so an intern always carries an InternProfile and a company a CompanyProfile.
type User interface {
	Base() Account
	Role() Role
	DisplayName() string
	user()
}

// InternUser is a STAGIAIRE account.
type InternUser struct {
	Account
	Profile InternProfile
}

// CompanyUser is an ENTREPRISE account.
type CompanyUser struct {
	Account
	Profile CompanyProfile
}

// AdminUser is an ADMIN account. Admins have no profile.
type AdminUser struct {
	Account
}

func (u InternUser) Base() Account  { return u.Account }
func (u CompanyUser) Base() Account { return u.Account }
func (u AdminUser) Base() Account   { return u.Account }

func (InternUser) Role() Role  { return RoleIntern }
func (CompanyUser) Role() Role { return RoleCompany }
func (AdminUser) Role() Role   { return RoleAdmin }

func (u InternUser) DisplayName() string {
	name := strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

func (u CompanyUser) DisplayName() string {
	if u.Profile.CompanyName == "" {
		return u.Email
	}
	return u.Profile.CompanyName
}

func (u AdminUser) DisplayName() string { return u.Email }

func (InternUser) user()  {}
func (CompanyUser) user() {}
func (AdminUser) user()   {}

// wireUser is the backend's user document.
type wireUser struct {
	Account
	Role              Role            `json:"role"`
	StagiaireProfile  *InternProfile  `json:"stagiaire_profile,omitempty"`
	EntrepriseProfile *CompanyProfile `json:"entreprise_profile,omitempty"`
}

// DecodeUser picks the User variant from the document's role.
func DecodeUser(data []byte) (User, error) {
	var w wireUser
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}

	switch w.Role {
	case RoleIntern:
		u := InternUser{Account: w.Account}
		if w.StagiaireProfile != nil {
			u.Profile = *w.StagiaireProfile
		}
		return u, nil
	case RoleCompany:
		u := CompanyUser{Account: w.Account}
		if w.EntrepriseProfile != nil {
			u.Profile = *w.EntrepriseProfile
		}
		return u, nil
	case RoleAdmin:
		return AdminUser{Account: w.Account}, nil
	default:
		return nil, fmt.Errorf("decoding user: unknown role %q", w.Role)
	}
}

// EncodeUser writes u in the backend's user document shape.
func EncodeUser(u User) ([]byte, error) {
	if u == nil {
		return nil, fmt.Errorf("encoding user: nil user")
	}
	w := wireUser{Account: u.Base(), Role: u.Role()}
	switch v := u.(type) {
	case InternUser:
		p := v.Profile
		w.StagiaireProfile = &p
	case *InternUser:
		p := v.Profile
		w.StagiaireProfile = &p
	case CompanyUser:
		p := v.Profile
		w.EntrepriseProfile = &p
	case *CompanyUser:
		p := v.Profile
		w.EntrepriseProfile = &p
	}
	return json.Marshal(w)
}

// UserEnvelope lets a User be embedded in other JSON documents.
type UserEnvelope struct {
	User User
}

func (e UserEnvelope) MarshalJSON() ([]byte, error) {
	if e.User == nil {
		return []byte("null"), nil
	}
	return EncodeUser(e.User)
}

func (e *UserEnvelope) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		e.User = nil
		return nil
	}
	u, err := DecodeUser(data)
	if err != nil {
		return err
	}
	e.User = u
	return nil
}
