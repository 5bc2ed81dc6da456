package model

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestDecodeUser_PicksVariantFromRole(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		role Role
		want string
	}{
		{
			name: "intern",
			doc:  `{"id":1,"email":"a@b.com","role":"STAGIAIRE","is_active":true,"stagiaire_profile":{"nom":"Diallo","prenom":"Awa"}}`,
			role: RoleIntern,
			want: "Awa Diallo",
		},
		{
			name: "company",
			doc:  `{"id":2,"email":"hr@acme.test","role":"ENTREPRISE","entreprise_profile":{"nom_entreprise":"Acme"}}`,
			role: RoleCompany,
			want: "Acme",
		},
		{
			name: "admin",
			doc:  `{"id":3,"email":"root@site.test","role":"ADMIN"}`,
			role: RoleAdmin,
			want: "root@site.test",
		},
		{
			name: "intern without profile falls back to email",
			doc:  `{"id":4,"email":"x@y.com","role":"STAGIAIRE"}`,
			role: RoleIntern,
			want: "x@y.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := DecodeUser([]byte(tt.doc))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Role() != tt.role {
				t.Errorf("expected role %s, got %s", tt.role, u.Role())
			}
			if u.DisplayName() != tt.want {
				t.Errorf("expected display name %q, got %q", tt.want, u.DisplayName())
			}
		})
	}
}

func TestDecodeUser_UnknownRole(t *testing.T) {
	_, err := DecodeUser([]byte(`{"id":1,"email":"a@b.com","role":"VISITOR"}`))
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
	if !strings.Contains(err.Error(), "VISITOR") {
		t.Errorf("expected error to name the role, got %v", err)
	}
}

func TestEncodeUser_RoundTripKeepsProfile(t *testing.T) {
	in := CompanyUser{
		Account: Account{ID: 7, Email: "hr@acme.test", IsActive: true},
		Profile: CompanyProfile{CompanyName: "Acme", Sector: "Autre", City: "Dakar"},
	}

	data, err := EncodeUser(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"role":"ENTREPRISE"`) {
		t.Errorf("expected role in document, got %s", data)
	}
	if strings.Contains(string(data), "stagiaire_profile") {
		t.Errorf("company document must not carry an intern profile: %s", data)
	}

	out, err := DecodeUser(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cu, ok := out.(CompanyUser)
	if !ok {
		t.Fatalf("expected CompanyUser, got %T", out)
	}
	if cu.Profile.City != "Dakar" || cu.ID != 7 {
		t.Errorf("profile not preserved: %+v", cu)
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" entreprise ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r != RoleCompany {
		t.Errorf("expected ENTREPRISE, got %s", r)
	}
	if _, err := ParseRole("guest"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestCredentials_AccessExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	got, ok := Credentials{Access: signed}.AccessExpiry()
	if !ok {
		t.Fatal("expected expiry to be readable")
	}
	if !got.Equal(exp) {
		t.Errorf("expected %v, got %v", exp, got)
	}

	if _, ok := (Credentials{Access: "t1"}).AccessExpiry(); ok {
		t.Error("expected opaque token to have no readable expiry")
	}
}
