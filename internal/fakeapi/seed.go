// ABOUTME: Demo data for the local development backend
// ABOUTME: One account per role plus a few offers, applications and notifications

package fakeapi

import (
	"fmt"

	"github.com/markalston/placement-cli/internal/model"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "placement123"

// Demo lists the seeded accounts.
type Demo struct {
	AdminEmail   string
	CompanyEmail string
	InternEmail  string
}

// Seed fills s with demo data.
func Seed(s *Server) (Demo, error) {
	demo := Demo{
		AdminEmail:   "admin@placement.test",
		CompanyEmail: "rh@acme.test",
		InternEmail:  "lina@etudiant.test",
	}

	if _, err := s.AddAdmin(demo.AdminEmail, DemoPassword); err != nil {
		return demo, fmt.Errorf("seeding admin: %w", err)
	}
	company, err := s.AddCompany(demo.CompanyEmail, DemoPassword, model.CompanyProfile{
		CompanyName:      "Acme Logiciels",
		Sector:           "Informatique",
		City:             "Lyon",
		ContactLastName:  "Martin",
		ContactFirstName: "Claire",
	})
	if err != nil {
		return demo, fmt.Errorf("seeding company: %w", err)
	}

	start := s.today().AddDate(0, 1, 0).Format(model.DateLayout)
	deadline := s.today().AddDate(0, 0, 20).Format(model.DateLayout)
	offers := []model.OfferInput{
		{
			Title:       "Développeur Go backend",
			Type:        model.TypeFinalProject,
			Domain:      "Informatique",
			Description: "Conception d'API REST et de services de synchronisation.",
			Duration:    "6 mois",
			StartDate:   start,
			Deadline:    deadline,
			City:        "Lyon",
			Pay:         "1200 EUR",
			Slots:       2,
			Active:      true,
		},
		{
			Title:       "Assistant data analyst",
			Type:        model.TypeInitiation,
			Domain:      "Data",
			Description: "Tableaux de bord et nettoyage de données.",
			Duration:    "8 semaines",
			StartDate:   start,
			City:        "Paris",
			Slots:       1,
			Active:      true,
		},
	}
	var firstOffer int
	for i, in := range offers {
		id, err := s.AddOffer(company, in)
		if err != nil {
			return demo, fmt.Errorf("seeding offer: %w", err)
		}
		if i == 0 {
			firstOffer = id
		}
	}

	intern, err := s.AddIntern(demo.InternEmail, DemoPassword, model.InternProfile{
		LastName:   "Benali",
		FirstName:  "Lina",
		City:       "Lyon",
		StudyLevel: "Master 1",
		Domain:     "Informatique",
	})
	if err != nil {
		return demo, fmt.Errorf("seeding intern: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	app := &applicationRow{
		ID:       s.nextID(),
		OfferID:  firstOffer,
		InternID: s.accounts[intern].InternID,
		Letter:   "Passionnée par Go et les systèmes distribués.",
		Status:   model.StatusPending,
		Applied:  now,
		Updated:  now,
	}
	s.applications[app.ID] = app
	s.signalNewApplication(s.offers[firstOffer])
	return demo, nil
}
