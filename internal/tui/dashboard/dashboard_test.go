// ABOUTME: Tests for the role dashboard
// ABOUTME: Validates parallel summary loading and per-role rendering

package dashboard

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/markalston/placement-cli/internal/model"
)

type fakeAPI struct {
	unreadErr error
	offersErr error
}

func (f *fakeAPI) UnreadCount(context.Context) (int, error) {
	if f.unreadErr != nil {
		return 0, f.unreadErr
	}
	return 3, nil
}

func (f *fakeAPI) ListOffers(context.Context, model.OfferFilter) (model.Page[model.Offer], error) {
	if f.offersErr != nil {
		return model.Page[model.Offer]{}, f.offersErr
	}
	return model.Page[model.Offer]{Count: 12}, nil
}

func (f *fakeAPI) MyOffers(context.Context) (model.Page[model.Offer], error) {
	return model.Page[model.Offer]{Count: 2, Results: []model.Offer{
		{ID: 1, Active: true, Slots: 3, SlotsTaken: 1},
		{ID: 2, Active: false, Slots: 1, SlotsTaken: 1},
	}}, nil
}

func (f *fakeAPI) MyApplications(context.Context) (model.Page[model.Application], error) {
	return model.Page[model.Application]{Count: 3, Results: []model.Application{
		{ID: 1, Status: model.StatusPending},
		{ID: 2, Status: model.StatusPending},
		{ID: 3, Status: model.StatusAccepted},
	}}, nil
}

func (f *fakeAPI) ListApplications(context.Context, int) (model.Page[model.Application], error) {
	return model.Page[model.Application]{Count: 2, Results: []model.Application{
		{ID: 1, Status: model.StatusPending},
		{ID: 2, Status: model.StatusRejected},
	}}, nil
}

func (f *fakeAPI) ListUsers(context.Context) ([]model.User, error) {
	return []model.User{model.AdminUser{}, model.InternUser{}}, nil
}

func (f *fakeAPI) ListInterns(context.Context) ([]model.InternProfile, error) {
	return []model.InternProfile{{ID: 1}}, nil
}

func (f *fakeAPI) ListCompanies(context.Context) ([]model.CompanyProfile, error) {
	return []model.CompanyProfile{{ID: 1}, {ID: 2}, {ID: 3}}, nil
}

func TestLoad_Intern(t *testing.T) {
	u := model.InternUser{Profile: model.InternProfile{FirstName: "Lina", LastName: "Benali", CVFile: "cvs/cv.pdf"}}

	s, err := Load(context.Background(), &fakeAPI{}, u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Unread != 3 || s.OpenOffers != 12 || !s.HasCV {
		t.Errorf("unexpected summary %+v", s)
	}
	if s.Applications[model.StatusPending] != 2 || s.Applications[model.StatusAccepted] != 1 {
		t.Errorf("expected 2 pending and 1 accepted, got %v", s.Applications)
	}
}

func TestLoad_Company(t *testing.T) {
	s, err := Load(context.Background(), &fakeAPI{}, model.CompanyUser{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Offers != 2 || s.ActiveOffers != 1 || s.Slots != 4 || s.SlotsTaken != 2 || s.Pending != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestLoad_Admin(t *testing.T) {
	s, err := Load(context.Background(), &fakeAPI{}, model.AdminUser{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Users != 2 || s.Interns != 1 || s.Companies != 3 || s.Offers != 12 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestLoad_UnreadFailureDefaultsToZero(t *testing.T) {
	s, err := Load(context.Background(), &fakeAPI{unreadErr: errors.New("down")}, model.AdminUser{})
	if err != nil {
		t.Fatalf("expected unread failure to be absorbed, got %v", err)
	}
	if s.Unread != 0 {
		t.Errorf("expected 0 unread, got %d", s.Unread)
	}
}

func TestLoad_FailurePropagates(t *testing.T) {
	_, err := Load(context.Background(), &fakeAPI{offersErr: errors.New("boom")}, model.InternUser{})
	if err == nil || !strings.Contains(err.Error(), "loading offers") {
		t.Errorf("expected wrapped offers error, got %v", err)
	}
}

func TestLoad_NilUser(t *testing.T) {
	if _, err := Load(context.Background(), &fakeAPI{}, nil); err == nil {
		t.Error("expected error for nil user")
	}
}

func TestDashboardNilSummary(t *testing.T) {
	d := New(nil, 80, 24)
	if !strings.Contains(d.View(), "Loading") {
		t.Error("expected loading message when summary is nil")
	}
}

func TestDashboardView(t *testing.T) {
	tests := []struct {
		name    string
		summary *Summary
		want    []string
	}{
		{
			name:    "intern",
			summary: &Summary{Role: model.RoleIntern, Name: "Lina Benali", Unread: 4, OpenOffers: 7},
			want:    []string{"Intern dashboard", "Lina Benali", "Open offers", "missing"},
		},
		{
			name:    "company",
			summary: &Summary{Role: model.RoleCompany, Name: "Acme", Offers: 2, ActiveOffers: 1, Slots: 4, SlotsTaken: 2},
			want:    []string{"Company dashboard", "To review", "2 of 4", "1 active"},
		},
		{
			name:    "admin",
			summary: &Summary{Role: model.RoleAdmin, Name: "root@x.com", Users: 9},
			want:    []string{"Administrator dashboard", "Users", "Companies"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			view := New(tc.summary, 120, 30).View()
			for _, w := range tc.want {
				if !strings.Contains(view, w) {
					t.Errorf("expected view to contain %q\nView:\n%s", w, view)
				}
			}
		})
	}
}

func TestDashboardUpdateAndSetSize(t *testing.T) {
	d := New(nil, 80, 24)
	d.Update(&Summary{Role: model.RoleAdmin, Name: "root"})
	if strings.Contains(d.View(), "Loading") {
		t.Error("should not show loading after update")
	}

	d.SetSize(120, 40)
	if d.width != 120 || d.height != 40 {
		t.Errorf("expected 120x40, got %dx%d", d.width, d.height)
	}
}
