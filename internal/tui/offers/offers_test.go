package offers

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
	"github.com/markalston/placement-cli/internal/tui/forms"
	"github.com/markalston/placement-cli/internal/tui/nav"
)

type fakeAPI struct {
	offers   []model.Offer
	mine     []model.Offer
	filters  []model.OfferFilter
	deleted  []int
	created  []model.OfferInput
	updated  map[int]model.OfferInput
	getErr   error
	saveErr  error
	mineUsed int
}

func (f *fakeAPI) ListOffers(_ context.Context, filter model.OfferFilter) (model.Page[model.Offer], error) {
	f.filters = append(f.filters, filter)
	return model.Page[model.Offer]{Count: len(f.offers), Results: f.offers}, nil
}

func (f *fakeAPI) MyOffers(context.Context) (model.Page[model.Offer], error) {
	f.mineUsed++
	return model.Page[model.Offer]{Count: len(f.mine), Results: f.mine}, nil
}

func (f *fakeAPI) GetOffer(_ context.Context, id int) (*model.Offer, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, o := range append(f.offers, f.mine...) {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeAPI) DeleteOffer(_ context.Context, id int) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) CreateOffer(_ context.Context, in model.OfferInput) (*model.Offer, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	f.created = append(f.created, in)
	return &model.Offer{ID: 99, Title: in.Title}, nil
}

func (f *fakeAPI) UpdateOffer(_ context.Context, id int, in model.OfferInput) (*model.Offer, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if f.updated == nil {
		f.updated = map[int]model.OfferInput{}
	}
	f.updated[id] = in
	return &model.Offer{ID: id, Title: in.Title}, nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into m, one level deep.
func run(m tea.Model, cmd tea.Cmd) tea.Model {
	if cmd == nil {
		return m
	}
	m, _ = m.Update(cmd())
	return m
}

// collect executes cmd and returns every message it produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func navigatedTo(msgs []tea.Msg) string {
	for _, m := range msgs {
		if n, ok := m.(nav.NavigateMsg); ok {
			return n.Path
		}
	}
	return ""
}

var acme = &model.CompanyProfile{ID: 7, CompanyName: "Acme"}

func sampleOffers() []model.Offer {
	return []model.Offer{
		{ID: 1, Title: "Go dev", Company: acme, City: "Lyon", Slots: 2, Active: true},
		{ID: 2, Title: "Data", Company: &model.CompanyProfile{ID: 8, CompanyName: "Other"}, City: "Paris", Slots: 1, Active: true, Full: true},
	}
}

func TestList_LoadsAndOpensOffer(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	l := NewList(api, model.RoleIntern)
	l.SetSize(100, 30)
	run(l, l.Init())

	view := l.View()
	if !strings.Contains(view, "Go dev") || !strings.Contains(view, "full") {
		t.Errorf("expected offers in view, got %q", view)
	}

	_, cmd := l.Update(key("enter"))
	if got := navigatedTo(collect(cmd)); got != access.OfferPath(1) {
		t.Errorf("expected navigation to %s, got %q", access.OfferPath(1), got)
	}
}

func TestList_Search(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	l := NewList(api, model.RoleIntern)
	run(l, l.Init())

	l.Update(key("/"))
	if !l.Searching() {
		t.Fatal("expected search to open")
	}
	l.Update(key("go"))
	_, cmd := l.Update(key("enter"))
	run(l, cmd)

	if l.Searching() {
		t.Error("expected search to close on enter")
	}
	last := api.filters[len(api.filters)-1]
	if last.Search != "go" || last.Page != 1 {
		t.Errorf("expected search filter {go, page 1}, got %+v", last)
	}
}

func TestList_CompanyStartsOnOwnOffers(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers(), mine: sampleOffers()[:1]}
	l := NewList(api, model.RoleCompany)
	run(l, l.Init())

	if api.mineUsed != 1 || len(api.filters) != 0 {
		t.Errorf("expected MyOffers to be used, got mine=%d list=%d", api.mineUsed, len(api.filters))
	}
	if !strings.Contains(l.View(), "My offers") {
		t.Error("expected My offers title")
	}

	_, cmd := l.Update(key("o"))
	run(l, cmd)
	if len(api.filters) != 1 {
		t.Errorf("expected toggle to list all offers, got %d list calls", len(api.filters))
	}

	_, cmd = l.Update(key("c"))
	if got := navigatedTo(collect(cmd)); got != string(access.OfferCreate) {
		t.Errorf("expected create navigation, got %q", got)
	}
}

func TestList_InternCannotCreate(t *testing.T) {
	l := NewList(&fakeAPI{}, model.RoleIntern)
	_, cmd := l.Update(key("c"))
	if got := navigatedTo(collect(cmd)); got != "" {
		t.Errorf("expected no navigation, got %q", got)
	}
}

func internSession() model.Session {
	return model.Session{Authenticated: true, User: model.InternUser{Account: model.Account{ID: 3, Email: "i@x.com"}}}
}

func companySession(profileID int) model.Session {
	return model.Session{Authenticated: true, User: model.CompanyUser{
		Account: model.Account{ID: 4, Email: "c@x.com"},
		Profile: model.CompanyProfile{ID: profileID, CompanyName: "Acme"},
	}}
}

func TestDetail_InternApplies(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	d := NewDetail(api, 1, internSession())
	run(d, d.Init())

	if !strings.Contains(d.View(), "a apply") {
		t.Error("expected apply action for intern on open offer")
	}
	_, cmd := d.Update(key("a"))
	msgs := collect(cmd)
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	req, ok := msgs[0].(ApplyRequestedMsg)
	if !ok || req.Offer.ID != 1 {
		t.Errorf("expected ApplyRequestedMsg for offer 1, got %#v", msgs[0])
	}
}

func TestDetail_NoApplyWhenFull(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	d := NewDetail(api, 2, internSession())
	run(d, d.Init())

	_, cmd := d.Update(key("a"))
	if cmd != nil {
		t.Error("expected no apply on a full offer")
	}
}

func TestDetail_OwnerActions(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}

	owner := NewDetail(api, 1, companySession(7))
	run(owner, owner.Init())
	_, cmd := owner.Update(key("e"))
	if got := navigatedTo(collect(cmd)); got != access.OfferEditPath(1) {
		t.Errorf("expected edit navigation, got %q", got)
	}
	_, cmd = owner.Update(key("c"))
	if got := navigatedTo(collect(cmd)); got != access.OfferApplicationsPath(1) {
		t.Errorf("expected applications navigation, got %q", got)
	}

	other := NewDetail(api, 1, companySession(8))
	run(other, other.Init())
	if _, cmd := other.Update(key("e")); cmd != nil {
		t.Error("expected another company to have no edit action")
	}
}

func TestDetail_DeleteNeedsConfirmation(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	d := NewDetail(api, 1, companySession(7))
	run(d, d.Init())

	d.Update(key("d"))
	if !d.Confirming() {
		t.Fatal("expected confirmation prompt")
	}
	d.Update(key("n"))
	if d.Confirming() || len(api.deleted) != 0 {
		t.Fatal("expected cancel without deleting")
	}

	d.Update(key("d"))
	_, cmd := d.Update(key("y"))
	_, cmd = d.Update(cmd())
	if len(api.deleted) != 1 || api.deleted[0] != 1 {
		t.Errorf("expected offer 1 deleted, got %v", api.deleted)
	}
	if got := navigatedTo(collect(cmd)); got != string(access.Offers) {
		t.Errorf("expected navigation to offers, got %q", got)
	}
}

func TestDetail_LoadError(t *testing.T) {
	d := NewDetail(&fakeAPI{getErr: errors.New("backend down")}, 1, internSession())
	run(d, d.Init())
	if !strings.Contains(d.View(), "backend down") {
		t.Errorf("expected error in view, got %q", d.View())
	}
}

func TestEditor_CreateSaves(t *testing.T) {
	api := &fakeAPI{}
	e := NewEditor(api, 0, false)

	in := model.OfferInput{Title: "New", Slots: 1}
	_, cmd := e.Update(forms.OfferMsg{Input: in})
	_, cmd = e.Update(cmd())

	if len(api.created) != 1 || api.created[0].Title != "New" {
		t.Fatalf("expected offer created, got %+v", api.created)
	}
	if got := navigatedTo(collect(cmd)); got != access.OfferPath(99) {
		t.Errorf("expected navigation to new offer, got %q", got)
	}
}

func TestEditor_LoadsExistingOffer(t *testing.T) {
	api := &fakeAPI{offers: sampleOffers()}
	e := NewEditor(api, 1, false)
	if !strings.Contains(e.View(), "Loading") {
		t.Error("expected loading state before the offer arrives")
	}
	run(e, e.Init())
	if strings.Contains(e.View(), "Loading offer") {
		t.Error("expected form after load")
	}

	_, cmd := e.Update(forms.OfferMsg{ID: 1, Input: model.OfferInput{Title: "Renamed"}})
	e.Update(cmd())
	if api.updated[1].Title != "Renamed" {
		t.Errorf("expected update of offer 1, got %+v", api.updated)
	}
}

func TestEditor_SaveErrorStaysOnForm(t *testing.T) {
	api := &fakeAPI{saveErr: errors.New("titre: required")}
	e := NewEditor(api, 0, false)

	_, cmd := e.Update(forms.OfferMsg{Input: model.OfferInput{}})
	_, cmd = e.Update(cmd())
	if got := navigatedTo(collect(cmd)); got != "" {
		t.Errorf("expected no navigation on error, got %q", got)
	}
	if !strings.Contains(e.View(), "titre: required") {
		t.Error("expected save error in view")
	}
}

func TestEditor_CancelGoesBack(t *testing.T) {
	e := NewEditor(&fakeAPI{}, 0, false)
	_, cmd := e.Update(forms.CancelledMsg{})
	if _, ok := cmd().(nav.BackMsg); !ok {
		t.Error("expected BackMsg on cancel")
	}
}
