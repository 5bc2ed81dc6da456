package cmd

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/markalston/placement-cli/internal/model"
)

func validOfferInput() model.OfferInput {
	return model.OfferInput{
		Title: "Data intern", Type: model.TypeInitiation, Domain: "Data", Description: "Dashboards",
		Duration: "3 mois", StartDate: time.Now().AddDate(0, 2, 0).Format(model.DateLayout),
		City: "Paris", Slots: 1, Active: true,
	}
}

func TestOffersList_Anonymous(t *testing.T) {
	e := newCLIEnv(t)

	code, out := e.run(t, runOffersList)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	if !strings.Contains(out, "TITLE") || !strings.Contains(out, "Go dev") || !strings.Contains(out, "Acme") {
		t.Errorf("expected offer table, got %q", out)
	}
}

func TestOffersList_SearchNoMatch(t *testing.T) {
	e := newCLIEnv(t)
	offerSearch = "cobol"

	code, out := e.run(t, runOffersList)
	if code != 0 || !strings.Contains(out, "No offers found.") {
		t.Errorf("expected empty result, got %d %q", code, out)
	}
}

func TestOffersList_JSON(t *testing.T) {
	e := newCLIEnv(t)
	jsonOutput = true

	code, out := e.run(t, runOffersList)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	var page model.Page[model.Offer]
	if err := json.Unmarshal([]byte(out), &page); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if page.Count != 1 || page.Results[0].ID != e.offer {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestOffersShow(t *testing.T) {
	e := newCLIEnv(t)
	offerArgs = []string{strconv.Itoa(e.offer)}

	code, out := e.run(t, runOffersShow)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", code, out)
	}
	for _, want := range []string{"Go dev (#", "Company:   Acme", "Places:    0/2 taken", "APIs"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestOffersShow_NotFound(t *testing.T) {
	e := newCLIEnv(t)
	offerArgs = []string{"9999"}

	if code, _ := e.run(t, runOffersShow); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestOffersShow_InvalidID(t *testing.T) {
	e := newCLIEnv(t)
	offerArgs = []string{"abc"}

	code, out := e.run(t, runOffersShow)
	if code != 2 || !strings.Contains(out, `invalid id "abc"`) {
		t.Errorf("expected invalid id, got %d %q", code, out)
	}
}

func TestOffersCreate(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")
	offerInput = validOfferInput()

	code, out := e.run(t, runOffersCreate)
	if code != 0 || !strings.Contains(out, "Created offer #") || !strings.Contains(out, "Data intern") {
		t.Fatalf("expected creation, got %d %q", code, out)
	}

	code, out = e.run(t, runOffersMine)
	if code != 0 || !strings.Contains(out, "Data intern") || !strings.Contains(out, "Go dev") {
		t.Errorf("expected both offers in mine, got %d %q", code, out)
	}
}

func TestOffersCreate_Invalid(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")
	offerInput = validOfferInput()
	offerInput.Slots = 0

	if code, out := e.run(t, runOffersCreate); code != 1 {
		t.Errorf("expected exit code 1, got %d: %s", code, out)
	}
}

func TestOffersCreate_InternRefused(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "lina@x.com")
	offerInput = validOfferInput()

	if code, _ := e.run(t, runOffersCreate); code != 1 {
		t.Errorf("expected exit code 1, got %d", code)
	}
}

func TestOffersUpdate_OnlyChangedFields(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")
	offerArgs = []string{strconv.Itoa(e.offer)}
	offerInput = model.OfferInput{Title: "Senior Go dev", City: "ignored"}
	offerChanged = func(name string) bool { return name == "title" }

	code, out := e.run(t, runOffersUpdate)
	if code != 0 || !strings.Contains(out, "Updated offer") {
		t.Fatalf("expected update, got %d %q", code, out)
	}

	offerChanged = nil
	_, out = e.run(t, runOffersShow)
	if !strings.Contains(out, "Senior Go dev") || !strings.Contains(out, "City:      Lyon") {
		t.Errorf("expected title change only, got %q", out)
	}
}

func TestOffersDelete(t *testing.T) {
	e := newCLIEnv(t)
	e.login(t, "co@x.com")
	offerArgs = []string{strconv.Itoa(e.offer)}

	code, out := e.run(t, runOffersDelete)
	if code != 0 || !strings.Contains(out, "Deleted offer") {
		t.Fatalf("expected deletion, got %d %q", code, out)
	}
	if code, _ := e.run(t, runOffersShow); code != 1 {
		t.Errorf("expected deleted offer to be gone, got exit code %d", code)
	}
}

func TestMergeOffer(t *testing.T) {
	cur := model.OfferInput{Title: "A", City: "Lyon", Slots: 2, Active: true}
	in := model.OfferInput{Title: "B", City: "Paris", Slots: 5, Active: false}

	got := mergeOffer(cur, in, func(name string) bool { return name == "slots" || name == "active" })
	if got.Title != "A" || got.City != "Lyon" || got.Slots != 5 || got.Active {
		t.Errorf("unexpected merge %+v", got)
	}
	if got := mergeOffer(cur, in, nil); got != cur {
		t.Errorf("expected nil changed to keep current, got %+v", got)
	}
}

func TestParseID(t *testing.T) {
	var sb strings.Builder
	if id, ok := parseID(&sb, "42"); !ok || id != 42 {
		t.Errorf("expected 42, got %d", id)
	}
	for _, bad := range []string{"0", "-1", "x"} {
		if _, ok := parseID(&sb, bad); ok {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}
