package app_test

import (
	"context"
	"errors"
	"testing"

	"safari_quote/internal/app"
	"safari_quote/internal/domain"
)

func TestCatalogHolder_Reload(t *testing.T) {
	repo := &memRepo{
		tariffs: []domain.TariffRecord{{AccommodationName: "Serena", Tier: 1, Location: "Serengeti"}},
		fees:    []domain.ServiceFee{{Code: "PARK1", Fee: dec("70")}},
		rules:   []domain.FeeRule{{Origin: "Arusha", Destination: "Serengeti", Formula: "PARK1"}},
	}
	h := app.NewCatalogHolder(repo)

	empty := h.Current()
	if empty == nil || len(empty.Tariffs) != 0 {
		t.Fatalf("holder should start with an empty snapshot, got %+v", empty)
	}

	c, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if h.Current() != c || len(c.Tariffs) != 1 || !c.Fees["PARK1"].Equal(dec("70")) {
		t.Fatalf("unexpected snapshot: %+v", c)
	}
	if _, ok := c.Rule("Arusha", "Serengeti"); !ok {
		t.Fatalf("rule not indexed")
	}
	if c.Version == empty.Version {
		t.Fatalf("version should change on reload")
	}
}

func TestCatalogHolder_FailedReloadKeepsSnapshot(t *testing.T) {
	repo := &memRepo{tariffs: []domain.TariffRecord{{AccommodationName: "Serena"}}}
	h := app.NewCatalogHolder(repo)
	before, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	repo.listErr = errors.New("db down")
	if _, err := h.Reload(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if h.Current() != before {
		t.Fatalf("failed reload must not replace the snapshot")
	}
}
