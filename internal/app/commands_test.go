package app_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"safari_quote/internal/app"
	"safari_quote/internal/domain"
)

// ---- fakes ----

type memSource map[string]string

func (m memSource) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s, ok := m[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(strings.NewReader(s)), nil
}

type reject struct {
	source string
	line   int
}

type memRepo struct {
	mu      sync.Mutex
	tariffs []domain.TariffRecord
	fees    []domain.ServiceFee
	rules   []domain.FeeRule
	rejects []reject
	listErr error
}

func (r *memRepo) ReplaceTariffs(ctx context.Context, ts []domain.TariffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tariffs = ts
	return nil
}
func (r *memRepo) UpsertServiceFees(ctx context.Context, fs []domain.ServiceFee) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fees = append(r.fees, fs...)
	return nil
}
func (r *memRepo) ReplaceFeeRules(ctx context.Context, rs []domain.FeeRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = rs
	return nil
}
func (r *memRepo) LogReject(ctx context.Context, source string, line int, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejects = append(r.rejects, reject{source: source, line: line})
	return nil
}
func (r *memRepo) ListTariffs(ctx context.Context) ([]domain.TariffRecord, error) {
	return r.tariffs, r.listErr
}
func (r *memRepo) ListServiceFees(ctx context.Context) (domain.ServiceFeeCatalog, error) {
	out := domain.ServiceFeeCatalog{}
	for _, f := range r.fees {
		out[f.Code] = f.Fee
	}
	return out, nil
}
func (r *memRepo) ListFeeRules(ctx context.Context) ([]domain.FeeRule, error) { return r.rules, nil }

type recordingNotifier struct{ events []domain.CatalogRefreshed }

func (n *recordingNotifier) NotifyRefreshed(ctx context.Context, ev domain.CatalogRefreshed) error {
	n.events = append(n.events, ev)
	return nil
}

var docs = memSource{
	"tariffs.csv": "Hotel Name,Class,Location,Date Range,Description,Single Rate,Double Rate,Triple Rate\n" +
		"Serena,1,Serengeti,Whole Year,,150,100,240\n" +
		"Broken,none,Serengeti,Whole Year,,1,1,1\n",
	"fees.csv":   "Service Code,Service Description,Fee\nPARK1,Entry,70\n",
	"rules.json": `[{"from":"Arusha","to":"Serengeti","formula":"PARK1*adults","description":"Park"}]`,
}

// ---- tests ----

func TestIngestion_Run(t *testing.T) {
	repo := &memRepo{}
	n := &recordingNotifier{}
	ing := app.NewIngestionService(docs, repo, n, 2, 2025)

	ev, err := ing.Run(context.Background(), app.Sources{Tariffs: "tariffs.csv", ServiceFees: "fees.csv", FeeRules: "rules.json"})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if ev.Tariffs != 1 || ev.ServiceFees != 1 || ev.FeeRules != 1 || ev.Rejected != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if len(repo.tariffs) != 1 || repo.tariffs[0].Window.Year != 2025 {
		t.Fatalf("unexpected tariffs: %+v", repo.tariffs)
	}
	if len(repo.rejects) != 1 || repo.rejects[0] != (reject{source: "tariffs", line: 3}) {
		t.Fatalf("unexpected rejects: %+v", repo.rejects)
	}
	if len(n.events) != 1 || n.events[0].At.IsZero() {
		t.Fatalf("expected one refresh event, got %+v", n.events)
	}
}

func TestIngestion_MissingSourceSkipsNotify(t *testing.T) {
	repo := &memRepo{}
	n := &recordingNotifier{}
	ing := app.NewIngestionService(docs, repo, n, 1, 2025)

	_, err := ing.Run(context.Background(), app.Sources{Tariffs: "tariffs.csv", FeeRules: "missing.json"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if len(n.events) != 0 {
		t.Fatalf("no event expected on failure")
	}
	if len(repo.tariffs) != 1 {
		t.Fatalf("readable documents are still stored")
	}
}

func TestIngestion_NilNotifier(t *testing.T) {
	ing := app.NewIngestionService(docs, &memRepo{}, nil, 0, 2025)
	if _, err := ing.Run(context.Background(), app.Sources{ServiceFees: "fees.csv"}); err != nil {
		t.Fatalf("err: %v", err)
	}
}
