package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"safari_quote/internal/domain"
)

// Sources names where each reference document is read from.
type Sources struct {
	Tariffs     string
	ServiceFees string
	FeeRules    string
}

type IngestionService struct {
	src      domain.CatalogSource
	repo     domain.CatalogRepository
	notifier domain.RefreshNotifier
	workers  int64
	year     int
	now      func() time.Time
}

// NewIngestionService wires the loader. notifier may be nil. year is applied
// to free-text seasons that carry no year of their own.
func NewIngestionService(src domain.CatalogSource, r domain.CatalogRepository, n domain.RefreshNotifier, workers, year int) *IngestionService {
	if workers < 1 {
		workers = 1
	}
	return &IngestionService{src: src, repo: r, notifier: n, workers: int64(workers), year: year, now: time.Now}
}

// Run ingests the three documents concurrently. Bad rows are logged through
// the repository and skipped; a document that cannot be read or stored
// fails the run. The refresh event is only sent when every document landed.
func (s *IngestionService) Run(ctx context.Context, srcs Sources) (domain.CatalogRefreshed, error) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		ev   domain.CatalogRefreshed
		errs []error
	)
	sem := semaphore.NewWeighted(s.workers)

	jobs := []struct {
		name string
		ref  string
		run  func(context.Context, io.Reader) (int, []rowError, error)
	}{
		{"tariffs", srcs.Tariffs, s.ingestTariffs},
		{"service_fees", srcs.ServiceFees, s.ingestServiceFees},
		{"fee_rules", srcs.FeeRules, s.ingestFeeRules},
	}
	for _, j := range jobs {
		if j.ref == "" {
			continue
		}
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)

			n, rejected, err := s.ingest(ctx, j.name, j.ref, j.run)
			mu.Lock()
			defer mu.Unlock()
			ev.Rejected += rejected
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
				return
			}
			switch j.name {
			case "tariffs":
				ev.Tariffs = n
			case "service_fees":
				ev.ServiceFees = n
			case "fee_rules":
				ev.FeeRules = n
			}
		}()
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return ev, err
	}
	ev.At = s.now().UTC()
	if s.notifier != nil {
		if err := s.notifier.NotifyRefreshed(ctx, ev); err != nil {
			// Data is stored; consumers pick it up on their next reload.
			log.Warn().Err(err).Msg("refresh notification failed")
		}
	}
	return ev, nil
}

func (s *IngestionService) ingest(ctx context.Context, name, ref string, run func(context.Context, io.Reader) (int, []rowError, error)) (int, int, error) {
	rc, err := s.src.Open(ctx, ref)
	if err != nil {
		return 0, 0, fmt.Errorf("open %s: %w", ref, err)
	}
	defer rc.Close()

	n, rejects, err := run(ctx, rc)
	for _, re := range rejects {
		log.Warn().Str("source", name).Int("line", re.line).Str("reason", re.reason).Msg("row rejected")
		if lerr := s.repo.LogReject(ctx, name, re.line, re.reason); lerr != nil {
			log.Error().Err(lerr).Str("source", name).Msg("log reject failed")
		}
	}
	if err != nil {
		return 0, len(rejects), err
	}
	log.Info().Str("source", name).Str("ref", ref).Int("rows", n).Int("rejected", len(rejects)).Msg("ingest ok")
	return n, len(rejects), nil
}

func (s *IngestionService) ingestTariffs(ctx context.Context, r io.Reader) (int, []rowError, error) {
	recs, rejects, err := mapTariffs(r, s.year)
	if err != nil {
		return 0, rejects, err
	}
	if err := s.repo.ReplaceTariffs(ctx, recs); err != nil {
		return 0, rejects, err
	}
	return len(recs), rejects, nil
}

func (s *IngestionService) ingestServiceFees(ctx context.Context, r io.Reader) (int, []rowError, error) {
	fees, rejects, err := mapServiceFees(r)
	if err != nil {
		return 0, rejects, err
	}
	if err := s.repo.UpsertServiceFees(ctx, fees); err != nil {
		return 0, rejects, err
	}
	return len(fees), rejects, nil
}

func (s *IngestionService) ingestFeeRules(ctx context.Context, r io.Reader) (int, []rowError, error) {
	rules, rejects, err := mapFeeRules(r)
	if err != nil {
		return 0, rejects, err
	}
	if err := s.repo.ReplaceFeeRules(ctx, rules); err != nil {
		return 0, rejects, err
	}
	return len(rules), rejects, nil
}
