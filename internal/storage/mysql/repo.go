package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"safari_quote/internal/domain"
)

// tariffBatch bounds the rows per multi-row INSERT.
const tariffBatch = 500

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// ReplaceTariffs swaps the whole tariff table in one transaction.
func (r *Repo) ReplaceTariffs(ctx context.Context, ts []domain.TariffRecord) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteTariffsSQL); err != nil {
			return fmt.Errorf("clear tariffs: %w", err)
		}
		for start := 0; start < len(ts); start += tariffBatch {
			end := min(start+tariffBatch, len(ts))
			values := make([]string, 0, end-start)
			args := make([]any, 0, (end-start)*13) // 13 params per row
			for i, t := range ts[start:end] {
				values = append(values, tariffRowPlaceholders)
				args = append(args,
					start+i,
					t.AccommodationName,
					t.Tier,
					t.Location,
					t.Window.StartMonth, t.Window.StartDay,
					t.Window.EndMonth, t.Window.EndDay,
					t.Window.Year,
					t.Rates.Single, t.Rates.Double, t.Rates.Triple,
					valStr(t.Description),
				)
			}
			if _, err := tx.ExecContext(ctx, insertTariffsPrefix+strings.Join(values, ","), args...); err != nil {
				return fmt.Errorf("insert tariffs: %w", err)
			}
		}
		return nil
	})
}

func (r *Repo) UpsertServiceFees(ctx context.Context, fs []domain.ServiceFee) error {
	if len(fs) == 0 {
		return nil
	}
	return r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertServiceFeeSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, f := range fs {
			if _, err := stmt.ExecContext(ctx, f.Code, valStr(f.Description), f.Fee); err != nil {
				return fmt.Errorf("upsert service fee %s: %w", f.Code, err)
			}
		}
		return nil
	})
}

func (r *Repo) ReplaceFeeRules(ctx context.Context, rs []domain.FeeRule) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteFeeRulesSQL); err != nil {
			return fmt.Errorf("clear fee rules: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, insertFeeRuleSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, fr := range rs {
			if _, err := stmt.ExecContext(ctx, fr.Origin, fr.Destination, fr.Formula,
				valStr(fr.Description), valStr(fr.LodgingLocation)); err != nil {
				return fmt.Errorf("insert fee rule %s -> %s: %w", fr.Origin, fr.Destination, err)
			}
		}
		return nil
	})
}

func (r *Repo) LogReject(ctx context.Context, source string, line int, reason string) error {
	_, err := r.db.ExecContext(ctx, insertRejectSQL, source, line, reason)
	return err
}

func (r *Repo) ListTariffs(ctx context.Context) ([]domain.TariffRecord, error) {
	rows, err := r.db.QueryContext(ctx, listTariffsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.TariffRecord
	for rows.Next() {
		var t domain.TariffRecord
		w := &t.Window
		if err := rows.Scan(
			&t.AccommodationName, &t.Tier, &t.Location,
			&w.StartMonth, &w.StartDay, &w.EndMonth, &w.EndDay, &w.Year,
			&t.Rates.Single, &t.Rates.Double, &t.Rates.Triple,
			&t.Description,
		); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) ListServiceFees(ctx context.Context) (domain.ServiceFeeCatalog, error) {
	rows, err := r.db.QueryContext(ctx, listServiceFeesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := domain.ServiceFeeCatalog{}
	for rows.Next() {
		var f domain.ServiceFee
		if err := rows.Scan(&f.Code, &f.Fee); err != nil {
			return nil, err
		}
		out[f.Code] = f.Fee
	}
	return out, rows.Err()
}

func (r *Repo) ListFeeRules(ctx context.Context) ([]domain.FeeRule, error) {
	rows, err := r.db.QueryContext(ctx, listFeeRulesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.FeeRule
	for rows.Next() {
		var fr domain.FeeRule
		if err := rows.Scan(&fr.Origin, &fr.Destination, &fr.Formula, &fr.Description, &fr.LodgingLocation); err != nil {
			return nil, err
		}
		out = append(out, fr)
	}
	return out, rows.Err()
}
