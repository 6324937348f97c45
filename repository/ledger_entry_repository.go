package repository

import (
	"context"
	"fmt"

	"crowdfund/database"
	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"
)

// LedgerEntryRepository implements the LedgerEntryRepository interface
type LedgerEntryRepository struct {
	q Queryable
}

// NewLedgerEntryRepository creates a new ledger entry repository
func NewLedgerEntryRepository(db *database.DB) *LedgerEntryRepository {
	return &LedgerEntryRepository{q: db.Pool}
}

func newLedgerEntryRepositoryWithTx(tx Queryable) interfaces.LedgerEntryRepository {
	return &LedgerEntryRepository{q: tx}
}

// Record creates a new ledger entry
func (r *LedgerEntryRepository) Record(ctx context.Context, entry *entities.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (campaign_id, address, entry_type, amount, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		entry.CampaignID,
		entry.Address,
		entry.EntryType,
		entry.Amount,
		entry.BalanceBefore,
		entry.BalanceAfter,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}

	return nil
}

// GetByCampaign returns the most recent entries of a campaign
func (r *LedgerEntryRepository) GetByCampaign(ctx context.Context, campaignID int64, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, campaign_id, address, entry_type, amount, balance_before, balance_after, created_at
		FROM ledger_entries
		WHERE campaign_id = $1
		ORDER BY id DESC
		LIMIT $2
	`
	return r.queryEntries(ctx, query, campaignID, limit)
}

// GetByAccount returns the most recent entries of one account
func (r *LedgerEntryRepository) GetByAccount(ctx context.Context, campaignID int64, address string, limit int) ([]*entities.LedgerEntry, error) {
	query := `
		SELECT id, campaign_id, address, entry_type, amount, balance_before, balance_after, created_at
		FROM ledger_entries
		WHERE campaign_id = $1 AND address = $2
		ORDER BY id DESC
		LIMIT $3
	`
	return r.queryEntries(ctx, query, campaignID, address, limit)
}

func (r *LedgerEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]*entities.LedgerEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.LedgerEntry
	for rows.Next() {
		var e entities.LedgerEntry
		err := rows.Scan(
			&e.ID,
			&e.CampaignID,
			&e.Address,
			&e.EntryType,
			&e.Amount,
			&e.BalanceBefore,
			&e.BalanceAfter,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}

	return entries, nil
}
