package repository

import (
	"context"
	"fmt"

	"crowdfund/database"
	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q Queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepositoryWithTx(tx Queryable) interfaces.AccountRepository {
	return &AccountRepository{q: tx}
}

const accountColumns = `
	id, campaign_id, address, share_balance, withdrawn, contributed,
	created_at, updated_at`

// GetByAddress retrieves an account within a campaign, nil if absent
func (r *AccountRepository) GetByAddress(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error) {
	query := `SELECT` + accountColumns + `
		FROM campaign_accounts
		WHERE campaign_id = $1 AND address = $2
	`

	var a entities.CampaignAccount
	err := r.q.QueryRow(ctx, query, campaignID, address).Scan(
		&a.ID,
		&a.CampaignID,
		&a.Address,
		&a.ShareBalance,
		&a.Withdrawn,
		&a.Contributed,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s in campaign %d: %w", address, campaignID, err)
	}

	return &a, nil
}

// GetOrCreate retrieves an account or creates it with zero balances
func (r *AccountRepository) GetOrCreate(ctx context.Context, campaignID int64, address string) (*entities.CampaignAccount, error) {
	query := `
		INSERT INTO campaign_accounts (campaign_id, address)
		VALUES ($1, $2)
		ON CONFLICT (campaign_id, address) DO UPDATE SET updated_at = NOW()
		RETURNING` + accountColumns + `
	`

	var a entities.CampaignAccount
	err := r.q.QueryRow(ctx, query, campaignID, address).Scan(
		&a.ID,
		&a.CampaignID,
		&a.Address,
		&a.ShareBalance,
		&a.Withdrawn,
		&a.Contributed,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account %s in campaign %d: %w", address, campaignID, err)
	}

	return &a, nil
}

// Update persists the account's balances
func (r *AccountRepository) Update(ctx context.Context, account *entities.CampaignAccount) error {
	query := `
		UPDATE campaign_accounts
		SET share_balance = $2,
			withdrawn = $3,
			contributed = $4,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		account.ID,
		account.ShareBalance,
		account.Withdrawn,
		account.Contributed,
	)
	if err != nil {
		return fmt.Errorf("failed to update account %d: %w", account.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("account %d not found", account.ID)
	}

	return nil
}

// ListByCampaign returns all accounts of a campaign
func (r *AccountRepository) ListByCampaign(ctx context.Context, campaignID int64) ([]*entities.CampaignAccount, error) {
	query := `SELECT` + accountColumns + `
		FROM campaign_accounts
		WHERE campaign_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts for campaign %d: %w", campaignID, err)
	}
	defer rows.Close()

	var accounts []*entities.CampaignAccount
	for rows.Next() {
		var a entities.CampaignAccount
		err := rows.Scan(
			&a.ID,
			&a.CampaignID,
			&a.Address,
			&a.ShareBalance,
			&a.Withdrawn,
			&a.Contributed,
			&a.CreatedAt,
			&a.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// SumShareBalances returns the sum of all share balances of a campaign
func (r *AccountRepository) SumShareBalances(ctx context.Context, campaignID int64) (int64, error) {
	query := `
		SELECT COALESCE(SUM(share_balance), 0)
		FROM campaign_accounts
		WHERE campaign_id = $1
	`

	var sum int64
	if err := r.q.QueryRow(ctx, query, campaignID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("failed to sum share balances for campaign %d: %w", campaignID, err)
	}

	return sum, nil
}
