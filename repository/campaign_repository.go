package repository

import (
	"context"
	"fmt"
	"time"

	"crowdfund/database"
	"crowdfund/domain/entities"
	"crowdfund/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

// CampaignRepository implements the CampaignRepository interface
type CampaignRepository struct {
	q Queryable
}

// NewCampaignRepository creates a new campaign repository
func NewCampaignRepository(db *database.DB) *CampaignRepository {
	return &CampaignRepository{q: db.Pool}
}

func newCampaignRepositoryWithTx(tx Queryable) interfaces.CampaignRepository {
	return &CampaignRepository{q: tx}
}

const campaignColumns = `
	id, recipient, fee_collector, upfront_fee_bips, payout_fee_bips,
	goal_min, goal_max, contribution_min, contribution_max,
	starts_at, ends_at, denomination_kind, denomination_token,
	state, processed, deposit_total, yield_total, collector_accrued,
	created_at, updated_at`

// Create persists a new campaign and assigns its ID
func (r *CampaignRepository) Create(ctx context.Context, campaign *entities.Campaign) error {
	query := `
		INSERT INTO campaigns (
			recipient, fee_collector, upfront_fee_bips, payout_fee_bips,
			goal_min, goal_max, contribution_min, contribution_max,
			starts_at, ends_at, denomination_kind, denomination_token,
			state, processed, deposit_total, yield_total, collector_accrued
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, updated_at
	`

	var token *string
	if campaign.Denomination.Token != "" {
		token = &campaign.Denomination.Token
	}

	err := r.q.QueryRow(ctx, query,
		campaign.Recipient,
		campaign.FeeCollector,
		campaign.UpfrontFeeBips,
		campaign.PayoutFeeBips,
		campaign.GoalMin,
		campaign.GoalMax,
		campaign.ContributionMin,
		campaign.ContributionMax,
		campaign.StartsAt,
		campaign.EndsAt,
		campaign.Denomination.Kind,
		token,
		campaign.State,
		campaign.Processed,
		campaign.DepositTotal,
		campaign.YieldTotal,
		campaign.CollectorAccrued,
	).Scan(&campaign.ID, &campaign.CreatedAt, &campaign.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	return nil
}

// GetByID retrieves a campaign by ID, nil if absent
func (r *CampaignRepository) GetByID(ctx context.Context, id int64) (*entities.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1`
	return r.scanCampaign(r.q.QueryRow(ctx, query, id), id)
}

// GetByIDForUpdate retrieves a campaign and locks its row for the duration of
// the enclosing transaction
func (r *CampaignRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1 FOR UPDATE`
	return r.scanCampaign(r.q.QueryRow(ctx, query, id), id)
}

func (r *CampaignRepository) scanCampaign(row pgx.Row, id int64) (*entities.Campaign, error) {
	var c entities.Campaign
	var token *string
	err := row.Scan(
		&c.ID,
		&c.Recipient,
		&c.FeeCollector,
		&c.UpfrontFeeBips,
		&c.PayoutFeeBips,
		&c.GoalMin,
		&c.GoalMax,
		&c.ContributionMin,
		&c.ContributionMax,
		&c.StartsAt,
		&c.EndsAt,
		&c.Denomination.Kind,
		&token,
		&c.State,
		&c.Processed,
		&c.DepositTotal,
		&c.YieldTotal,
		&c.CollectorAccrued,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", id, err)
	}
	if token != nil {
		c.Denomination.Token = *token
	}
	return &c, nil
}

// Update persists the campaign's mutable fields
func (r *CampaignRepository) Update(ctx context.Context, campaign *entities.Campaign) error {
	query := `
		UPDATE campaigns
		SET state = $2,
			processed = $3,
			deposit_total = $4,
			yield_total = $5,
			collector_accrued = $6,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		campaign.ID,
		campaign.State,
		campaign.Processed,
		campaign.DepositTotal,
		campaign.YieldTotal,
		campaign.CollectorAccrued,
	)
	if err != nil {
		return fmt.Errorf("failed to update campaign %d: %w", campaign.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("campaign %d not found", campaign.ID)
	}

	return nil
}

// GetUnresolvedPastEnd returns funding-state campaigns whose window closed at
// or before now
func (r *CampaignRepository) GetUnresolvedPastEnd(ctx context.Context, now time.Time) ([]*entities.Campaign, error) {
	query := `SELECT` + campaignColumns + `
		FROM campaigns
		WHERE state = $1 AND ends_at <= $2
		ORDER BY ends_at
	`

	rows, err := r.q.Query(ctx, query, entities.CampaignStateFunding, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query unresolved campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []*entities.Campaign
	for rows.Next() {
		var c entities.Campaign
		var token *string
		err := rows.Scan(
			&c.ID,
			&c.Recipient,
			&c.FeeCollector,
			&c.UpfrontFeeBips,
			&c.PayoutFeeBips,
			&c.GoalMin,
			&c.GoalMax,
			&c.ContributionMin,
			&c.ContributionMax,
			&c.StartsAt,
			&c.EndsAt,
			&c.Denomination.Kind,
			&token,
			&c.State,
			&c.Processed,
			&c.DepositTotal,
			&c.YieldTotal,
			&c.CollectorAccrued,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		if token != nil {
			c.Denomination.Token = *token
		}
		campaigns = append(campaigns, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate campaigns: %w", err)
	}

	return campaigns, nil
}
