package services

import (
	"context"
	"fmt"

	"crowdfund/domain/entities"
	"crowdfund/domain/events"
	"crowdfund/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

type campaignService struct {
	campaignRepo   interfaces.CampaignRepository
	accountRepo    interfaces.AccountRepository
	eventPublisher interfaces.EventPublisher
	clock          interfaces.Clock
}

// NewCampaignService creates a new campaign service
func NewCampaignService(
	campaignRepo interfaces.CampaignRepository,
	accountRepo interfaces.AccountRepository,
	eventPublisher interfaces.EventPublisher,
	clock interfaces.Clock,
) interfaces.CampaignService {
	return &campaignService{
		campaignRepo:   campaignRepo,
		accountRepo:    accountRepo,
		eventPublisher: eventPublisher,
		clock:          clock,
	}
}

// CreateCampaign validates parameters and persists a new funding-state campaign
func (s *campaignService) CreateCampaign(ctx context.Context, params entities.CampaignParams) (*entities.Campaign, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	// A window that already fully elapsed can never admit a contribution.
	now := s.clock.Now()
	if !now.Before(params.EndsAt) {
		return nil, fmt.Errorf("%w: funding window ends in the past", entities.ErrInvalidConfig)
	}

	campaign := entities.NewCampaign(params)
	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	if campaign.HasFeeCollector() {
		event := events.FeeScheduleAppliedEvent{
			CampaignID:  campaign.ID,
			Collector:   *campaign.FeeCollector,
			UpfrontBips: campaign.UpfrontFeeBips,
			PayoutBips:  campaign.PayoutFeeBips,
		}
		if err := s.eventPublisher.Publish(event); err != nil {
			log.WithError(err).Error("Failed to publish fee schedule event")
		}
	}

	log.WithFields(log.Fields{
		"campaignID": campaign.ID,
		"recipient":  campaign.Recipient,
		"goalMin":    campaign.GoalMin,
		"goalMax":    campaign.GoalMax,
		"endsAt":     campaign.EndsAt,
	}).Info("Campaign created")

	return campaign, nil
}

// GetCampaign retrieves a campaign by ID
func (s *campaignService) GetCampaign(ctx context.Context, id int64) (*entities.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign %d: %w", id, err)
	}
	if campaign == nil {
		return nil, fmt.Errorf("campaign %d not found", id)
	}
	return campaign, nil
}

// HasContribution reports whether the address ever had an accepted
// contribution to the campaign. Transfers and refunds do not erase it.
func (s *campaignService) HasContribution(ctx context.Context, campaignID int64, address string) (bool, error) {
	account, err := s.accountRepo.GetByAddress(ctx, campaignID, address)
	if err != nil {
		return false, fmt.Errorf("failed to get account %s in campaign %d: %w", address, campaignID, err)
	}
	if account == nil {
		return false, nil
	}
	return account.HasContributed(), nil
}
