package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"crowdfund/application"
	"crowdfund/domain/entities"

	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const commandQueueGroup = "crowdfund-commands"

// CommandSubscriber exposes campaign operations over NATS request/reply.
// Each command subject carries a JSON request and replies with a JSON
// response; errors travel in the response body rather than as NATS errors.
type CommandSubscriber struct {
	natsClient *NATSClient
	app        *application.CampaignApp
	subs       []*nats.Subscription
	mu         sync.Mutex
}

// NewCommandSubscriber creates a new command subscriber
func NewCommandSubscriber(natsClient *NATSClient, app *application.CampaignApp) *CommandSubscriber {
	return &CommandSubscriber{
		natsClient: natsClient,
		app:        app,
	}
}

type createCampaignRequest struct {
	Recipient       string    `json:"recipient"`
	FeeCollector    *string   `json:"fee_collector,omitempty"`
	UpfrontFeeBips  int32     `json:"upfront_fee_bips"`
	PayoutFeeBips   int32     `json:"payout_fee_bips"`
	GoalMin         int64     `json:"goal_min"`
	GoalMax         int64     `json:"goal_max"`
	ContributionMin int64     `json:"contribution_min"`
	ContributionMax int64     `json:"contribution_max"`
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	Denomination    string    `json:"denomination"`
	Token           string    `json:"token,omitempty"`
}

type accountRequest struct {
	CampaignID int64  `json:"campaign_id"`
	Address    string `json:"address"`
	Amount     int64  `json:"amount,omitempty"`
}

type transferRequestBody struct {
	CampaignID int64  `json:"campaign_id"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     int64  `json:"amount"`
}

type campaignRequest struct {
	CampaignID int64 `json:"campaign_id"`
}

type commandResponse struct {
	CampaignID int64  `json:"campaign_id,omitempty"`
	State      string `json:"state,omitempty"`
	Amount     int64  `json:"amount,omitempty"`
	Min        int64  `json:"min,omitempty"`
	Max        int64  `json:"max,omitempty"`
	Has        bool   `json:"has,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Start subscribes to all command subjects. Call Stop to drain.
func (cs *CommandSubscriber) Start(ctx context.Context) error {
	handlers := map[string]func(ctx context.Context, data []byte) commandResponse{
		"campaigns.cmd.create":             cs.handleCreate,
		"campaigns.cmd.contribute":         cs.handleContribute,
		"campaigns.cmd.contribution_range": cs.handleContributionRange,
		"campaigns.cmd.settle":             cs.handleSettle,
		"campaigns.cmd.release_failed":     cs.handleReleaseFailed,
		"campaigns.cmd.deposit_yield":      cs.handleDepositYield,
		"campaigns.cmd.yield_balance":      cs.handleYieldBalance,
		"campaigns.cmd.withdraw":           cs.handleWithdraw,
		"campaigns.cmd.transfer":           cs.handleTransfer,
		"campaigns.cmd.has_contribution":   cs.handleHasContribution,
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()

	for subject, handler := range handlers {
		handler := handler
		sub, err := cs.natsClient.QueueSubscribe(subject, commandQueueGroup, func(msg *nats.Msg) {
			resp := handler(ctx, msg.Data)
			cs.respond(msg, resp)
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe to command subject: %w", err)
		}
		cs.subs = append(cs.subs, sub)
	}

	log.WithField("subjects", len(handlers)).Info("Command subscriber started")
	return nil
}

// Stop unsubscribes from all command subjects
func (cs *CommandSubscriber) Stop() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, sub := range cs.subs {
		if err := sub.Unsubscribe(); err != nil {
			log.WithError(err).Error("Failed to unsubscribe command subject")
		}
	}
	cs.subs = nil
	log.Info("Command subscriber stopped")
}

func (cs *CommandSubscriber) respond(msg *nats.Msg, resp commandResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		log.WithError(err).Error("Failed to marshal command response")
		return
	}
	if err := msg.Respond(data); err != nil {
		log.WithFields(log.Fields{
			"subject": msg.Subject,
			"error":   err,
		}).Error("Failed to respond to command")
	}
}

func (cs *CommandSubscriber) handleCreate(ctx context.Context, data []byte) commandResponse {
	var req createCampaignRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}

	denom := entities.NativeDenomination()
	if req.Denomination == string(entities.DenominationToken) {
		denom = entities.TokenDenomination(req.Token)
	}

	campaign, err := cs.app.CreateCampaign(ctx, entities.CampaignParams{
		Recipient:       req.Recipient,
		FeeCollector:    req.FeeCollector,
		UpfrontFeeBips:  req.UpfrontFeeBips,
		PayoutFeeBips:   req.PayoutFeeBips,
		GoalMin:         req.GoalMin,
		GoalMax:         req.GoalMax,
		ContributionMin: req.ContributionMin,
		ContributionMax: req.ContributionMax,
		StartsAt:        req.StartsAt,
		EndsAt:          req.EndsAt,
		Denomination:    denom,
	})
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: campaign.ID, State: string(campaign.State)}
}

func (cs *CommandSubscriber) handleContribute(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	account, err := cs.app.Contribute(ctx, req.CampaignID, req.Address, req.Amount)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Amount: account.ShareBalance}
}

func (cs *CommandSubscriber) handleContributionRange(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	min, max, err := cs.app.ContributionRange(ctx, req.CampaignID, req.Address)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Min: min, Max: max}
}

func (cs *CommandSubscriber) handleSettle(ctx context.Context, data []byte) commandResponse {
	var req campaignRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	campaign, err := cs.app.Settle(ctx, req.CampaignID)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: campaign.ID, State: string(campaign.State)}
}

func (cs *CommandSubscriber) handleReleaseFailed(ctx context.Context, data []byte) commandResponse {
	var req campaignRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	campaign, err := cs.app.ReleaseFailed(ctx, req.CampaignID)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: campaign.ID, State: string(campaign.State)}
}

func (cs *CommandSubscriber) handleDepositYield(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	if err := cs.app.DepositYield(ctx, req.CampaignID, req.Address, req.Amount); err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Amount: req.Amount}
}

func (cs *CommandSubscriber) handleYieldBalance(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	balance, err := cs.app.YieldBalance(ctx, req.CampaignID, req.Address)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Amount: balance}
}

func (cs *CommandSubscriber) handleWithdraw(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	paid, err := cs.app.Withdraw(ctx, req.CampaignID, req.Address)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Amount: paid}
}

func (cs *CommandSubscriber) handleTransfer(ctx context.Context, data []byte) commandResponse {
	var req transferRequestBody
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	if err := cs.app.Transfer(ctx, req.CampaignID, req.From, req.To, req.Amount); err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Amount: req.Amount}
}

func (cs *CommandSubscriber) handleHasContribution(ctx context.Context, data []byte) commandResponse {
	var req accountRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(err)
	}
	has, err := cs.app.HasContribution(ctx, req.CampaignID, req.Address)
	if err != nil {
		return errorResponse(err)
	}
	return commandResponse{CampaignID: req.CampaignID, Has: has}
}

func errorResponse(err error) commandResponse {
	return commandResponse{Error: err.Error()}
}
