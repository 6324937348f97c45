package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crowdfund/domain/entities"

	log "github.com/sirupsen/logrus"
)

// transferRequest is the wire format for treasury transfer calls
type transferRequest struct {
	Denomination string `json:"denomination"`
	Token        string `json:"token,omitempty"`
	Account      string `json:"account"`
	Amount       int64  `json:"amount"`
}

// transferReply is the wire format for treasury transfer replies.
// Received carries the net amount credited after any treasury-side
// transfer fee; it is only meaningful for inbound transfers.
type transferReply struct {
	Received int64  `json:"received"`
	Error    string `json:"error,omitempty"`
}

// TreasuryTransport implements the Transport interface over NATS
// request/reply to the treasury service that holds custody of funds.
type TreasuryTransport struct {
	natsClient    *NATSClient
	subjectPrefix string
	timeout       time.Duration
}

// NewTreasuryTransport creates a new treasury transport
func NewTreasuryTransport(natsClient *NATSClient, subjectPrefix string, timeout time.Duration) *TreasuryTransport {
	return &TreasuryTransport{
		natsClient:    natsClient,
		subjectPrefix: subjectPrefix,
		timeout:       timeout,
	}
}

// TransferIn pulls amount from the holder into the pool and returns the net
// amount received. Token transfers may be shaved by the token's own transfer
// fee, so the treasury reports what actually arrived.
func (t *TreasuryTransport) TransferIn(ctx context.Context, denom entities.Denomination, from string, amount int64) (int64, error) {
	reply, err := t.request(ctx, t.subjectPrefix+".transfer_in", denom, from, amount)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"from":     from,
		"amount":   amount,
		"received": reply.Received,
	}).Debug("Treasury transfer in completed")

	return reply.Received, nil
}

// TransferOut pushes amount from the pool to the holder
func (t *TreasuryTransport) TransferOut(ctx context.Context, denom entities.Denomination, to string, amount int64) error {
	_, err := t.request(ctx, t.subjectPrefix+".transfer_out", denom, to, amount)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"to":     to,
		"amount": amount,
	}).Debug("Treasury transfer out completed")

	return nil
}

func (t *TreasuryTransport) request(ctx context.Context, subject string, denom entities.Denomination, account string, amount int64) (*transferReply, error) {
	req := transferRequest{
		Denomination: string(denom.Kind),
		Token:        denom.Token,
		Account:      account,
		Amount:       amount,
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal transfer request: %v", entities.ErrTransport, err)
	}

	replyData, err := t.natsClient.Request(ctx, subject, data, t.timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrTransport, err)
	}

	var reply transferReply
	if err := json.Unmarshal(replyData, &reply); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal transfer reply: %v", entities.ErrTransport, err)
	}

	if reply.Error != "" {
		return nil, fmt.Errorf("%w: treasury rejected transfer: %s", entities.ErrTransport, reply.Error)
	}

	return &reply, nil
}
