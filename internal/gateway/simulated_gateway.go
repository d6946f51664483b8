package gateway

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SimulatedConfig drives the simulated gateway.
type SimulatedConfig struct {
	// SuccessRate is the probability of a successful charge (0.0 to 1.0).
	SuccessRate float64

	// Delay is the simulated processing time.
	Delay time.Duration

	// Timeout bounds a single charge; zero means 30s.
	Timeout time.Duration

	// FailureReasons is the pool failures are drawn from.
	FailureReasons []string

	// Unavailable methods fail with "gateway_unavailable".
	Unavailable map[Method]bool
}

// DefaultSimulatedConfig returns default configuration
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		SuccessRate: 0.95,
		Delay:       2 * time.Second,
		Timeout:     30 * time.Second,
		FailureReasons: []string{
			"insufficient_funds",
			"card_declined",
			"expired_card",
			"processing_error",
		},
	}
}

// Decision lets tests script the outcome of a charge.
type Decision func(req ChargeRequest) (ok bool, reason string)

// SimulatedGateway stands in for a real provider. Charges are idempotent on
// ChargeRequest.IdempotencyKey: a repeated key returns the recorded result
// of the first successful charge instead of charging twice.
type SimulatedGateway struct {
	cfg    SimulatedConfig
	decide Decision

	mu  sync.Mutex
	rng *rand.Rand
	txs map[string]TransactionInfo
}

func NewSimulatedGateway(cfg SimulatedConfig) *SimulatedGateway {
	if cfg.SuccessRate < 0 {
		cfg.SuccessRate = 0
	}
	if cfg.SuccessRate > 1 {
		cfg.SuccessRate = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SimulatedGateway{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15)),
		txs: map[string]TransactionInfo{},
	}
}

// WithDecision replaces the random outcome with a scripted one.
func (g *SimulatedGateway) WithDecision(d Decision) *SimulatedGateway {
	g.decide = d
	return g
}

func (g *SimulatedGateway) Name() string { return "simulated" }

func (g *SimulatedGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResponse, error) {
	if req.Amount <= 0 {
		return ChargeResponse{}, fmt.Errorf("charge amount must be positive")
	}

	if tx, ok := g.lookup(req.IdempotencyKey); ok && tx.Status == "completed" {
		return ChargeResponse{Success: true, TransactionID: tx.TransactionID, Status: tx.Status}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	if g.cfg.Delay > 0 {
		select {
		case <-ctx.Done():
			return ChargeResponse{}, ctx.Err()
		case <-time.After(g.cfg.Delay):
		}
	}

	resp := ChargeResponse{TransactionID: "sim_txn_" + uuid.NewString()[:8]}
	ok, reason := g.outcome(req)
	if ok {
		resp.Success = true
		resp.Status = "completed"
	} else {
		resp.Status = "failed"
		resp.FailureReason = reason
	}

	if req.IdempotencyKey != "" {
		g.mu.Lock()
		g.txs[req.IdempotencyKey] = TransactionInfo{
			TransactionID:  resp.TransactionID,
			IdempotencyKey: req.IdempotencyKey,
			Status:         resp.Status,
			Amount:         req.Amount,
			Method:         req.Method,
			FailureReason:  resp.FailureReason,
		}
		g.mu.Unlock()
	}
	return resp, nil
}

func (g *SimulatedGateway) GetTransaction(_ context.Context, key string) (TransactionInfo, bool, error) {
	tx, ok := g.lookup(key)
	return tx, ok, nil
}

func (g *SimulatedGateway) lookup(key string) (TransactionInfo, bool) {
	if key == "" {
		return TransactionInfo{}, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	tx, ok := g.txs[key]
	return tx, ok
}

func (g *SimulatedGateway) outcome(req ChargeRequest) (bool, string) {
	if g.cfg.Unavailable[req.Method] {
		return false, "gateway_unavailable"
	}
	if g.decide != nil {
		return g.decide(req)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.rng.Float64() < g.cfg.SuccessRate {
		return true, ""
	}
	if len(g.cfg.FailureReasons) == 0 {
		return false, "payment_failed"
	}
	return false, g.cfg.FailureReasons[g.rng.IntN(len(g.cfg.FailureReasons))]
}
