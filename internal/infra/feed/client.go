// Package feed provides a read-only HTTP client for the negotiation
// feed, an upstream JSON API exposing negotiations, proposals and party
// records. It hydrates the local store at startup; nothing is ever
// written back through it.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("feed")

// Client wraps HTTP calls to the negotiation feed API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a feed client.
func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, bulkhead *resilience.Bulkhead, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		cb:         cb,
		bulkhead:   bulkhead,
		cfg:        cfg,
		logger:     logger,
	}
}

// doRequest executes a GET against the feed API.
func (c *Client) doRequest(ctx context.Context, path string) ([]byte, error) {
	url := fmt.Sprintf("%s/api/v1/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.logger.Error("feed: failed to create request",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("feed: request failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("feed: failed to read response body",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("feed: non-2xx response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("feed returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("feed: request OK",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// fetch runs a feed call under the bulkhead, circuit breaker and retry
// policy, translating breaker rejections into domain errors.
func (c *Client) fetch(ctx context.Context, service string, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrExternalService{Service: service, Err: err}
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return &domain.ErrCircuitOpen{Service: service}
		}
		return &domain.ErrExternalService{Service: service, Err: err}
	}
	return nil
}

// feedRate mirrors the feed's rate payload: single value or a range.
type feedRate struct {
	Value *float64 `json:"value"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
}

// feedNegotiation maps feed columns to our domain.
type feedNegotiation struct {
	ID            string  `json:"id"`
	BorrowerID    string  `json:"borrower_id"`
	InvestorID    string  `json:"investor_id"`
	Amount        float64 `json:"amount"`
	MonthlyRate   float64 `json:"monthly_rate"`
	TermMonths    int     `json:"term_months"`
	Installment   float64 `json:"installment"`
	Status        string  `json:"status"`
	ProposalCount int     `json:"proposal_count"`
	OnChainHash   string  `json:"negotiation_hash"`
	OnChainTxHash string  `json:"tx_hash"`
	AcceptedAt    *string `json:"accepted_at"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

// parseFeedTime accepts the two timestamp layouts the feed emits.
func parseFeedTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	if t.IsZero() {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// FetchNegotiations fetches all negotiations from the feed.
func (c *Client) FetchNegotiations(ctx context.Context) ([]domain.Negotiation, error) {
	ctx, span := tracer.Start(ctx, "Feed.FetchNegotiations")
	defer span.End()

	var negotiations []domain.Negotiation

	err := c.fetch(ctx, "feed/negotiations", func() error {
		body, err := c.doRequest(ctx, "negotiations?order=created_at.desc")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			negotiations = []domain.Negotiation{}
			return nil
		}

		var rows []feedNegotiation
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode negotiations: %w", err)
		}

		negotiations = make([]domain.Negotiation, 0, len(rows))
		for _, r := range rows {
			neg := domain.Negotiation{
				ID:            r.ID,
				BorrowerID:    r.BorrowerID,
				InvestorID:    r.InvestorID,
				Amount:        r.Amount,
				MonthlyRate:   r.MonthlyRate,
				TermMonths:    r.TermMonths,
				Installment:   r.Installment,
				Status:        r.Status,
				ProposalCount: r.ProposalCount,
				OnChainHash:   r.OnChainHash,
				OnChainTxHash: r.OnChainTxHash,
				CreatedAt:     parseFeedTime(r.CreatedAt),
				UpdatedAt:     parseFeedTime(r.UpdatedAt),
			}
			if r.AcceptedAt != nil {
				at := parseFeedTime(*r.AcceptedAt)
				neg.AcceptedAt = &at
			}
			negotiations = append(negotiations, neg)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return negotiations, nil
}

// feedProposal maps feed columns.
type feedProposal struct {
	ID            string   `json:"id"`
	NegotiationID string   `json:"negotiation_id"`
	AuthorID      string   `json:"author_id"`
	AuthorRole    string   `json:"author_role"`
	Rate          feedRate `json:"rate"`
	TermMonths    int      `json:"term_months"`
	Installment   float64  `json:"installment"`
	Negotiable    bool     `json:"negotiable"`
	Justification string   `json:"justification"`
	CreatedAt     string   `json:"created_at"`
}

// FetchProposals fetches the proposal history of one negotiation.
func (c *Client) FetchProposals(ctx context.Context, negotiationID string) ([]domain.Proposal, error) {
	ctx, span := tracer.Start(ctx, "Feed.FetchProposals")
	defer span.End()
	span.SetAttributes(attribute.String("negotiation.id", negotiationID))

	var proposals []domain.Proposal

	err := c.fetch(ctx, "feed/proposals", func() error {
		path := fmt.Sprintf("negotiations/%s/proposals?order=created_at.asc", negotiationID)
		body, err := c.doRequest(ctx, path)
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			proposals = []domain.Proposal{}
			return nil
		}

		var rows []feedProposal
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode proposals: %w", err)
		}

		proposals = make([]domain.Proposal, 0, len(rows))
		for _, r := range rows {
			proposals = append(proposals, domain.Proposal{
				ID:            r.ID,
				NegotiationID: r.NegotiationID,
				AuthorID:      r.AuthorID,
				AuthorRole:    r.AuthorRole,
				Rate: domain.RateValue{
					Value: r.Rate.Value,
					Min:   r.Rate.Min,
					Max:   r.Rate.Max,
				},
				TermMonths:    r.TermMonths,
				Installment:   r.Installment,
				Negotiable:    r.Negotiable,
				Justification: r.Justification,
				CreatedAt:     parseFeedTime(r.CreatedAt),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return proposals, nil
}

// feedParty maps feed columns.
type feedParty struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
}

// FetchParties fetches all known parties from the feed.
func (c *Client) FetchParties(ctx context.Context) ([]domain.Party, error) {
	ctx, span := tracer.Start(ctx, "Feed.FetchParties")
	defer span.End()

	var parties []domain.Party

	err := c.fetch(ctx, "feed/parties", func() error {
		body, err := c.doRequest(ctx, "parties")
		if err != nil {
			return err
		}
		if body == nil || string(body) == "[]" {
			parties = []domain.Party{}
			return nil
		}

		var rows []feedParty
		if err := json.Unmarshal(body, &rows); err != nil {
			return fmt.Errorf("failed to decode parties: %w", err)
		}

		parties = make([]domain.Party, 0, len(rows))
		for _, r := range rows {
			parties = append(parties, domain.Party{
				ID:       r.ID,
				Name:     r.Name,
				Document: r.Document,
				Email:    r.Email,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parties, nil
}
