package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/emprestaja/p2p-lending-api-go/internal/domain"
	"github.com/emprestaja/p2p-lending-api-go/internal/handler"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/cache"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/memstore"
	"github.com/emprestaja/p2p-lending-api-go/internal/infra/observability"
	"github.com/emprestaja/p2p-lending-api-go/internal/service"

	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := memstore.New()
	memstore.Seed(store, time.Now().UTC())
	svc := service.NewNegotiationService(
		store, store,
		cache.New[domain.Party](5*time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
		48*time.Hour, 4.0, "pt-BR",
	)
	return handler.NewRouter(svc, observability.NewMetrics(), zap.NewNop())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestPlatformMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/platform", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestCreateNegotiation(t *testing.T) {
	router := newTestRouter(t)

	rate := 1.8
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations", domain.CreateNegotiationRequest{
		BorrowerID: "usr-ana",
		InvestorID: "usr-carlos",
		AuthorRole: domain.RoleBorrower,
		Amount:     5000,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
		Negotiable: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var view domain.NegotiationView
	decodeBody(t, rec, &view)
	if view.ID == "" {
		t.Error("expected a negotiation id")
	}
	if view.Status != domain.StatusPendente {
		t.Errorf("expected status pendente, got %s", view.Status)
	}
	if view.CanonicalStatus != domain.CanonicalActive {
		t.Errorf("expected canonical active, got %s", view.CanonicalStatus)
	}
	if view.Installment != 467.01 {
		t.Errorf("expected installment 467.01, got %.2f", view.Installment)
	}
	if view.Expired {
		t.Error("fresh negotiation must not be expired")
	}
}

func TestCreateNegotiation_InvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/negotiations", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCreateNegotiation_ValidationError(t *testing.T) {
	router := newTestRouter(t)

	rate := 1.8
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations", domain.CreateNegotiationRequest{
		BorrowerID: "usr-ana",
		InvestorID: "usr-ana", // same party on both sides
		AuthorRole: domain.RoleBorrower,
		Amount:     5000,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateNegotiation_UnknownParty(t *testing.T) {
	router := newTestRouter(t)

	rate := 1.8
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations", domain.CreateNegotiationRequest{
		BorrowerID: "usr-ghost",
		InvestorID: "usr-carlos",
		AuthorRole: domain.RoleBorrower,
		Amount:     5000,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestGetNegotiation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/negotiations/neg-seed-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view domain.NegotiationView
	decodeBody(t, rec, &view)
	if view.ID != "neg-seed-1" {
		t.Errorf("expected neg-seed-1, got %s", view.ID)
	}
	if view.CanonicalStatus != domain.CanonicalActive {
		t.Errorf("expected canonical active, got %s", view.CanonicalStatus)
	}
}

func TestGetNegotiation_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/negotiations/neg-missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
	var errResp struct {
		Error string `json:"error"`
	}
	decodeBody(t, rec, &errResp)
	if errResp.Error == "" {
		t.Error("expected an error message")
	}
}

func TestSubmitProposal_Flow(t *testing.T) {
	router := newTestRouter(t)

	// The latest seeded proposal on neg-seed-1 belongs to the investor,
	// so the borrower answers next.
	rate := 1.9
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/proposals", domain.SubmitProposalRequest{
		AuthorID:   "usr-ana",
		AuthorRole: domain.RoleBorrower,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
		Negotiable: true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var proposal domain.Proposal
	decodeBody(t, rec, &proposal)
	if proposal.AuthorID != "usr-ana" {
		t.Errorf("expected author usr-ana, got %s", proposal.AuthorID)
	}

	// Same author again is out of turn.
	rec = doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/proposals", domain.SubmitProposalRequest{
		AuthorID:   "usr-ana",
		AuthorRole: domain.RoleBorrower,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for out-of-turn proposal, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitProposal_Intruder(t *testing.T) {
	router := newTestRouter(t)

	rate := 1.9
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/proposals", domain.SubmitProposalRequest{
		AuthorID:   "usr-eve",
		AuthorRole: domain.RoleBorrower,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 12,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSubmitProposal_ClosedNegotiation(t *testing.T) {
	router := newTestRouter(t)

	// neg-seed-2 is already accepted.
	rate := 1.5
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-2/proposals", domain.SubmitProposalRequest{
		AuthorID:   "usr-ana",
		AuthorRole: domain.RoleBorrower,
		Rate:       domain.RateValue{Value: &rate},
		TermMonths: 24,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListProposals(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/negotiations/neg-seed-1/proposals?author=usr-ana&role=borrower", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Proposals []struct {
			AuthorID       string  `json:"author_id"`
			MonthlyPayment float64 `json:"monthly_payment"`
		} `json:"proposals"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Proposals) != 1 {
		t.Fatalf("expected 1 proposal, got %d", len(resp.Proposals))
	}
	if resp.Proposals[0].AuthorID != "usr-ana" {
		t.Errorf("expected author usr-ana, got %s", resp.Proposals[0].AuthorID)
	}
	if resp.Proposals[0].MonthlyPayment <= 0 {
		t.Error("expected a positive monthly payment projection")
	}
}

func TestListProposals_MissingAuthor(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/negotiations/neg-seed-1/proposals", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestAcceptNegotiation(t *testing.T) {
	router := newTestRouter(t)

	// Seeded latest proposal on neg-seed-1 is the investor's, so the
	// borrower accepts.
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/accept", domain.PartyActionRequest{
		PartyID: "usr-ana",
		Role:    domain.RoleBorrower,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view domain.NegotiationView
	decodeBody(t, rec, &view)
	if view.Status != domain.StatusAceita {
		t.Errorf("expected status aceita, got %s", view.Status)
	}
	if view.AcceptedAt == nil {
		t.Error("expected accepted_at to be set")
	}
}

func TestAcceptNegotiation_SelfAccept(t *testing.T) {
	router := newTestRouter(t)

	// The investor authored the latest seeded proposal and cannot
	// accept their own terms.
	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/accept", domain.PartyActionRequest{
		PartyID: "usr-carlos",
		Role:    domain.RoleInvestor,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCancelNegotiation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/cancel", domain.PartyActionRequest{
		PartyID: "usr-carlos",
		Role:    domain.RoleInvestor,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var view domain.NegotiationView
	decodeBody(t, rec, &view)
	if view.Status != domain.StatusCancelada {
		t.Errorf("expected status cancelada, got %s", view.Status)
	}

	// A cancelled negotiation accepts nothing further.
	rec = doJSON(t, router, http.MethodPost, "/v1/negotiations/neg-seed-1/accept", domain.PartyActionRequest{
		PartyID: "usr-ana",
		Role:    domain.RoleBorrower,
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 after cancel, got %d", rec.Code)
	}
}

func TestListPartyNegotiations(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/parties/usr-ana/negotiations", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Negotiations []domain.NegotiationView `json:"negotiations"`
		Total        int                      `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 2 {
		t.Errorf("expected 2 seeded negotiations, got %d", resp.Total)
	}

	// Pagination slices the same total.
	rec = doJSON(t, router, http.MethodGet, "/v1/parties/usr-ana/negotiations?page=1&page_size=1", nil)
	decodeBody(t, rec, &resp)
	if len(resp.Negotiations) != 1 {
		t.Errorf("expected 1 negotiation on page, got %d", len(resp.Negotiations))
	}
	if resp.Total != 2 {
		t.Errorf("expected total 2 with pagination, got %d", resp.Total)
	}
}

func TestGetLoan(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/loans/neg-seed-2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var loan domain.ActiveLoan
	decodeBody(t, rec, &loan)
	if loan.NegotiationID != "neg-seed-2" {
		t.Errorf("expected neg-seed-2, got %s", loan.NegotiationID)
	}
	if loan.BorrowerName == "" || loan.InvestorName == "" {
		t.Error("expected resolved party names")
	}
	if loan.Projection.MonthlyPayment != 499.24 {
		t.Errorf("expected monthly payment 499.24, got %.2f", loan.Projection.MonthlyPayment)
	}
}

func TestGetLoan_NotAccepted(t *testing.T) {
	router := newTestRouter(t)

	// neg-seed-1 is still under negotiation.
	rec := doJSON(t, router, http.MethodGet, "/v1/loans/neg-seed-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestListPartyLoans(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/parties/usr-carlos/loans", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Loans []domain.ActiveLoan `json:"loans"`
		Total int                 `json:"total"`
	}
	decodeBody(t, rec, &resp)
	if resp.Total != 1 {
		t.Fatalf("expected 1 loan, got %d", resp.Total)
	}
	if resp.Loans[0].NegotiationID != "neg-seed-2" {
		t.Errorf("expected neg-seed-2, got %s", resp.Loans[0].NegotiationID)
	}
}

func TestSimulate(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/simulations", domain.SimulationRequest{
		Principal:    5000,
		MonthlyRate:  1.8,
		Installments: 12,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.SimulationResponse
	decodeBody(t, rec, &resp)
	if resp.MonthlyPayment != 467.01 {
		t.Errorf("expected monthly payment 467.01, got %.2f", resp.MonthlyPayment)
	}
	if resp.TotalAmount != 5604.12 {
		t.Errorf("expected total 5604.12, got %.2f", resp.TotalAmount)
	}
	if resp.RateLabel != "1,8% a.m." {
		t.Errorf("unexpected rate label %q", resp.RateLabel)
	}
}

func TestSimulate_InvalidInstallments(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/simulations", domain.SimulationRequest{
		Principal:    5000,
		MonthlyRate:  1.8,
		Installments: 0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSimulate_WithSchedule(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/simulations", domain.SimulationRequest{
		Principal:    5000,
		MonthlyRate:  1.8,
		Installments: 12,
		WithSchedule: true,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.SimulationResponse
	decodeBody(t, rec, &resp)
	if len(resp.Schedule) != 12 {
		t.Fatalf("expected 12 schedule rows, got %d", len(resp.Schedule))
	}
	if last := resp.Schedule[len(resp.Schedule)-1]; last.Balance != 0 {
		t.Errorf("expected final balance 0, got %.2f", last.Balance)
	}
}

func TestRouteNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
