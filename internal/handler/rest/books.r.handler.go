package hrest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"bookkeeping-service/internal/domain"
	"bookkeeping-service/internal/service"
	"bookkeeping-service/internal/usecase"
	"bookkeeping-service/pkg/response"
	"bookkeeping-service/pkg/xerrors"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

type BooksRestHandler struct {
	accountUC      *usecase.AccountUsecase
	txUC           *usecase.TransactionUsecase
	trialBalanceUC *usecase.TrialBalanceUsecase
	ledgerUC       *usecase.LedgerUsecase
	statementUC    *usecase.StatementUsecase
	partyUC        *usecase.PartyUsecase
	periodUC       *usecase.PeriodUsecase
	seeder         *service.SystemSeeder
}

func NewBooksRestHandler(
	accountUC *usecase.AccountUsecase,
	txUC *usecase.TransactionUsecase,
	trialBalanceUC *usecase.TrialBalanceUsecase,
	ledgerUC *usecase.LedgerUsecase,
	statementUC *usecase.StatementUsecase,
	partyUC *usecase.PartyUsecase,
	periodUC *usecase.PeriodUsecase,
	seeder *service.SystemSeeder,
) *BooksRestHandler {
	return &BooksRestHandler{
		accountUC:      accountUC,
		txUC:           txUC,
		trialBalanceUC: trialBalanceUC,
		ledgerUC:       ledgerUC,
		statementUC:    statementUC,
		partyUC:        partyUC,
		periodUC:       periodUC,
		seeder:         seeder,
	}
}

// ===============================
// REQUEST HELPERS
// ===============================

func tenantFrom(r *http.Request) (int64, bool) {
	raw := r.Header.Get("X-Tenant-ID")
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func idParam(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func timeQuery(r *http.Request, name string) time.Time {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

// writeError translates domain errors to HTTP statuses. Validation and
// balance violations are the caller's fault; conflicts mean the books
// already disagree with the request.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case xerrors.IsValidation(err),
		errors.Is(err, xerrors.ErrEmptyEntry),
		errors.Is(err, xerrors.ErrUnbalancedEntry),
		errors.Is(err, xerrors.ErrNonPostableAccount),
		errors.Is(err, xerrors.ErrAccountInactive):
		response.Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, xerrors.ErrNotFound),
		errors.Is(err, xerrors.ErrPeriodNotFound),
		errors.Is(err, xerrors.ErrParentNotFound):
		response.Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrDuplicateCode),
		errors.Is(err, xerrors.ErrDuplicateIdempotencyKey),
		errors.Is(err, xerrors.ErrHasChildren),
		errors.Is(err, xerrors.ErrHasPostings),
		errors.Is(err, xerrors.ErrSystemAccountProtected),
		errors.Is(err, xerrors.ErrSystemAccountImmutable),
		errors.Is(err, xerrors.ErrNotDraft),
		errors.Is(err, xerrors.ErrAlreadyPosted),
		errors.Is(err, xerrors.ErrAlreadyReversed),
		errors.Is(err, xerrors.ErrHasSettlements):
		response.Error(w, http.StatusConflict, err.Error())
	default:
		log.WithFields(log.Fields{"error": err}).Error("unhandled request failure")
		response.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// ===============================
// ACCOUNT ROUTES
// ===============================

func (h *BooksRestHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var in domain.AccountCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.TenantID = tenantID

	account, err := h.accountUC.Create(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, account)
}

func (h *BooksRestHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var filter domain.AccountFilter
	if c := r.URL.Query().Get("category"); c != "" {
		cat := domain.AccountCategory(c)
		filter.Category = &cat
	}
	if v := r.URL.Query().Get("is_group"); v != "" {
		b := v == "true"
		filter.IsGroup = &b
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		b := v == "true"
		filter.IsActive = &b
	}

	accounts, err := h.accountUC.List(r.Context(), tenantID, &filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, accounts)
}

func (h *BooksRestHandler) AccountTree(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	roots, err := h.accountUC.Tree(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, roots)
}

func (h *BooksRestHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}

	account, err := h.accountUC.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, account)
}

func (h *BooksRestHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}

	var in domain.AccountUpdate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accountUC.Update(r.Context(), tenantID, id, &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, account)
}

func (h *BooksRestHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}

	if err := h.accountUC.Delete(r.Context(), tenantID, id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *BooksRestHandler) AccountStatement(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid account id")
		return
	}

	statement, err := h.ledgerUC.AccountStatement(r.Context(), tenantID, id, timeQuery(r, "from"), timeQuery(r, "as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

// ===============================
// TRANSACTION ROUTES
// ===============================

func (h *BooksRestHandler) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var in domain.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.TenantID = tenantID

	t, err := h.txUC.Submit(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, t)
}

func (h *BooksRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var filter domain.TransactionFilter
	if v := r.URL.Query().Get("period_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.PeriodID = &id
		}
	}
	if v := r.URL.Query().Get("status"); v != "" {
		s := domain.TransactionStatus(v)
		filter.Status = &s
	}
	if v := r.URL.Query().Get("origin"); v != "" {
		o := domain.OriginTag(v)
		filter.Origin = &o
	}
	if t := timeQuery(r, "from"); !t.IsZero() {
		filter.StartDate = &t
	}
	if t := timeQuery(r, "to"); !t.IsZero() {
		filter.EndDate = &t
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	txns, err := h.txUC.List(r.Context(), tenantID, &filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, txns)
}

func (h *BooksRestHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.txUC.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *BooksRestHandler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.txUC.Post(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

func (h *BooksRestHandler) ReverseTransaction(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid transaction id")
		return
	}

	t, err := h.txUC.Reverse(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, t)
}

// ===============================
// PARTY ROUTES
// ===============================

func (h *BooksRestHandler) CreateParty(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var in domain.PartyCreate
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.TenantID = tenantID

	p, err := h.partyUC.Create(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p)
}

func (h *BooksRestHandler) ListParties(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var filter domain.PartyFilter
	if v := r.URL.Query().Get("type"); v != "" {
		t := domain.PartyType(v)
		filter.Type = &t
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		b := v == "true"
		filter.IsActive = &b
	}

	parties, err := h.partyUC.List(r.Context(), tenantID, &filter)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, parties)
}

func (h *BooksRestHandler) GetParty(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid party id")
		return
	}

	p, err := h.partyUC.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *BooksRestHandler) UpdateParty(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid party id")
		return
	}

	var in struct {
		Name *string           `json:"name"`
		Type *domain.PartyType `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.partyUC.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Type != nil {
		p.Type = *in.Type
	}

	p, err = h.partyUC.Update(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *BooksRestHandler) DeactivateParty(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid party id")
		return
	}

	if err := h.partyUC.Deactivate(r.Context(), tenantID, id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

func (h *BooksRestHandler) PartyStatement(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid party id")
		return
	}

	statement, err := h.ledgerUC.PartyStatement(r.Context(), tenantID, id, timeQuery(r, "from"), timeQuery(r, "as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, statement)
}

func (h *BooksRestHandler) RefreshPartyBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid party id")
		return
	}

	balance, err := h.ledgerUC.RefreshPartyBalance(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]string{"current_balance": balance.String()})
}

// ===============================
// PERIOD ROUTES
// ===============================

func (h *BooksRestHandler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	var in domain.Period
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in.TenantID = tenantID

	p, err := h.periodUC.Create(r.Context(), &in)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, p)
}

func (h *BooksRestHandler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	periods, err := h.periodUC.List(r.Context(), tenantID)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, periods)
}

func (h *BooksRestHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid period id")
		return
	}

	p, err := h.periodUC.GetByID(r.Context(), tenantID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

func (h *BooksRestHandler) ClosePeriod(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	id, err := idParam(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid period id")
		return
	}

	if err := h.periodUC.Close(r.Context(), tenantID, id); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

// ===============================
// REPORT ROUTES
// ===============================

func (h *BooksRestHandler) periodIDQuery(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get("period_id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusBadRequest, "period_id is required")
		return 0, false
	}
	return id, true
}

func (h *BooksRestHandler) TrialBalance(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	periodID, ok := h.periodIDQuery(w, r)
	if !ok {
		return
	}

	tb, err := h.trialBalanceUC.Compute(r.Context(), tenantID, periodID, timeQuery(r, "from"), timeQuery(r, "as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, tb)
}

func (h *BooksRestHandler) BalanceSheet(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	periodID, ok := h.periodIDQuery(w, r)
	if !ok {
		return
	}

	bs, err := h.statementUC.BalanceSheet(r.Context(), tenantID, periodID, timeQuery(r, "as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, bs)
}

func (h *BooksRestHandler) IncomeStatement(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}
	periodID, ok := h.periodIDQuery(w, r)
	if !ok {
		return
	}

	is, err := h.statementUC.IncomeStatement(r.Context(), tenantID, periodID, timeQuery(r, "as_of"))
	if err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, is)
}

// ===============================
// SEEDING
// ===============================

func (h *BooksRestHandler) SeedChart(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFrom(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "missing tenant")
		return
	}

	if err := h.seeder.SeedTenant(r.Context(), tenantID); err != nil {
		writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, nil)
}

// ===============================
// ROUTER
// ===============================

func (h *BooksRestHandler) registerRoutes(r chi.Router) {
	r.Route("/books", func(r chi.Router) {
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.CreateAccount)
			r.Get("/", h.ListAccounts)
			r.Get("/tree", h.AccountTree)
			r.Get("/{id}", h.GetAccount)
			r.Patch("/{id}", h.UpdateAccount)
			r.Delete("/{id}", h.DeleteAccount)
			r.Get("/{id}/statement", h.AccountStatement)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/", h.SubmitTransaction)
			r.Get("/", h.ListTransactions)
			r.Get("/{id}", h.GetTransaction)
			r.Post("/{id}/post", h.PostTransaction)
			r.Post("/{id}/reverse", h.ReverseTransaction)
		})

		r.Route("/parties", func(r chi.Router) {
			r.Post("/", h.CreateParty)
			r.Get("/", h.ListParties)
			r.Get("/{id}", h.GetParty)
			r.Patch("/{id}", h.UpdateParty)
			r.Delete("/{id}", h.DeactivateParty)
			r.Get("/{id}/statement", h.PartyStatement)
			r.Post("/{id}/refresh-balance", h.RefreshPartyBalance)
		})

		r.Route("/periods", func(r chi.Router) {
			r.Post("/", h.CreatePeriod)
			r.Get("/", h.ListPeriods)
			r.Get("/{id}", h.GetPeriod)
			r.Post("/{id}/close", h.ClosePeriod)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/trial-balance", h.TrialBalance)
			r.Get("/balance-sheet", h.BalanceSheet)
			r.Get("/income-statement", h.IncomeStatement)
		})

		r.Post("/seed", h.SeedChart)
	})
}

func (h *BooksRestHandler) Start(addr string) {
	r := chi.NewRouter()

	// Middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	h.registerRoutes(r)

	server := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	log.Infof("🚀 Bookkeeping REST service running on %s", addr)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("failed to start server: %v", err)
	}
}
