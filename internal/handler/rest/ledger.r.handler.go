package hrest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"ledger-service/internal/domain"
	"ledger-service/internal/usecase"
	"ledger-service/pkg/xerrors"
)

type LedgerRestHandler struct {
	postingUC *usecase.PostingUsecase
	entryUC   *usecase.EntryUsecase
	walletUC  *usecase.WalletUsecase
	validate  *validator.Validate
}

func NewLedgerRestHandler(
	postingUC *usecase.PostingUsecase,
	entryUC *usecase.EntryUsecase,
	walletUC *usecase.WalletUsecase,
) *LedgerRestHandler {
	return &LedgerRestHandler{
		postingUC: postingUC,
		entryUC:   entryUC,
		walletUC:  walletUC,
		validate:  validator.New(),
	}
}

type accountRefJSON struct {
	UserID       string `json:"user_id,omitempty"`
	PlatformName string `json:"platform_name,omitempty"`
	AccountName  string `json:"account_name,omitempty"`
}

type transferJSON struct {
	Amount        string          `json:"amount" validate:"required"`
	CurrencyCode  string          `json:"currency_code" validate:"required,len=3,uppercase"`
	Purpose       string          `json:"purpose" validate:"required"`
	RequesterType string          `json:"requester_type" validate:"required,oneof=user employee system"`
	RequesterID   string          `json:"requester_id" validate:"required"`
	Memo          string          `json:"memo,omitempty"`
	Source        *accountRefJSON `json:"source" validate:"required"`
	Destination   *accountRefJSON `json:"destination" validate:"required"`
}

// CreateTransfer drives the fluent builder from an authenticated admin (or
// webhook processor) request.
func (h *LedgerRestHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var in transferJSON
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(&in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := decimal.NewFromString(in.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount: "+in.Amount)
		return
	}

	b := h.postingUC.Transfer(amount, in.CurrencyCode).
		Purpose(domain.Purpose(in.Purpose)).
		RequestedBy(domain.RequesterType(in.RequesterType), in.RequesterID).
		Memo(in.Memo)

	applyRef(b, in.Source, true)
	applyRef(b, in.Destination, false)

	entry, err := b.Commit(r.Context())
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, entry)
}

func applyRef(b *usecase.TransferBuilder, ref *accountRefJSON, source bool) {
	switch {
	case ref.UserID != "":
		if source {
			b.FromUser(ref.UserID, ref.AccountName)
		} else {
			b.ToUser(ref.UserID, ref.AccountName)
		}
	default:
		if source {
			b.FromPlatform(ref.PlatformName, ref.AccountName)
		} else {
			b.ToPlatform(ref.PlatformName, ref.AccountName)
		}
	}
}

func (h *LedgerRestHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid entry id")
		return
	}

	entry, err := h.entryUC.GetByID(r.Context(), id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *LedgerRestHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	f, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.entryUC.ListEntries(r.Context(), f)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *LedgerRestHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseEntryFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	txns, err := h.entryUC.ListTransactions(r.Context(), f)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func (h *LedgerRestHandler) ProvisionWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	wallet, err := h.walletUC.ProvisionUserWallet(r.Context(), userID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, wallet)
}

func (h *LedgerRestHandler) GetUserBalances(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.walletUC.UserBalances(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *LedgerRestHandler) GetPlatformBalances(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.walletUC.PlatformBalances(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *LedgerRestHandler) RegisterRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Post("/transfers", h.CreateTransfer)
		r.Get("/entries", h.ListEntries)
		r.Get("/entries/{id}", h.GetEntry)
		r.Get("/transactions", h.ListTransactions)

		r.Post("/wallets/{userID}/provision", h.ProvisionWallet)
		r.Get("/wallets/{userID}/balances", h.GetUserBalances)
		r.Get("/platform/{name}/balances", h.GetPlatformBalances)
	})
}

func (h *LedgerRestHandler) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	h.RegisterRoutes(r)
	return r
}

func parseEntryFilter(r *http.Request) (domain.EntryFilter, error) {
	var f domain.EntryFilter
	q := r.URL.Query()

	if v := q.Get("wallet_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid wallet_id")
		}
		f.WalletID = &id
	}
	if v := q.Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return f, errors.New("invalid account_id")
		}
		f.AccountID = &id
	}
	if v := q.Get("purpose"); v != "" {
		p := domain.Purpose(v)
		if !p.IsValid() {
			return f, errors.New("unknown purpose: " + v)
		}
		f.Purpose = &p
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid from time, want RFC3339")
		}
		f.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, errors.New("invalid to time, want RFC3339")
		}
		f.To = &t
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}

	return f, nil
}

// writeLedgerError maps the engine's typed errors onto HTTP statuses.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, xerrors.ErrInsufficientFunds):
		writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, xerrors.ErrNotFound),
		errors.Is(err, xerrors.ErrWalletNotFound),
		errors.Is(err, xerrors.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, xerrors.ErrSameAccount),
		errors.Is(err, xerrors.ErrFlowViolation):
		writeError(w, http.StatusConflict, err.Error())
	case xerrors.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
