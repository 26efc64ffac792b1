package mockapi

import (
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/category"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/frahmantamala/expense-client/internal/transport"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

type Handler struct {
	*transport.BaseHandler
	store      *Store
	auth       *Auth
	categories *category.Service
}

func NewHandler(store *Store, auth *Auth, categories *category.Service, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		store:       store,
		auth:        auth,
		categories:  categories,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResult struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}

	token, u, err := h.auth.Authenticate(req.Email, req.Password)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.Logger.Info("Login: user signed in", "user_id", u.ID, "role", u.Role)
	h.WriteData(w, http.StatusOK, authResult{Token: token, User: u})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}

	token, u, err := h.auth.Register(req)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.Logger.Info("Register: account created", "user_id", u.ID)
	h.WriteData(w, http.StatusCreated, authResult{Token: token, User: u})
}

func (h *Handler) viewer(w http.ResponseWriter, r *http.Request) (*user.User, bool) {
	u, ok := errors.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, errors.NewUnauthorizedError("unauthorized", errors.ErrCodeInvalidToken))
		return nil, false
	}
	return u, true
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	u, ok := h.viewer(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := expenseDatamodel.ListFilter{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Category:  q.Get("category"),
		Status:    q.Get("status"),
	}
	expenses, err := h.store.ListExpenses(u, filter)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteData(w, http.StatusOK, expenses)
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := h.viewer(w, r)
	if !ok {
		return
	}

	e, err := h.store.GetExpense(u, chi.URLParam(r, "id"))
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.WriteData(w, http.StatusOK, e)
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	u, ok := h.viewer(w, r)
	if !ok {
		return
	}

	var req expenseDatamodel.CreateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}
	if !h.categories.IsValidCategory(req.Category) {
		h.WriteError(w, errors.NewValidationError("Invalid category", errors.ErrCodeInvalidCategory))
		return
	}
	if !decimal.NewFromFloat(req.Amount).IsPositive() {
		h.WriteError(w, errors.NewValidationError("Amount must be positive", errors.ErrCodeInvalidAmount))
		return
	}

	e, err := h.store.AddExpense(u, req)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.Logger.Info("CreateExpense: expense created",
		"expense_id", e.ID,
		"user_id", u.ID,
		"amount", e.Amount.String())
	h.WriteData(w, http.StatusCreated, e)
}

func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	h.WriteData(w, http.StatusOK, h.store.Analytics())
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	u, ok := h.viewer(w, r)
	if !ok {
		return
	}

	var req expenseDatamodel.StatusUpdateRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.WriteError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	e, err := h.store.UpdateStatus(id, req)
	if err != nil {
		h.WriteError(w, err)
		return
	}

	h.Logger.Info("UpdateStatus: expense status changed",
		"expense_id", id,
		"admin_id", u.ID,
		"status", e.Status)
	h.WriteData(w, http.StatusOK, e)
}
