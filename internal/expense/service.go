package expense

import (
	"context"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/frahmantamala/expense-client/internal/apiclient"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/events"
)

// API is the part of the remote API expense views call.
type API interface {
	ListExpenses(ctx context.Context, filter expenseDatamodel.ListFilter) ([]Expense, error)
	GetExpense(ctx context.Context, id string) (*Expense, error)
	CreateExpense(ctx context.Context, req expenseDatamodel.CreateRequest) (*Expense, error)
	UpdateStatus(ctx context.Context, id string, req expenseDatamodel.StatusUpdateRequest) (*Expense, error)
}

// Service converts remote failures into display errors. Nothing it returns
// carries a raw transport error as its message.
type Service struct {
	api    API
	bus    *events.EventBus
	logger *slog.Logger
}

func NewService(api API, bus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		api:    api,
		bus:    bus,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context, filter expenseDatamodel.ListFilter) ([]Expense, error) {
	expenses, err := s.api.ListExpenses(ctx, filter)
	if err != nil {
		s.logger.Error("failed to fetch expenses", "error", err, "filter", filter)
		return nil, errors.NewFetchError(MsgFetchFailed, err)
	}
	return expenses, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	exp, err := s.api.GetExpense(ctx, id)
	if err != nil {
		s.logger.Error("failed to load expense", "error", err, "expense_id", id)
		appErr := errors.NewFetchError(MsgLoadFailed, err)
		if apiclient.StatusCode(err) == http.StatusNotFound {
			appErr.Code = errors.ErrCodeExpenseNotFound
		}
		return nil, appErr
	}
	return exp, nil
}

func (s *Service) Create(ctx context.Context, req expenseDatamodel.CreateRequest) (*Expense, error) {
	exp, err := s.api.CreateExpense(ctx, req)
	if err != nil {
		s.logger.Error("failed to add expense", "error", err, "category", req.Category)
		appErr := errors.NewFetchError(MsgSubmitFailed, err)
		appErr.Code = errors.ErrCodeSubmissionFailed
		return nil, appErr
	}

	s.logger.Info("expense submitted", "expense_id", exp.ID, "category", exp.Category, "amount", exp.Amount.String())
	return exp, nil
}

// UpdateStatus checks the remark rule locally before calling the API.
func (s *Service) UpdateStatus(ctx context.Context, id string, req expenseDatamodel.StatusUpdateRequest) (*Expense, error) {
	if _, err := expenseDatamodel.ParseStatus(string(req.Status)); err != nil {
		return nil, errors.NewValidationError(err.Error(), errors.ErrCodeInvalidStatus)
	}
	if req.Status.RequiresRemarks() && isBlank(req.Remarks) {
		return nil, errors.NewValidationError("Remarks are required", errors.ErrCodeRemarksRequired)
	}

	exp, err := s.api.UpdateStatus(ctx, id, req)
	if err != nil {
		s.logger.Error("failed to update status", "error", err, "expense_id", id, "status", req.Status)
		return nil, errors.NewTransitionError(MsgTransitionFailed, errors.ErrCodeTransitionFailed).WithCause(err)
	}

	s.logger.Info("expense status updated", "expense_id", id, "status", req.Status)
	if s.bus != nil {
		if err := s.bus.Publish(ctx, events.NewExpenseStatusChangedEvent(id, req.Status, req.Remarks)); err != nil {
			s.logger.Warn("failed to publish status change", "error", err)
		}
	}
	return exp, nil
}
