package expense

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	errors "github.com/frahmantamala/expense-client/internal"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
)

type Updater interface {
	UpdateStatus(ctx context.Context, id string, req expenseDatamodel.StatusUpdateRequest) (*Expense, error)
}

// TransitionFlow drives the admin approve/reject/hold controls on one expense.
// Reject and hold go through a remarks dialog; approve does not.
type TransitionFlow struct {
	mu        sync.Mutex
	expense   Expense
	allowed   bool
	dialog    expenseDatamodel.Status
	remarks   string
	inFlight  bool
	err       error
	updater   Updater
	onUpdated func(Expense)
	logger    *slog.Logger
}

// NewTransitionFlow starts a flow on e. allowed is the router's verdict on
// whether the viewer may transition at all.
func NewTransitionFlow(e Expense, allowed bool, updater Updater, onUpdated func(Expense), logger *slog.Logger) *TransitionFlow {
	return &TransitionFlow{
		expense:   e,
		allowed:   allowed,
		updater:   updater,
		onUpdated: onUpdated,
		logger:    logger,
	}
}

func (f *TransitionFlow) Expense() Expense {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.expense
}

// Actions lists the target statuses offered for the current record.
func (f *TransitionFlow) Actions() []expenseDatamodel.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.actionsLocked()
}

func (f *TransitionFlow) actionsLocked() []expenseDatamodel.Status {
	if !f.allowed || f.expense.Status == expenseDatamodel.StatusApproved {
		return nil
	}
	return []expenseDatamodel.Status{
		expenseDatamodel.StatusApproved,
		expenseDatamodel.StatusRejected,
		expenseDatamodel.StatusOnHold,
	}
}

func (f *TransitionFlow) offeredLocked(s expenseDatamodel.Status) bool {
	for _, a := range f.actionsLocked() {
		if a == s {
			return true
		}
	}
	return false
}

func (f *TransitionFlow) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Err is the failure of the last attempt, cleared by the next one.
func (f *TransitionFlow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

// Dialog returns the status the remarks dialog is open for, or "" when closed.
func (f *TransitionFlow) Dialog() expenseDatamodel.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialog
}

func (f *TransitionFlow) Remarks() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remarks
}

func (f *TransitionFlow) Approve(ctx context.Context) error {
	f.mu.Lock()
	if err := f.beginLocked(expenseDatamodel.StatusApproved); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()
	return f.submit(ctx, expenseDatamodel.StatusApproved, "")
}

// OpenRemarks opens the dialog for a status that needs remarks, with an
// empty text box.
func (f *TransitionFlow) OpenRemarks(status expenseDatamodel.Status) error {
	if !status.RequiresRemarks() {
		return errors.NewValidationError(fmt.Sprintf("%s does not take remarks", status), errors.ErrCodeInvalidStatus)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.offeredLocked(status) {
		return errors.NewTransitionError(fmt.Sprintf("%s is not offered", status), errors.ErrCodeTransitionClosed)
	}
	if f.inFlight {
		return errors.NewConflictError("status update already in progress", errors.ErrCodeTransitionInFlight)
	}
	f.dialog = status
	f.remarks = ""
	f.err = nil
	return nil
}

func (f *TransitionFlow) SetRemarks(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remarks = text
}

// CanConfirm is false while the remarks are blank or a request is pending.
func (f *TransitionFlow) CanConfirm() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialog != "" && !isBlank(f.remarks) && !f.inFlight
}

// Confirm submits the dialog. The dialog closes whatever the outcome.
func (f *TransitionFlow) Confirm(ctx context.Context) error {
	f.mu.Lock()
	status := f.dialog
	remarks := f.remarks
	if status == "" {
		f.mu.Unlock()
		return errors.NewTransitionError("no remarks dialog is open", errors.ErrCodeTransitionClosed)
	}
	if isBlank(remarks) {
		f.mu.Unlock()
		return errors.NewValidationError("Remarks are required", errors.ErrCodeRemarksRequired)
	}
	if err := f.beginLocked(status); err != nil {
		f.mu.Unlock()
		return err
	}
	f.mu.Unlock()

	err := f.submit(ctx, status, remarks)

	f.mu.Lock()
	f.dialog = ""
	f.remarks = ""
	f.mu.Unlock()
	return err
}

func (f *TransitionFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialog = ""
	f.remarks = ""
}

func (f *TransitionFlow) beginLocked(status expenseDatamodel.Status) error {
	if f.inFlight {
		return errors.NewConflictError("status update already in progress", errors.ErrCodeTransitionInFlight)
	}
	if !f.offeredLocked(status) {
		return errors.NewTransitionError(fmt.Sprintf("%s is not offered", status), errors.ErrCodeTransitionClosed)
	}
	f.inFlight = true
	f.err = nil
	return nil
}

func (f *TransitionFlow) submit(ctx context.Context, status expenseDatamodel.Status, remarks string) error {
	id := f.Expense().ID
	_, err := f.updater.UpdateStatus(ctx, id, expenseDatamodel.StatusUpdateRequest{Status: status, Remarks: remarks})

	f.mu.Lock()
	f.inFlight = false
	if err != nil {
		if _, ok := errors.IsAppError(err); !ok {
			err = errors.NewTransitionError(MsgTransitionFailed, errors.ErrCodeTransitionFailed).WithCause(err)
		}
		f.err = err
		f.mu.Unlock()
		f.logger.Warn("status transition failed", "expense_id", id, "status", status, "error", err)
		return err
	}
	f.expense.Status = status
	f.expense.Remarks = remarks
	updated := f.expense
	onUpdated := f.onUpdated
	f.mu.Unlock()

	if onUpdated != nil {
		onUpdated(updated)
	}
	return nil
}
