package events

import (
	"time"

	"github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/google/uuid"
)

const (
	EventTypeLoggedIn             = "session.logged_in"
	EventTypeRegistered           = "session.registered"
	EventTypeLoggedOut            = "session.logged_out"
	EventTypeExpenseStatusChanged = "expense.status_changed"
)

// SessionEventTypes lists every event that changes who is signed in.
var SessionEventTypes = []string{EventTypeLoggedIn, EventTypeRegistered, EventTypeLoggedOut}

type SessionChangedEvent struct {
	BaseEvent
	User *user.User `json:"user,omitempty"`
}

func NewSessionChangedEvent(eventType string, u *user.User) *SessionChangedEvent {
	data := map[string]interface{}{}
	if u != nil {
		data["user_id"] = u.ID
		data["role"] = string(u.Role)
	}
	return &SessionChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data:      data,
		},
		User: u.Clone(),
	}
}

type ExpenseStatusChangedEvent struct {
	BaseEvent
	ExpenseID string         `json:"expense_id"`
	Status    expense.Status `json:"status"`
	Remarks   string         `json:"remarks"`
}

func NewExpenseStatusChangedEvent(expenseID string, status expense.Status, remarks string) *ExpenseStatusChangedEvent {
	return &ExpenseStatusChangedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeExpenseStatusChanged,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"expense_id": expenseID,
				"status":     string(status),
				"remarks":    remarks,
			},
		},
		ExpenseID: expenseID,
		Status:    status,
		Remarks:   remarks,
	}
}
