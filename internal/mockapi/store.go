package mockapi

import (
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	errors "github.com/frahmantamala/expense-client/internal"
	analyticsDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/analytics"
	expenseDatamodel "github.com/frahmantamala/expense-client/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-client/internal/core/datamodel/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type account struct {
	user         user.User
	passwordHash string
}

// Store is the in-memory state behind the mock API. Records are copied in
// and out so handlers never share memory with it.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]*account
	byEmail  map[string]string
	expenses []*expenseDatamodel.Expense
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*account),
		byEmail:  make(map[string]string),
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. Emails are unique ignoring case.
func (s *Store) CreateUser(name, email, passwordHash string, role user.Role) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeEmail(email)
	if _, taken := s.byEmail[key]; taken {
		return nil, errors.NewConflictError("Email already registered", errors.ErrCodeEmailTaken)
	}

	acc := &account{
		user: user.User{
			ID:    uuid.NewString(),
			Name:  strings.TrimSpace(name),
			Email: strings.TrimSpace(email),
			Role:  role,
		},
		passwordHash: passwordHash,
	}
	s.accounts[acc.user.ID] = acc
	s.byEmail[key] = acc.user.ID
	return acc.user.Clone(), nil
}

// credentials returns the user and password hash registered under email.
func (s *Store) credentials(email string) (*user.User, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, "", false
	}
	acc := s.accounts[id]
	return acc.user.Clone(), acc.passwordHash, true
}

func (s *Store) User(id string) (*user.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	return acc.user.Clone(), true
}

// withUser copies e and attaches its submitter. Caller holds the lock.
func (s *Store) withUser(e *expenseDatamodel.Expense) expenseDatamodel.Expense {
	out := *e
	if acc, ok := s.accounts[e.UserID]; ok {
		out.User = acc.user.Clone()
	}
	return out
}

func (s *Store) AddExpense(owner *user.User, req expenseDatamodel.CreateRequest) (expenseDatamodel.Expense, error) {
	date, err := expenseDatamodel.ParseDate(req.Date)
	if err != nil {
		return expenseDatamodel.Expense{}, errors.NewValidationError("Invalid date", errors.ErrCodeInvalidDate)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	e := &expenseDatamodel.Expense{
		ID:          uuid.NewString(),
		Category:    req.Category,
		Amount:      decimal.NewFromFloat(req.Amount),
		Date:        date,
		Description: strings.TrimSpace(req.Description),
		Status:      expenseDatamodel.StatusPending,
		UserID:      owner.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.expenses = append(s.expenses, e)
	return s.withUser(e), nil
}

// visible reports whether viewer may see e: admins see everything, everyone
// else only their own.
func visible(viewer *user.User, e *expenseDatamodel.Expense) bool {
	return viewer.IsAdmin() || e.UserID == viewer.ID
}

func matches(f expenseDatamodel.ListFilter, start, end expenseDatamodel.Date, e *expenseDatamodel.Expense) bool {
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	if f.Status != "" && string(e.Status) != f.Status {
		return false
	}
	if !start.IsZero() && e.Date.Before(start) {
		return false
	}
	if !end.IsZero() && e.Date.After(end) {
		return false
	}
	return true
}

// ListExpenses returns what viewer may see under f, newest first. Date bounds
// are inclusive.
func (s *Store) ListExpenses(viewer *user.User, f expenseDatamodel.ListFilter) ([]expenseDatamodel.Expense, error) {
	var start, end expenseDatamodel.Date
	var err error
	if f.StartDate != "" {
		if start, err = expenseDatamodel.ParseDate(f.StartDate); err != nil {
			return nil, errors.NewValidationError("Invalid startDate", errors.ErrCodeInvalidDate)
		}
	}
	if f.EndDate != "" {
		if end, err = expenseDatamodel.ParseDate(f.EndDate); err != nil {
			return nil, errors.NewValidationError("Invalid endDate", errors.ErrCodeInvalidDate)
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]expenseDatamodel.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		if visible(viewer, e) && matches(f, start, end, e) {
			out = append(out, s.withUser(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[j].Date.Before(out[i].Date)
	})
	return out, nil
}

func (s *Store) find(id string) (*expenseDatamodel.Expense, bool) {
	i := slices.IndexFunc(s.expenses, func(e *expenseDatamodel.Expense) bool { return e.ID == id })
	if i < 0 {
		return nil, false
	}
	return s.expenses[i], true
}

func (s *Store) GetExpense(viewer *user.User, id string) (expenseDatamodel.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.find(id)
	if !ok || !visible(viewer, e) {
		return expenseDatamodel.Expense{}, errors.NewNotFoundError("Expense not found", errors.ErrCodeExpenseNotFound)
	}
	return s.withUser(e), nil
}

// UpdateStatus moves an expense to a new status. Approved expenses are final.
func (s *Store) UpdateStatus(id string, req expenseDatamodel.StatusUpdateRequest) (expenseDatamodel.Expense, error) {
	status, err := expenseDatamodel.ParseStatus(string(req.Status))
	if err != nil {
		return expenseDatamodel.Expense{}, errors.NewValidationError("Invalid status", errors.ErrCodeInvalidStatus)
	}
	if status.RequiresRemarks() && strings.TrimSpace(req.Remarks) == "" {
		return expenseDatamodel.Expense{}, errors.NewValidationError("Remarks are required", errors.ErrCodeRemarksRequired)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.find(id)
	if !ok {
		return expenseDatamodel.Expense{}, errors.NewNotFoundError("Expense not found", errors.ErrCodeExpenseNotFound)
	}
	if e.Status == expenseDatamodel.StatusApproved {
		return expenseDatamodel.Expense{}, errors.NewConflictError("Expense is already approved", errors.ErrCodeTransitionClosed)
	}

	e.Status = status
	e.Remarks = req.Remarks
	e.UpdatedAt = s.now().UTC()
	return s.withUser(e), nil
}

// Analytics aggregates every expense by category, month and status. Lists
// are ordered by key so responses are stable.
func (s *Store) Analytics() analyticsDatamodel.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byCategory := make(map[string]decimal.Decimal)
	byMonth := make(map[string]decimal.Decimal)
	byStatus := make(map[string]int)
	for _, e := range s.expenses {
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
		month := e.Date.MonthKey()
		byMonth[month] = byMonth[month].Add(e.Amount)
		byStatus[string(e.Status)]++
	}

	snap := analyticsDatamodel.Snapshot{
		ByCategory: make([]analyticsDatamodel.CategorySum, 0, len(byCategory)),
		ByMonth:    make([]analyticsDatamodel.MonthTotal, 0, len(byMonth)),
		ByStatus:   make([]analyticsDatamodel.StatusCount, 0, len(byStatus)),
	}
	for _, c := range sortedKeys(byCategory) {
		snap.ByCategory = append(snap.ByCategory, analyticsDatamodel.NewCategorySum(c, byCategory[c]))
	}
	for _, m := range sortedKeys(byMonth) {
		snap.ByMonth = append(snap.ByMonth, analyticsDatamodel.MonthTotal{Month: m, Total: byMonth[m]})
	}
	for _, st := range sortedKeys(byStatus) {
		snap.ByStatus = append(snap.ByStatus, analyticsDatamodel.NewStatusCount(st, byStatus[st]))
	}
	return snap
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
