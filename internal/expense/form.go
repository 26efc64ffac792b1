package expense

import (
	"context"
	"log/slog"
	"sync"
	"time"

	errors "github.com/frahmantamala/expense-client/internal"
)

type FeedbackKind string

const (
	FeedbackSuccess FeedbackKind = "success"
	FeedbackError   FeedbackKind = "error"
)

// Feedback is the transient banner above the form.
type Feedback struct {
	Kind    FeedbackKind
	Message string
}

// Creator submits a new expense.
type Creator interface {
	Create(ctx context.Context, req CreateRequest) (*Expense, error)
}

// SubmissionForm is the state behind the "Add Expense" form. Banners clear
// themselves after ttl.
type SubmissionForm struct {
	mu         sync.Mutex
	fields     SubmissionDTO
	attachment *Attachment
	feedback   *Feedback
	feedbackID uint64
	timer      *time.Timer
	submitting bool

	creator    Creator
	categories func() []string
	ttl        time.Duration
	now        func() time.Time
	onSubmit   func(ctx context.Context)
	logger     *slog.Logger
}

type FormOption func(*SubmissionForm)

// WithClock replaces time.Now for the year window check.
func WithClock(now func() time.Time) FormOption {
	return func(f *SubmissionForm) { f.now = now }
}

// OnSubmitted runs after every successful submission, typically to refresh the list.
func OnSubmitted(fn func(ctx context.Context)) FormOption {
	return func(f *SubmissionForm) { f.onSubmit = fn }
}

func NewSubmissionForm(creator Creator, categories func() []string, ttl time.Duration, logger *slog.Logger, opts ...FormOption) *SubmissionForm {
	if ttl <= 0 {
		ttl = errors.DefaultFeedbackTTL
	}
	f := &SubmissionForm{
		creator:    creator,
		categories: categories,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *SubmissionForm) Fields() SubmissionDTO {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *SubmissionForm) SetFields(d SubmissionDTO) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = d
}

func (f *SubmissionForm) Attachment() *Attachment {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachment == nil {
		return nil
	}
	a := *f.attachment
	return &a
}

// Attach replaces the attachment; nil removes it.
func (f *SubmissionForm) Attach(a *Attachment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attachment = a
}

// Feedback returns the current banner, or nil once it has expired.
func (f *SubmissionForm) Feedback() *Feedback {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.feedback == nil {
		return nil
	}
	fb := *f.feedback
	return &fb
}

func (f *SubmissionForm) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

// Reset empties fields and attachment, as closing the form does.
func (f *SubmissionForm) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = SubmissionDTO{}
	f.attachment = nil
}

// Close stops the pending banner timer.
func (f *SubmissionForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

func (f *SubmissionForm) setFeedbackLocked(kind FeedbackKind, message string) {
	if f.timer != nil {
		f.timer.Stop()
	}
	f.feedbackID++
	id := f.feedbackID
	f.feedback = &Feedback{Kind: kind, Message: message}
	f.timer = time.AfterFunc(f.ttl, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		// a newer banner owns the slot
		if f.feedbackID == id {
			f.feedback = nil
		}
	})
}

// Submit validates and posts the form. Validation failures never reach the
// network. The returned expense is nil on any failure.
func (f *SubmissionForm) Submit(ctx context.Context) (*Expense, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, errors.NewConflictError("submission already in progress", errors.ErrCodeSubmissionInFlight)
	}
	f.feedback = nil
	fields := f.fields

	if err := fields.Validate(f.categories(), f.now()); err != nil {
		if appErr, ok := errors.IsAppError(err); ok {
			f.setFeedbackLocked(FeedbackError, appErr.DisplayMessage())
		}
		f.mu.Unlock()
		return nil, err
	}
	req, err := fields.Request()
	if err != nil {
		f.mu.Unlock()
		return nil, errors.NewValidationError("Amount must be a valid positive number", errors.ErrCodeInvalidAmount)
	}
	f.submitting = true
	f.mu.Unlock()

	exp, err := f.creator.Create(ctx, req)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		f.setFeedbackLocked(FeedbackError, MsgSubmitFailed)
		f.mu.Unlock()
		return nil, err
	}
	f.setFeedbackLocked(FeedbackSuccess, MsgSubmitted)
	f.fields = SubmissionDTO{}
	f.attachment = nil
	onSubmit := f.onSubmit
	f.mu.Unlock()

	if onSubmit != nil {
		onSubmit(ctx)
	}
	return exp, nil
}
