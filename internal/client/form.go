package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/imrishuroy/go-purchase-intake/internal/validation"
)

// Status is the submission state of a Form.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

var (
	ErrNoLineItems        = errors.New("at least one product is required")
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrIndexOutOfRange    = errors.New("line item index out of range")
)

// Default delays before the form resets itself.
const (
	DefaultSuccessDelay     = time.Second
	DefaultSoftFailureDelay = 5 * time.Second
)

// Fields are the requester fields of the form.
type Fields struct {
	Name          string
	Position      string
	Department    string
	Site          string
	RequestType   string
	Justification string
}

// Form is the client side of a purchase request: the line items being
// composed, the requester fields and the submission state machine.
//
// idle -> loading -> success -> (timer) -> idle, then navigate to the
// confirmation view. loading -> error stays put unless the server recorded
// the request locally, in which case a longer timer resets to idle.
type Form struct {
	api      Submitter
	notifier Notifier
	nav      Navigator
	session  SessionStore
	v        *validatorv10.Validate
	nowFunc  func() time.Time

	successDelay     time.Duration
	softFailureDelay time.Duration

	mu      sync.Mutex
	items   []validation.LineItem
	draft   validation.LineItem
	fields  Fields
	status  Status
	lastErr error
	gen     uint64 // bumped to invalidate a pending reset
	timer   *time.Timer
}

// FormOption configures a Form.
type FormOption func(*Form)

func WithNotifier(n Notifier) FormOption    { return func(f *Form) { f.notifier = n } }
func WithNavigator(n Navigator) FormOption  { return func(f *Form) { f.nav = n } }
func WithSession(s SessionStore) FormOption { return func(f *Form) { f.session = s } }

// WithResetDelays overrides the success and soft failure reset delays.
func WithResetDelays(success, softFailure time.Duration) FormOption {
	return func(f *Form) {
		f.successDelay = success
		f.softFailureDelay = softFailure
	}
}

// WithFormClock overrides time.Now for the confirmation date.
func WithFormClock(now func() time.Time) FormOption {
	return func(f *Form) { f.nowFunc = now }
}

// NewForm returns an idle, empty form submitting through api.
func NewForm(api Submitter, opts ...FormOption) *Form {
	f := &Form{
		api:              api,
		notifier:         discard{},
		nav:              discard{},
		session:          NewMemorySession(),
		v:                validation.New(),
		nowFunc:          time.Now,
		successDelay:     DefaultSuccessDelay,
		softFailureDelay: DefaultSoftFailureDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SetDraft fills the item entry fields.
func (f *Form) SetDraft(name, quantity, specification string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft = validation.LineItem{Name: name, Quantity: quantity, Specification: specification}
}

// Draft returns the item entry fields.
func (f *Form) Draft() validation.LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// AddDraft adds the current draft as a line item.
func (f *Form) AddDraft() error {
	d := f.Draft()
	return f.AddLineItem(d.Name, d.Quantity, d.Specification)
}

// AddLineItem validates and appends one item, then clears the draft.
func (f *Form) AddLineItem(name, quantity, specification string) error {
	item := validation.LineItem{Name: name, Quantity: quantity, Specification: specification}
	if err := validation.CheckLineItem(f.v, item); err != nil {
		f.notifier.Notify(Notice{Level: LevelError, Title: "Invalid product data", Message: err.Error()})
		return err
	}

	f.mu.Lock()
	f.items = append(f.items, item)
	f.draft = validation.LineItem{}
	f.mu.Unlock()

	f.notifier.Notify(Notice{
		Level:   LevelInfo,
		Title:   "Product added",
		Message: fmt.Sprintf("%s has been added to your request.", item.Name),
	})
	return nil
}

// RemoveLineItem drops the item at index.
func (f *Form) RemoveLineItem(index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if index < 0 || index >= len(f.items) {
		return ErrIndexOutOfRange
	}
	f.items = append(f.items[:index:index], f.items[index+1:]...)
	return nil
}

// LineItems returns a copy of the items composed so far.
func (f *Form) LineItems() []validation.LineItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]validation.LineItem, len(f.items))
	copy(out, f.items)
	return out
}

// Fields returns the requester fields of the last submission attempt.
func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// Err returns the error of the last failed submission, if the form is in the
// error state.
func (f *Form) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != StatusError {
		return nil
	}
	return f.lastErr
}

// Submit sends the request. It makes exactly one network call and returns
// its error, if any. Timed resets happen in the background.
func (f *Form) Submit(ctx context.Context, fields Fields) error {
	f.mu.Lock()
	if f.status == StatusLoading {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}
	if len(f.items) == 0 {
		f.mu.Unlock()
		f.notifier.Notify(Notice{
			Level:   LevelError,
			Title:   "No products",
			Message: "Please add at least one product before submitting",
		})
		return ErrNoLineItems
	}

	req := validation.PurchaseRequest{
		Name:          fields.Name,
		Position:      fields.Position,
		Department:    fields.Department,
		Site:          fields.Site,
		RequestType:   fields.RequestType,
		Justification: fields.Justification,
		Products:      make([]validation.LineItem, len(f.items)),
	}
	copy(req.Products, f.items)
	f.fields = fields

	if err := validation.Check(f.v, req); err != nil {
		f.mu.Unlock()
		f.notifier.Notify(Notice{Level: LevelError, Title: "Incomplete request", Message: err.Error()})
		return err
	}

	f.cancelResetLocked()
	f.status = StatusLoading
	f.lastErr = nil
	gen := f.gen
	f.mu.Unlock()

	resp, err := f.api.SubmitPurchaseRequest(ctx, req)
	if err != nil {
		f.fail(gen, err)
		return err
	}
	f.succeed(gen, req, resp)
	return nil
}

func (f *Form) succeed(gen uint64, req validation.PurchaseRequest, resp *SubmitResponse) {
	f.mu.Lock()
	f.status = StatusSuccess
	f.mu.Unlock()

	if err := f.session.Save(Confirmation{
		Name:     req.Name,
		Date:     f.nowFunc().Format("2 January 2006, 03:04 PM"),
		Products: req.Products,
	}); err != nil {
		f.notifier.Notify(Notice{Level: LevelWarning, Title: "Confirmation unavailable", Message: err.Error()})
	}

	msg := "Purchase request submitted successfully."
	if resp != nil && resp.Message != "" {
		msg = resp.Message
	}
	f.notifier.Notify(Notice{Level: LevelSuccess, Title: "Success!", Message: msg})

	f.mu.Lock()
	if f.gen == gen {
		f.scheduleResetLocked(f.successDelay, true)
	}
	f.mu.Unlock()
}

func (f *Form) fail(gen uint64, err error) {
	var apiErr *APIError
	soft := errors.As(err, &apiErr) && apiErr.RecordedLocally()

	f.mu.Lock()
	f.status = StatusError
	f.lastErr = err
	f.mu.Unlock()

	level := LevelError
	if soft {
		level = LevelWarning
	}
	f.notifier.Notify(Notice{Level: level, Title: "Request status", Message: err.Error()})

	if soft {
		f.mu.Lock()
		if f.gen == gen {
			f.scheduleResetLocked(f.softFailureDelay, false)
		}
		f.mu.Unlock()
	}
}

// scheduleResetLocked arms the reset timer for the current generation.
// f.mu must be held.
func (f *Form) scheduleResetLocked(delay time.Duration, navigate bool) {
	gen := f.gen
	f.timer = time.AfterFunc(delay, func() {
		f.mu.Lock()
		if f.gen != gen {
			f.mu.Unlock()
			return
		}
		f.items = nil
		f.draft = validation.LineItem{}
		f.fields = Fields{}
		f.status = StatusIdle
		f.lastErr = nil
		f.timer = nil
		f.mu.Unlock()

		if navigate {
			f.nav.Navigate(ConfirmationPath)
		}
	})
}

// cancelResetLocked stops any pending reset. f.mu must be held.
func (f *Form) cancelResetLocked() {
	f.gen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
