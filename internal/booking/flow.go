// Package booking implements the three-step consultation booking flow:
// authenticate, pick a category with a date and time, then confirm.
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/diagnosis/concierge/internal/apierr"
	"github.com/diagnosis/concierge/internal/domain"
	"github.com/diagnosis/concierge/internal/navigation"
	"github.com/diagnosis/concierge/internal/toast"
	"github.com/diagnosis/concierge/internal/utils"
	"github.com/diagnosis/concierge/pkg/logger"
	"github.com/google/uuid"
)

type Step int

const (
	StepAuth     Step = 1
	StepCategory Step = 2
	StepConfirm  Step = 3
)

// InitialStep skips authentication for sessions that already have a user.
func InitialStep(authenticated bool) Step {
	if authenticated {
		return StepCategory
	}
	return StepAuth
}

type AuthMode string

const (
	ModeLogin    AuthMode = "login"
	ModeRegister AuthMode = "register"
)

var (
	ErrInFlight  = errors.New("booking: a request is already in flight")
	ErrWrongStep = errors.New("booking: action not allowed on this step")
	ErrCompleted = errors.New("booking: flow already submitted")
	ErrSignedOut = errors.New("booking: session is no longer authenticated")
)

// API is the part of the upstream API the flow calls.
type API interface {
	Login(ctx context.Context, email, password string) (*domain.TokenResponse, error)
	Register(ctx context.Context, in domain.RegisterRequest) (*domain.User, error)
	ListServiceCategories(ctx context.Context, f domain.CategoryFilter) ([]domain.ServiceCategory, error)
	CreateBooking(ctx context.Context, in domain.BookingCreate, idempotencyKey string) (*domain.Booking, error)
}

// Session is the auth state the flow reads and populates.
type Session interface {
	IsAuthenticated() bool
	User() *domain.User
	Establish(ctx context.Context, resp *domain.TokenResponse) (*domain.User, error)
}

// Notifier receives created bookings. Implementations must not block.
type Notifier interface {
	BookingCreated(ctx context.Context, b domain.Booking, user domain.User, category domain.ServiceCategory)
}

type Credentials struct {
	FirstName       string
	LastName        string
	Email           string
	Phone           string
	Password        string
	ConfirmPassword string
}

// Draft accumulates the selections of steps 2 and 3.
type Draft struct {
	CategoryID        string
	Date              *time.Time
	Time              string
	SpecialRequests   string
	ContactPreference string
}

type Deps struct {
	API              API
	Session          Session
	Nav              navigation.Navigator
	Toasts           toast.Notifier
	Notifier         Notifier
	ConfirmationPath string
	Location         *time.Location
	Now              func() time.Time
	NewKey           func() string
}

type Flow struct {
	mu sync.Mutex

	id         string
	step       Step
	mode       AuthMode
	creds      Credentials
	draft      Draft
	errors     map[string]string
	authError  string
	categories []domain.ServiceCategory
	submitting bool
	done       bool
	bookingID  string
	idemKey    string

	deps Deps
}

// New starts a flow at initial. Callers derive initial from the session
// with InitialStep so an authenticated visit never shows step 1.
func New(id string, initial Step, deps Deps) *Flow {
	if deps.Location == nil {
		deps.Location = time.UTC
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Toasts == nil {
		deps.Toasts = toast.NewTray()
	}
	if deps.Nav == nil {
		deps.Nav = &navigation.Recorder{}
	}
	if deps.NewKey == nil {
		deps.NewKey = func() string { return uuid.NewString() }
	}
	if initial != StepAuth {
		initial = StepCategory
	}
	return &Flow{
		id:     id,
		step:   initial,
		mode:   ModeLogin,
		errors: map[string]string{},
		draft:  Draft{ContactPreference: domain.ContactEmail},
		deps:   deps,
	}
}

func (f *Flow) ID() string { return f.id }

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Submitting is true while a login, register or booking call is in flight.
func (f *Flow) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *Flow) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyErrors(f.errors)
}

func (f *Flow) SetMode(mode AuthMode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mode != ModeRegister {
		mode = ModeLogin
	}
	if f.mode != mode {
		f.mode = mode
		f.errors = map[string]string{}
		f.authError = ""
	}
}

func (f *Flow) SetCredentials(c Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = c
}

// Preselect sets the category requested by the entry URL.
func (f *Flow) Preselect(categoryID string) {
	if categoryID == "" {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateDraft(func(d *Draft) { d.CategoryID = categoryID }, "categoryId")
}

// Selection is a partial update of the draft; nil fields are left alone.
type Selection struct {
	CategoryID        *string
	Date              *time.Time
	Time              *string
	SpecialRequests   *string
	ContactPreference *string
}

func (f *Flow) Select(sel Selection) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if sel.CategoryID != nil {
		f.updateDraft(func(d *Draft) { d.CategoryID = *sel.CategoryID }, "categoryId")
	}
	if sel.Date != nil {
		day := truncateDay(*sel.Date, f.deps.Location)
		f.updateDraft(func(d *Draft) { d.Date = &day }, "date")
	}
	if sel.Time != nil {
		f.updateDraft(func(d *Draft) { d.Time = *sel.Time }, "time")
	}
	if sel.SpecialRequests != nil {
		f.updateDraft(func(d *Draft) { d.SpecialRequests = *sel.SpecialRequests }, "specialRequests")
	}
	if sel.ContactPreference != nil {
		f.updateDraft(func(d *Draft) { d.ContactPreference = *sel.ContactPreference }, "contactPreference")
	}
}

// updateDraft applies fn, and when the draft changed clears the field's
// error and forgets the idempotency key so the next submit gets a new one.
func (f *Flow) updateDraft(fn func(*Draft), field string) {
	before := f.draft
	fn(&f.draft)
	if !sameDraft(before, f.draft) {
		f.idemKey = ""
		delete(f.errors, field)
	}
}

// LoadCategories fetches the bookable categories. A previously selected
// category that is no longer offered is cleared, and a flow waiting on
// step 3 is sent back to step 2.
func (f *Flow) LoadCategories(ctx context.Context) error {
	cats, err := f.deps.API.ListServiceCategories(ctx, domain.CategoryFilter{
		ActiveOnly:   true,
		CategoryType: domain.CategoryContactOnly,
	})
	if err != nil {
		e := apierr.Classify(apierr.OpGeneric, err)
		f.deps.Toasts.Error(apierr.Message(e))
		logger.ErrorContext(ctx, "Failed to load service categories", "flow_id", f.id, "error", err)
		return e
	}

	bookable := make([]domain.ServiceCategory, 0, len(cats))
	for i := range cats {
		if cats[i].Bookable() {
			bookable = append(bookable, cats[i])
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.categories = bookable
	if f.draft.CategoryID != "" && f.findCategory(f.draft.CategoryID) == nil {
		f.updateDraft(func(d *Draft) { d.CategoryID = "" }, "categoryId")
		if f.step == StepConfirm {
			f.step = StepCategory
		}
	}
	return nil
}

// Next advances one step. On step 1 it performs the login or register
// call; on step 2 it validates the selection.
func (f *Flow) Next(ctx context.Context) error {
	f.mu.Lock()
	step := f.step
	f.mu.Unlock()

	switch step {
	case StepAuth:
		return f.Continue(ctx)
	case StepCategory:
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.done {
			return ErrCompleted
		}
		if !f.deps.Session.IsAuthenticated() {
			f.step = StepAuth
			return ErrSignedOut
		}
		if !f.validateCategoryStep() {
			return apierr.Validation(apierr.OpBooking, copyErrors(f.errors))
		}
		f.step = StepConfirm
		return nil
	default:
		return ErrWrongStep
	}
}

// Back moves one step back without validation or clearing input. An
// authenticated flow never returns to step 1.
func (f *Flow) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting || f.done {
		return
	}
	switch f.step {
	case StepConfirm:
		f.step = StepCategory
	case StepCategory:
		if !f.deps.Session.IsAuthenticated() {
			f.step = StepAuth
		}
	}
}

// Continue runs the step 1 action for the current auth mode.
func (f *Flow) Continue(ctx context.Context) error {
	f.mu.Lock()
	if f.step != StepAuth {
		f.mu.Unlock()
		return ErrWrongStep
	}
	if f.submitting {
		f.mu.Unlock()
		return ErrInFlight
	}

	mode := f.mode
	creds := f.creds
	op := apierr.OpLogin
	if mode == ModeRegister {
		op = apierr.OpRegister
	}

	var ok bool
	if mode == ModeRegister {
		ok = f.validateRegister()
	} else {
		ok = f.validateLogin()
	}
	if !ok {
		errs := copyErrors(f.errors)
		f.mu.Unlock()
		return apierr.Validation(op, errs)
	}

	f.submitting = true
	f.authError = ""
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	err := f.authenticate(ctx, mode, creds)
	if err != nil {
		msg := apierr.Message(err)
		f.mu.Lock()
		f.authError = msg
		f.mu.Unlock()
		f.deps.Toasts.Error(msg)
		logger.WarnContext(ctx, "Booking flow authentication failed", "flow_id", f.id, "mode", string(mode), "error", err)
		return err
	}

	f.mu.Lock()
	f.step = StepCategory
	f.errors = map[string]string{}
	f.creds = Credentials{}
	f.mu.Unlock()

	if mode == ModeRegister {
		f.deps.Toasts.Success("Account created successfully")
	} else {
		f.deps.Toasts.Success("Logged in successfully")
	}
	return nil
}

func (f *Flow) authenticate(ctx context.Context, mode AuthMode, c Credentials) error {
	email := utils.NormalizeEmail(c.Email)
	op := apierr.OpLogin

	if mode == ModeRegister {
		op = apierr.OpRegister
		_, err := f.deps.API.Register(ctx, domain.RegisterRequest{
			Email:     email,
			Password:  c.Password,
			FirstName: utils.NormalizeString(c.FirstName),
			LastName:  utils.NormalizeString(c.LastName),
			Phone:     utils.NormalizePhone(c.Phone),
		})
		if err != nil {
			return apierr.Auth(op, err)
		}
	}

	resp, err := f.deps.API.Login(ctx, email, c.Password)
	if err != nil {
		return apierr.Auth(op, err)
	}

	if _, err := f.deps.Session.Establish(ctx, resp); err != nil {
		return apierr.Auth(op, err)
	}
	return nil
}

// Submit creates the booking from the confirmed draft. On failure the
// flow stays on step 3 with the draft and idempotency key intact.
func (f *Flow) Submit(ctx context.Context) (*domain.Booking, error) {
	f.mu.Lock()
	if f.done {
		f.mu.Unlock()
		return nil, ErrCompleted
	}
	if f.step != StepConfirm {
		f.mu.Unlock()
		return nil, ErrWrongStep
	}
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrInFlight
	}
	if !f.deps.Session.IsAuthenticated() {
		f.step = StepAuth
		f.mu.Unlock()
		f.deps.Toasts.Error("Please sign in to continue")
		return nil, ErrSignedOut
	}

	in, category, user, err := f.buildBooking()
	if err != nil {
		f.mu.Unlock()
		f.deps.Toasts.Error(apierr.Message(err))
		logger.ErrorContext(ctx, "Booking flow reached submit in an invalid state", "flow_id", f.id, "error", err)
		return nil, err
	}
	if f.idemKey == "" {
		f.idemKey = f.deps.NewKey()
	}
	key := f.idemKey

	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	b, err := f.deps.API.CreateBooking(ctx, in, key)
	if err != nil {
		e := apierr.Submission(err)
		f.deps.Toasts.Error(apierr.Message(e))
		logger.WarnContext(ctx, "Booking submission failed", "flow_id", f.id, "status", apierr.StatusOf(e), "error", err)
		return nil, e
	}

	f.mu.Lock()
	f.done = true
	f.bookingID = b.ID
	f.draft = Draft{ContactPreference: domain.ContactEmail}
	f.idemKey = ""
	f.mu.Unlock()

	logger.InfoContext(ctx, "Booking created", "flow_id", f.id, "booking_id", b.ID, "category_id", category.ID)

	f.deps.Toasts.Success("Booking request submitted! We'll contact you shortly.")
	if f.deps.Notifier != nil {
		f.deps.Notifier.BookingCreated(ctx, *b, *user, *category)
	}
	f.deps.Nav.Navigate(navigation.WithQuery(f.deps.ConfirmationPath, "bookingId", b.ID))
	return b, nil
}

// buildBooking assembles the create payload. Must hold f.mu.
func (f *Flow) buildBooking() (domain.BookingCreate, *domain.ServiceCategory, *domain.User, error) {
	if !f.validateCategoryStep() {
		return domain.BookingCreate{}, nil, nil, apierr.Validation(apierr.OpBooking, copyErrors(f.errors))
	}

	category := f.findCategory(f.draft.CategoryID)
	if category == nil {
		return domain.BookingCreate{}, nil, nil, apierr.Invariant(apierr.OpBooking, "selected category not loaded")
	}
	user := f.deps.Session.User()
	if user == nil || user.ID == "" {
		return domain.BookingCreate{}, nil, nil, apierr.Invariant(apierr.OpBooking, "no authenticated user")
	}

	at, err := Compose(*f.draft.Date, f.draft.Time, f.deps.Location)
	if err != nil {
		return domain.BookingCreate{}, nil, nil, apierr.Invariant(apierr.OpBooking, err.Error())
	}

	pref := f.draft.ContactPreference
	if pref == "" {
		pref = domain.ContactEmail
	}

	in := domain.BookingCreate{
		UserID:            user.ID,
		ServiceID:         category.ID,
		TierID:            nil,
		BookingDate:       at,
		Status:            domain.BookingPending,
		SpecialRequests:   strings.TrimSpace(f.draft.SpecialRequests),
		BookingType:       domain.BookingTypeConsultation,
		ContactPreference: pref,
		PaymentRequired:   true,
	}
	cat := *category
	return in, &cat, user, nil
}

func (f *Flow) findCategory(id string) *domain.ServiceCategory {
	for i := range f.categories {
		if f.categories[i].ID == id {
			return &f.categories[i]
		}
	}
	return nil
}

func truncateDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func sameDraft(a, b Draft) bool {
	if (a.Date == nil) != (b.Date == nil) {
		return false
	}
	if a.Date != nil && !a.Date.Equal(*b.Date) {
		return false
	}
	return a.CategoryID == b.CategoryID &&
		a.Time == b.Time &&
		a.SpecialRequests == b.SpecialRequests &&
		a.ContactPreference == b.ContactPreference
}

func copyErrors(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
