package form

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/domain"
)

// UserBackend is the slice of the backend the user modal calls.
type UserBackend interface {
	AddUser(ctx context.Context, in backend.UserInput) error
	UpdateUser(ctx context.Context, id domain.ID, in backend.UserInput) error
	DeleteUser(ctx context.Context, id domain.ID) error
	ManagerEmails(ctx context.Context) ([]string, error)
}

// UserFields are the inputs of the user modal.
type UserFields struct {
	Name         string      `validate:"notblank"`
	Age          int         `validate:"gte=0"`
	Email        string      `validate:"required,email"`
	Password     string      `validate:"required"`
	Role         domain.Role `validate:"oneof=Manager Employee"`
	ManagerEmail string      `validate:"required_if=Role Employee"`
}

var userMessages = map[string]string{
	"Name":         "Name is required.",
	"Age":          "Age cannot be negative.",
	"Email":        "A valid email is required.",
	"Password":     "Password is required.",
	"Role":         "Role must be Manager or Employee.",
	"ManagerEmail": "Please select a manager.",
}

// UserForm is the admin's user modal.
type UserForm struct {
	backend   UserBackend
	onSuccess RefreshFunc
	logger    *slog.Logger

	mu       sync.Mutex
	mode     Mode
	id       domain.ID
	fields   UserFields
	locked   UserFields
	managers []string
}

// NewUserForm creates a closed user modal.
func NewUserForm(b UserBackend, onSuccess RefreshFunc, logger *slog.Logger) *UserForm {
	if logger == nil {
		logger = slog.Default()
	}
	if onSuccess == nil {
		onSuccess = func(context.Context) {}
	}
	return &UserForm{backend: b, onSuccess: onSuccess, logger: logger}
}

// OpenCreate opens the modal with blank defaults.
func (f *UserForm) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = Create
	f.id = ""
	f.fields = UserFields{}
	f.locked = UserFields{}
}

// OpenEdit opens the modal pre-filled from u. The password starts blank and
// email, role, password and manager email cannot be changed.
func (f *UserForm) OpenEdit(u domain.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = Edit
	f.id = u.ID
	f.fields = UserFields{
		Name:         u.Name,
		Age:          u.Age,
		Email:        u.Email,
		Role:         u.Role,
		ManagerEmail: u.ManagerEmail,
	}
	f.locked = f.fields
}

// Close resets the modal to blank defaults.
func (f *UserForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close()
}

func (f *UserForm) close() {
	f.mode = Closed
	f.id = ""
	f.fields = UserFields{}
	f.locked = UserFields{}
}

func (f *UserForm) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode != Closed
}

func (f *UserForm) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// EditingID is the id of the user being edited, empty otherwise.
func (f *UserForm) EditingID() domain.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *UserForm) Fields() UserFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Edit applies change to the inputs. Locked inputs keep their values in
// edit mode.
func (f *UserForm) Edit(change func(*UserFields)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == Closed {
		return
	}
	change(&f.fields)
	if f.mode == Edit {
		f.fields.Email = f.locked.Email
		f.fields.Role = f.locked.Role
		f.fields.Password = f.locked.Password
		f.fields.ManagerEmail = f.locked.ManagerEmail
	}
}

// ManagerSelectorVisible reports whether the manager picker is shown.
func (f *UserForm) ManagerSelectorVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields.Role == domain.RoleEmployee
}

// LoadManagerEmails fetches the manager picker options. Failures leave the
// list unchanged.
func (f *UserForm) LoadManagerEmails(ctx context.Context) {
	emails, err := f.backend.ManagerEmails(ctx)
	if err != nil {
		f.logger.Debug("manager emails unavailable", slog.String("error", err.Error()))
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.managers = emails
}

func (f *UserForm) ManagerEmails() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.managers...)
}

// Submit validates and sends the modal. Accepted writes close the modal and
// trigger a refresh; rejected writes leave it open.
func (f *UserForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	mode, id, fields := f.mode, f.id, f.fields
	f.mu.Unlock()

	var err error
	switch mode {
	case Create:
		err = firstFailure(validate.Struct(fields), userMessages)
	case Edit:
		err = firstFailure(validate.StructPartial(fields, "Name", "Age"), userMessages)
	case Closed:
		return ErrClosed
	default:
		return ErrClosed
	}
	if err != nil {
		return err
	}

	in := backend.UserInput{
		Name:     fields.Name,
		Age:      fields.Age,
		Email:    fields.Email,
		Password: fields.Password,
		Role:     fields.Role,
	}
	if fields.Role == domain.RoleEmployee {
		in.ManagerEmail = fields.ManagerEmail
	}

	if mode == Create {
		err = f.backend.AddUser(ctx, in)
	} else {
		err = f.backend.UpdateUser(ctx, id, in)
	}
	if err != nil {
		return err
	}

	f.finish(ctx, mode, id)
	return nil
}

// Delete removes the user being edited after confirmation.
func (f *UserForm) Delete(ctx context.Context, c Confirmer) error {
	f.mu.Lock()
	mode, id := f.mode, f.id
	f.mu.Unlock()

	if mode != Edit || id == "" {
		return ErrNotEditing
	}
	if !c.Confirm("Are you sure you want to delete this user?") {
		return ErrNotConfirmed
	}
	if err := f.backend.DeleteUser(ctx, id); err != nil {
		return err
	}
	f.finish(ctx, mode, id)
	return nil
}

// finish closes the modal unless it was reopened meanwhile, then refreshes.
func (f *UserForm) finish(ctx context.Context, mode Mode, id domain.ID) {
	f.mu.Lock()
	if f.mode == mode && f.id == id {
		f.close()
	}
	f.mu.Unlock()
	f.onSuccess(ctx)
}
