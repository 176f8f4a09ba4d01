package form

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yourorg/orderdesk/internal/backend"
	"github.com/yourorg/orderdesk/internal/domain"
)

// ProductBackend is the slice of the backend the product modal calls.
type ProductBackend interface {
	AddProduct(ctx context.Context, in backend.ProductInput) error
	UpdateProduct(ctx context.Context, id domain.ID, in backend.ProductInput) error
	DeleteProduct(ctx context.Context, id domain.ID) error
}

// ProductFields are the inputs of the product modal. Image is a new upload;
// ImageURL is a link to an existing image. CurrentImage is display only.
type ProductFields struct {
	Name         string  `validate:"notblank"`
	Description  string  `validate:"notblank"`
	Price        float64 `validate:"gt=0"`
	Image        *backend.Upload
	ImageURL     string
	CurrentImage string
}

var productMessages = map[string]string{
	"Name":        "Product name is required.",
	"Description": "Description is required.",
	"Price":       "Price must be greater than zero.",
}

const missingImage = "Please upload an image."

// ProductForm is the product modal shared by the admin and manager pages.
type ProductForm struct {
	backend   ProductBackend
	onSuccess RefreshFunc
	logger    *slog.Logger

	mu     sync.Mutex
	mode   Mode
	id     domain.ID
	fields ProductFields
}

// NewProductForm creates a closed product modal.
func NewProductForm(b ProductBackend, onSuccess RefreshFunc, logger *slog.Logger) *ProductForm {
	if logger == nil {
		logger = slog.Default()
	}
	if onSuccess == nil {
		onSuccess = func(context.Context) {}
	}
	return &ProductForm{backend: b, onSuccess: onSuccess, logger: logger}
}

func (f *ProductForm) OpenCreate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = Create
	f.id = ""
	f.fields = ProductFields{}
}

// OpenEdit opens the modal pre-filled from p. Leaving the image untouched
// keeps the stored one.
func (f *ProductForm) OpenEdit(p domain.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = Edit
	f.id = p.ID
	f.fields = ProductFields{
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		CurrentImage: p.ImageRef,
	}
}

func (f *ProductForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.close()
}

func (f *ProductForm) close() {
	f.mode = Closed
	f.id = ""
	f.fields = ProductFields{}
}

func (f *ProductForm) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode != Closed
}

func (f *ProductForm) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

func (f *ProductForm) EditingID() domain.ID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.id
}

func (f *ProductForm) Fields() ProductFields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

// Edit applies change to the inputs. A negative price is clamped to zero.
func (f *ProductForm) Edit(change func(*ProductFields)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == Closed {
		return
	}
	current := f.fields.CurrentImage
	change(&f.fields)
	f.fields.CurrentImage = current
	if f.fields.Price < 0 {
		f.fields.Price = 0
	}
}

// Submit validates and sends the modal as multipart form data.
func (f *ProductForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	mode, id, fields := f.mode, f.id, f.fields
	f.mu.Unlock()

	if mode != Create && mode != Edit {
		return ErrClosed
	}
	if err := firstFailure(validate.Struct(fields), productMessages); err != nil {
		return err
	}
	if mode == Create && fields.Image == nil && fields.ImageURL == "" {
		return &ValidationError{Field: "Image", Message: missingImage}
	}

	in := backend.ProductInput{
		Name:        fields.Name,
		Description: fields.Description,
		Price:       fields.Price,
		Image:       fields.Image,
		ImageURL:    fields.ImageURL,
	}

	var err error
	if mode == Create {
		err = f.backend.AddProduct(ctx, in)
	} else {
		err = f.backend.UpdateProduct(ctx, id, in)
	}
	if err != nil {
		f.logger.Info("product write rejected",
			slog.String("mode", mode.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	f.finish(ctx, mode, id)
	return nil
}

// Delete removes the product being edited after confirmation.
func (f *ProductForm) Delete(ctx context.Context, c Confirmer) error {
	f.mu.Lock()
	mode, id := f.mode, f.id
	f.mu.Unlock()

	if mode != Edit || id == "" {
		return ErrNotEditing
	}
	if !c.Confirm("Are you sure you want to delete this product?") {
		return ErrNotConfirmed
	}
	if err := f.backend.DeleteProduct(ctx, id); err != nil {
		return err
	}
	f.finish(ctx, mode, id)
	return nil
}

func (f *ProductForm) finish(ctx context.Context, mode Mode, id domain.ID) {
	f.mu.Lock()
	if f.mode == mode && f.id == id {
		f.close()
	}
	f.mu.Unlock()
	f.onSuccess(ctx)
}
