package backend

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"

	"github.com/yourorg/orderdesk/internal/domain"
)

// Upload is an image file attached to a product form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ProductInput is the body of product add and update calls. At most one of
// Image and ImageURL is sent; neither keeps the current image on update.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Image       *Upload
	ImageURL    string
}

// ListProducts fetches the catalog.
func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := c.get(ctx, "list_products", "/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// AddProduct creates a product with a multipart body.
func (c *Client) AddProduct(ctx context.Context, in ProductInput) error {
	return c.sendProduct(ctx, "add_product", http.MethodPost, "/api/products/add", in)
}

// UpdateProduct updates the product with the given id with a multipart body.
func (c *Client) UpdateProduct(ctx context.Context, id domain.ID, in ProductInput) error {
	return c.sendProduct(ctx, "update_product", http.MethodPut, pathID("/api/products/update/", id.String()), in)
}

// DeleteProduct deletes the product with the given id.
func (c *Client) DeleteProduct(ctx context.Context, id domain.ID) error {
	return c.delete(ctx, "delete_product", pathID("/api/products/delete/", id.String()))
}

func (c *Client) sendProduct(ctx context.Context, op, method, path string, in ProductInput) error {
	body, contentType, err := encodeProduct(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, call{
		op:          op,
		method:      method,
		path:        path,
		body:        body,
		contentType: contentType,
		withToken:   true,
	})
}

func encodeProduct(in ProductInput) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", in.Name},
		{"description", in.Description},
		{"price", strconv.FormatFloat(in.Price, 'f', -1, 64)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	switch {
	case in.Image != nil:
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="image_src"; filename=%q`, in.Image.Filename))
		contentType := in.Image.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(in.Image.Data); err != nil {
			return nil, "", err
		}
	case in.ImageURL != "":
		if err := mw.WriteField("image_src", in.ImageURL); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
