// Package imagehost stores uploaded school images with a remote provider and
// hands back a public URL for them.
package imagehost

import (
	"context"
	"errors"
	"fmt"
	"io"

	"school-directory/config"
)

// ErrMissingCredentials is returned by Upload when the provider was configured
// without credentials.
var ErrMissingCredentials = errors.New("image host credentials are not configured")

// Upload is a single image to store.
type Upload struct {
	// Name is the object name without folder or extension.
	Name        string
	Extension   string
	ContentType string
	Body        io.Reader
	// Size is the expected body length; zero means unknown. Backends that
	// declare a content length reject a body of a different length.
	Size int64
}

// Image identifies a stored image.
type Image struct {
	PublicID string
	URL      string
}

// Uploader is implemented by every image provider.
type Uploader interface {
	Upload(ctx context.Context, u Upload) (Image, error)
	Delete(ctx context.Context, publicID string) error
}

// New returns the uploader selected by cfg.Host.
func New(cfg config.ImageConfig) (Uploader, error) {
	switch cfg.Host {
	case config.ImageHostCloudinary:
		return NewCloudinary(cfg)
	case config.ImageHostS3:
		return NewS3(cfg)
	default:
		return nil, fmt.Errorf("unknown image host %q", cfg.Host)
	}
}
