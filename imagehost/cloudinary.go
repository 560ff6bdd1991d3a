package imagehost

import (
	"context"
	"errors"
	"fmt"

	"school-directory/config"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores images in a Cloudinary folder.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds a Cloudinary uploader. Missing credentials are not an
// error here; every Upload reports ErrMissingCredentials instead, so the
// listing endpoint keeps working on a half-configured deployment.
func NewCloudinary(cfg config.ImageConfig) (*Cloudinary, error) {
	c := &Cloudinary{folder: cfg.Folder}
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return c, nil
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary client: %w", err)
	}
	c.cld = cld
	return c, nil
}

func (c *Cloudinary) Upload(ctx context.Context, u Upload) (Image, error) {
	if c.cld == nil {
		return Image{}, ErrMissingCredentials
	}
	res, err := c.cld.Upload.Upload(ctx, u.Body, uploader.UploadParams{
		PublicID:     u.Name,
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return Image{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Image{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return Image{}, errors.New("cloudinary upload: response has no secure_url")
	}
	return Image{PublicID: res.PublicID, URL: res.SecureURL}, nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicID string) error {
	if c.cld == nil {
		return ErrMissingCredentials
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
