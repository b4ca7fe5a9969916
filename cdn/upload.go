package cdn

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// ServiceName is recorded on blobs stored through Cloudinary.
const ServiceName = "cloudinary"

// ErrNotConfigured is returned by uploads when no CDN credentials are set.
var ErrNotConfigured = errors.New("cdn: uploads are not configured")

// Uploaded describes a stored object.
type Uploaded struct {
	Key   string
	Bytes int64
}

// Uploader stores and removes photo objects.
type Uploader interface {
	Upload(ctx context.Context, p Prepared) (Uploaded, error)
	Destroy(ctx context.Context, key string) error
}

// Cloudinary uploads to a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary configures an uploader from a cloudinary:// URL
// (cloudinary://<key>:<secret>@<cloud>). Objects go under folder.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config: %w", err)
	}
	return &Cloudinary{cld: cld, folder: folder}, nil
}

// CloudName returns the account's cloud name, used for delivery URLs.
func (c *Cloudinary) CloudName() string {
	return c.cld.Config.Cloud.CloudName
}

// Upload sends p under a random public id and returns the stored key
// (folder/id).
func (c *Cloudinary) Upload(ctx context.Context, p Prepared) (Uploaded, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(p.Data), uploader.UploadParams{
		PublicID:     uuid.NewString(),
		Folder:       c.folder,
		ResourceType: "image",
	})
	if err != nil {
		return Uploaded{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return Uploaded{}, fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	n := int64(res.Bytes)
	if n == 0 {
		n = int64(len(p.Data))
	}
	return Uploaded{Key: res.PublicID, Bytes: n}, nil
}

// Destroy deletes the object stored under key.
func (c *Cloudinary) Destroy(ctx context.Context, key string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: key})
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", key, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy %s: %s", key, res.Error.Message)
	}
	return nil
}

// Disabled is the Uploader used when no CDN is configured. Uploads fail with
// ErrNotConfigured; destroys are no-ops.
type Disabled struct{}

func (Disabled) Upload(context.Context, Prepared) (Uploaded, error) {
	return Uploaded{}, ErrNotConfigured
}

func (Disabled) Destroy(context.Context, string) error { return nil }

var (
	_ Uploader = (*Cloudinary)(nil)
	_ Uploader = Disabled{}
)
