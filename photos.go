package folio

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
)

type photoOrderRequest struct {
	BlobIDs []string `json:"blobIds"`
}

// apiUploadPhoto prepares the multipart "file" field, stores it on the CDN
// and only then records the blob and attachment, so a failed upload leaves
// no rows behind.
func (a *App) apiUploadPhoto(c echo.Context) error {
	postID, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	if _, err := a.Store.GetPost(ctx, postID); err != nil {
		return err
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: file is required", content.ErrValidation)
	}
	if file.Size > cdn.MaxUploadSize {
		return fmt.Errorf("%w: file too large (max 10MB)", content.ErrValidation)
	}
	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	prepared, err := cdn.Prepare(src, file.Filename)
	if err != nil {
		return err
	}
	up, err := a.Uploader.Upload(ctx, prepared)
	if err != nil {
		return fmt.Errorf("upload photo: %w", err)
	}

	photo, err := a.Store.AttachPhoto(ctx, postID, content.Blob{
		Key:         up.Key,
		Filename:    prepared.Filename,
		ContentType: prepared.ContentType,
		ByteSize:    up.Bytes,
		ServiceName: cdn.ServiceName,
	})
	if err != nil {
		// The post may have gone away mid-upload; drop the stored object.
		a.destroyBlobs(c, []string{up.Key})
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "upload_photo", postID)
	return c.JSON(http.StatusCreated, presentAdminPhoto(photo, a.URLs))
}

func (a *App) apiDeletePhoto(c echo.Context) error {
	postID, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	attachmentID, err := content.ParseID(c.Param("attachmentId"))
	if err != nil {
		return err
	}
	orphan, err := a.Store.DeletePhoto(c.Request().Context(), postID, attachmentID)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "delete_photo", postID)
	if orphan != "" {
		a.destroyBlobs(c, []string{orphan})
	}
	return c.JSON(http.StatusOK, success{true})
}

func (a *App) apiReorderPhotos(c echo.Context) error {
	postID, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	var req photoOrderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if n := len(req.BlobIDs); n == 0 || n > maxReorder {
		return fmt.Errorf("%w: blobIds must hold 1 to %d ids", content.ErrValidation, maxReorder)
	}
	blobIDs, err := content.ParseIDs(req.BlobIDs)
	if err != nil {
		return err
	}
	if err := a.Store.ReorderPhotos(c.Request().Context(), postID, blobIDs); err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "reorder_photos", postID)
	return c.JSON(http.StatusOK, success{true})
}

// destroyBlobs removes objects from the CDN. Failures are logged only; the
// database no longer references the keys.
func (a *App) destroyBlobs(c echo.Context, keys []string) {
	for _, key := range keys {
		if err := a.Uploader.Destroy(c.Request().Context(), key); err != nil {
			c.Logger().Warnj(log.JSON{
				"action": "destroy_blob",
				"key":    key,
				"error":  err.Error(),
			})
		}
	}
}
