package folio

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/folio-cms/folio/auth"
	"github.com/folio-cms/folio/content"
)

const maxReorder = 1000

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type reorderRequest struct {
	OrderedIDs []string `json:"orderedIds"`
}

type notesBody struct {
	Notes string `json:"notes"`
}

type success struct {
	Success bool `json:"success"`
}

func (a *App) apiLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	token, s, err := a.Gate.Login(c.Request().Context(), auth.Attempt{
		Email:    req.Email,
		Password: req.Password,
		IP:       c.RealIP(),
	})
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return a.apiError(c, http.StatusUnauthorized, "invalid credentials", nil)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"token":     token,
		"expiresAt": s.ExpiresAt,
	})
}

func (a *App) apiAdminListPosts(c echo.Context) error {
	posts, err := a.Store.ListPosts(c.Request().Context(), content.Filter{IncludeDrafts: true, Limit: maxAdminPosts})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, posts)
}

func (a *App) apiAdminGetPost(c echo.Context) error {
	id, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := a.Store.GetPost(ctx, id)
	if err != nil {
		return err
	}
	photos, err := a.Store.ListPhotos(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presentAdminPost(p, photos, a.URLs))
}

func (a *App) apiCreatePost(c echo.Context) error {
	var in content.PostInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	p, err := a.Store.CreatePost(c.Request().Context(), in)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "create_post", p.ID)
	return c.JSON(http.StatusCreated, presentAdminPost(p, nil, a.URLs))
}

func (a *App) apiUpdatePost(c echo.Context) error {
	id, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	var in content.PostInput
	if err := c.Bind(&in); err != nil {
		return err
	}
	ctx := c.Request().Context()
	p, err := a.Store.UpdatePost(ctx, id, in)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "update_post", id)
	photos, err := a.Store.ListPhotos(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, presentAdminPost(p, photos, a.URLs))
}

func (a *App) apiDeletePost(c echo.Context) error {
	id, err := content.ParseID(c.Param("id"))
	if err != nil {
		return err
	}
	orphans, err := a.Store.DeletePost(c.Request().Context(), id)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()
	a.logAction(c, "delete_post", id)
	a.destroyBlobs(c, orphans)
	return c.JSON(http.StatusOK, success{true})
}

func (a *App) apiReorderPosts(c echo.Context) error {
	var req reorderRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if n := len(req.OrderedIDs); n == 0 || n > maxReorder {
		return fmt.Errorf("%w: orderedIds must hold 1 to %d ids", content.ErrValidation, maxReorder)
	}
	ids, err := content.ParseIDs(req.OrderedIDs)
	if err != nil {
		return err
	}
	if err := a.Store.ReorderPosts(c.Request().Context(), ids); err != nil {
		return err
	}
	a.Cache.Invalidate()
	c.Logger().Infoj(log.JSON{
		"action": "reorder_posts",
		"count":  len(ids),
		"userId": idString(currentSession(c).UserID),
	})
	return c.JSON(http.StatusOK, success{true})
}

func (a *App) apiExport(c echo.Context) error {
	md, err := a.Store.ExportMarkdown(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"markdown": md})
}

func (a *App) apiGetNotes(c echo.Context) error {
	notes, err := a.Store.GetSetting(c.Request().Context(), content.NotesKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notesBody{Notes: notes})
}

func (a *App) apiSetNotes(c echo.Context) error {
	var body notesBody
	if err := c.Bind(&body); err != nil {
		return err
	}
	if err := a.Store.SetSetting(c.Request().Context(), content.NotesKey, body.Notes); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, success{true})
}

// logAction records an admin write against a post.
func (a *App) logAction(c echo.Context, action string, postID int64) {
	c.Logger().Infoj(log.JSON{
		"action": action,
		"postId": idString(postID),
		"userId": idString(currentSession(c).UserID),
	})
}
