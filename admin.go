package folio

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/folio-cms/folio/auth"
	"github.com/folio-cms/folio/content"
)

const maxAdminPosts = 500

func (a *App) handleAdmin(c echo.Context) error {
	if _, err := a.adminSession(c); err != nil {
		return Render(c, a.Views.AdminLogin(false, CsrfToken(c)))
	}
	return a.renderAdminDashboard(c)
}

func (a *App) handleAdminLogin(c echo.Context) error {
	if ok, resetIn := a.allow(c, a.loginLimiter, c.RealIP()); !ok {
		c.Response().Header().Set("Retry-After", strconv.Itoa(resetIn))
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	token, _, err := a.Gate.Login(c.Request().Context(), auth.Attempt{
		Email:    c.FormValue("email"),
		Password: c.FormValue("password"),
		IP:       c.RealIP(),
	})
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return RenderStatus(c, http.StatusUnauthorized, a.Views.AdminLogin(true, CsrfToken(c)))
	}
	if err != nil {
		return err
	}
	if err := setAdminSession(c, token); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) renderAdminDashboard(c echo.Context) error {
	ctx := c.Request().Context()
	posts, err := a.Store.ListPosts(ctx, content.Filter{IncludeDrafts: true, Limit: maxAdminPosts})
	if err != nil {
		return err
	}
	notes, err := a.Store.GetSetting(ctx, content.NotesKey)
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, notes, CsrfToken(c)))
}
