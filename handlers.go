package folio

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
)

const defaultRobots = "User-agent: *\nAllow: /\nDisallow: /admin/\nDisallow: /api/admin/\n"

func (a *App) site() Site {
	return Site{Name: a.Config.Name, URL: a.Config.URL, Description: a.Config.Description}
}

func featuredParam(c echo.Context) bool {
	v := c.QueryParam("featured")
	return v == "1" || v == "true"
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := c.QueryParam("tag")
	projects, err := a.Cache.List(ctx, tag, featuredParam(c))
	if err != nil {
		return err
	}
	tags, err := a.Cache.Tags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(a.site(), projects, tag, tags))
}

func (a *App) handleProject(c echo.Context) error {
	ctx := c.Request().Context()
	project, err := a.Cache.Get(ctx, c.Param("slug"))
	if err != nil {
		return err
	}
	all, err := a.Cache.List(ctx, "", false)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Project(a.site(), project, FilterRelatedProjects(project, all)))
}

func (a *App) apiListProjects(c echo.Context) error {
	projects, err := a.Cache.List(c.Request().Context(), c.QueryParam("tag"), featuredParam(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

func (a *App) apiGetProject(c echo.Context) error {
	project, err := a.Cache.Get(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

func (a *App) apiListTags(c echo.Context) error {
	tags, err := a.Cache.Tags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tags)
}

func (a *App) handleFeed(c echo.Context) error {
	projects, err := a.Cache.List(c.Request().Context(), "", false)
	if err != nil {
		return err
	}
	return a.renderRSS(c, projects)
}

// handleRobots serves robots.txt from the static directory when present.
func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, defaultRobots)
}
