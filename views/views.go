// Package views holds the default page components. Each component is a
// templ.Component so sites can swap any of them in folio.ViewFuncs for their
// own templ templates.
package views

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/folio-cms/folio"
	"github.com/folio-cms/folio/content"
)

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	// Fields of folio.Project are sanitized before they reach a template.
	"sanitized": func(s string) template.HTML { return template.HTML(s) },
	"tagClass":  TagClass,
	"joinTags":  folio.JoinTags,
	"rank":      rank,
	"status":    status,
}).Parse(layout + publicPages + adminPages + errorPages))

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}

// Default returns the built-in component set.
func Default() folio.ViewFuncs {
	return folio.ViewFuncs{
		Home:           Home,
		Project:        Project,
		AdminLogin:     AdminLogin,
		AdminDashboard: AdminDashboard,
		NotFound:       NotFound,
		ServerError:    ServerError,
	}
}

type homeData struct {
	Title     string
	Site      folio.Site
	Projects  []folio.Project
	ActiveTag string
	Tags      []content.Tag
}

// Home lists published projects with the tag filter.
func Home(site folio.Site, projects []folio.Project, activeTag string, tags []content.Tag) templ.Component {
	return page("home", homeData{
		Title:     site.Name,
		Site:      site,
		Projects:  projects,
		ActiveTag: activeTag,
		Tags:      tags,
	})
}

type projectData struct {
	Title   string
	Site    folio.Site
	Project folio.Project
	Related []folio.Project
}

// Project shows one project with its gallery, embeds and sources.
func Project(site folio.Site, project folio.Project, related []folio.Project) templ.Component {
	return page("project", projectData{
		Title:   project.Title + " · " + site.Name,
		Site:    site,
		Project: project,
		Related: related,
	})
}

type loginData struct {
	Title     string
	ShowError bool
	CSRF      string
}

func AdminLogin(showError bool, csrfToken string) templ.Component {
	return page("admin_login", loginData{Title: "Sign in", ShowError: showError, CSRF: csrfToken})
}

type dashboardData struct {
	Title string
	Posts []content.Post
	Notes string
	CSRF  string
}

func AdminDashboard(posts []content.Post, notes string, csrfToken string) templ.Component {
	return page("admin_dashboard", dashboardData{Title: "Admin", Posts: posts, Notes: notes, CSRF: csrfToken})
}

func NotFound() templ.Component {
	return page("not_found", struct{ Title string }{"Not found"})
}

func ServerError() templ.Component {
	return page("server_error", struct{ Title string }{"Server error"})
}
