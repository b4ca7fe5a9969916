package folio

import (
	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
	"github.com/folio-cms/folio/sanitize"
)

// presentProject converts a stored post to its public form. Every field that
// may carry markup is passed through the sanitizer here, so nothing rendered
// from a Project needs further escaping decisions.
func presentProject(p content.Post, photos []content.Photo, urls cdn.URLBuilder) Project {
	alt := p.AltText
	if alt == "" {
		alt = p.DisplayTitle()
	}
	out := Project{
		ID:          p.ID,
		Title:       p.DisplayTitle(),
		Slug:        p.Slug,
		Date:        p.Date,
		Featured:    p.Featured,
		Description: sanitize.HTML(p.Description),
		Embeds:      sanitize.Embeds(p.Script),
		Sources:     sanitize.SourceURLs(p.Source),
		Photos:      make([]ProjectPhoto, 0, len(photos)),
		Tags:        p.Tags,
		Link:        projectPath(p),
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	for _, ph := range photos {
		out.Photos = append(out.Photos, ProjectPhoto{
			URL:       urls.URL(ph.Key, cdn.Gallery),
			Thumbnail: urls.URL(ph.Key, cdn.Thumbnail),
			Alt:       alt,
		})
	}
	if len(photos) > 0 {
		out.Cover = urls.URL(photos[0].Key, cdn.Card)
	}
	return out
}

// projectPath links by slug, or by id for posts without one.
func projectPath(p content.Post) string {
	if p.Slug != "" {
		return "/projects/" + p.Slug + "/"
	}
	return "/projects/" + idString(p.ID) + "/"
}

func presentAdminPost(p content.Post, photos []content.Photo, urls cdn.URLBuilder) adminPost {
	out := adminPost{Post: p, Photos: make([]adminPhoto, 0, len(photos))}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	for _, ph := range photos {
		out.Photos = append(out.Photos, presentAdminPhoto(ph, urls))
	}
	return out
}

func presentAdminPhoto(ph content.Photo, urls cdn.URLBuilder) adminPhoto {
	return adminPhoto{
		Photo:     ph,
		URL:       urls.URL(ph.Key, cdn.Gallery),
		Thumbnail: urls.URL(ph.Key, cdn.Thumbnail),
		Original:  urls.Raw(ph.Key),
	}
}
