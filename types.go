package folio

import "github.com/folio-cms/folio/content"

// Site carries site-wide settings into public templates.
type Site struct {
	Name        string
	URL         string
	Description string
}

// Project is a published post as visitors see it. Description is sanitized
// HTML and Embeds holds only the trusted iframes of the post's script field.
type Project struct {
	ID          int64          `json:"id,string"`
	Title       string         `json:"title"`
	Slug        string         `json:"slug"`
	Date        string         `json:"date"`
	Featured    bool           `json:"featured"`
	Description string         `json:"description"`
	Embeds      string         `json:"embeds"`
	Sources     []string       `json:"sources"`
	Photos      []ProjectPhoto `json:"photos"`
	Tags        []string       `json:"tags"`
	Cover       string         `json:"cover,omitempty"`
	Link        string         `json:"link"`
}

// ProjectPhoto is a delivery URL pair for one photo.
type ProjectPhoto struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Alt       string `json:"alt"`
}

// adminPost is a post as the admin API returns it, including drafts' photos.
type adminPost struct {
	content.Post
	Photos []adminPhoto `json:"photos"`
}

type adminPhoto struct {
	content.Photo
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
	Original  string `json:"original"`
}
