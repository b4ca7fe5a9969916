package views

const layout = `
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="/public/styles.css">
<link rel="alternate" type="application/rss+xml" href="/feed.xml">
</head>
<body>
<main class="page">{{end}}

{{define "foot"}}</main>
</body>
</html>{{end}}

{{define "card"}}<li class="card">
<a href="{{.Link}}">
{{if .Cover}}<img src="{{.Cover}}" alt="{{(index .Photos 0).Alt}}" loading="lazy" width="600" height="450">{{end}}
<h2>{{.Title}}</h2>
</a>
{{if .Date}}<time datetime="{{.Date}}">{{.Date}}</time>{{end}}
</li>{{end}}
`

const publicPages = `
{{define "home"}}{{template "head" .}}
<header><h1>{{.Site.Name}}</h1>{{with .Site.Description}}<p>{{.}}</p>{{end}}</header>
<nav class="tags">
<a class="{{tagClass (eq .ActiveTag "")}}" href="/">all</a>
{{range .Tags}}<a class="{{tagClass (eq $.ActiveTag .Name)}}" href="/?tag={{.Name}}">{{.Name}} <small>{{.Count}}</small></a>
{{end}}</nav>
{{if .Projects}}<ul class="grid">
{{range .Projects}}{{template "card" .}}
{{end}}</ul>
{{else}}<p class="empty">No projects yet.</p>{{end}}
{{template "foot" .}}{{end}}

{{define "project"}}{{template "head" .}}
{{with .Project}}<article class="project">
<header>
<h1>{{.Title}}</h1>
{{if .Date}}<time datetime="{{.Date}}">{{.Date}}</time>{{end}}
{{if .Tags}}<p class="tags">{{range .Tags}}<a class="tag" href="/?tag={{.}}">{{.}}</a> {{end}}</p>{{end}}
</header>
{{if .Photos}}<div class="gallery">
{{range .Photos}}<a href="{{.URL}}"><img src="{{.Thumbnail}}" alt="{{.Alt}}" loading="lazy" width="150" height="150"></a>
{{end}}</div>{{end}}
<div class="description">{{sanitized .Description}}</div>
{{if .Embeds}}<div class="embeds">{{sanitized .Embeds}}</div>{{end}}
{{if .Sources}}<ul class="sources">
{{range .Sources}}<li><a href="{{.}}" rel="noopener noreferrer" target="_blank">{{.}}</a></li>
{{end}}</ul>{{end}}
</article>{{end}}
{{if .Related}}<section class="related">
<h2>Related</h2>
<ul class="grid">{{range .Related}}{{template "card" .}}{{end}}</ul>
</section>{{end}}
<p><a href="/">← All projects</a></p>
{{template "foot" .}}{{end}}
`

const adminPages = `
{{define "admin_login"}}{{template "head" .}}
<form class="login" method="post" action="/admin/login/">
<input type="hidden" name="_csrf" value="{{.CSRF}}">
<h1>Sign in</h1>
{{if .ShowError}}<p class="error" role="alert">Invalid email or password.</p>{{end}}
<label>Email <input type="email" name="email" autocomplete="username" required></label>
<label>Password <input type="password" name="password" autocomplete="current-password" required></label>
<button type="submit">Sign in</button>
</form>
{{template "foot" .}}{{end}}

{{define "admin_dashboard"}}{{template "head" .}}
<header class="admin-bar">
<h1>Projects</h1>
<form method="post" action="/admin/logout/">
<input type="hidden" name="_csrf" value="{{.CSRF}}">
<button type="submit">Sign out</button>
</form>
</header>
<table class="posts" data-csrf="{{.CSRF}}">
<thead><tr><th>#</th><th>Title</th><th>Status</th><th>Tags</th></tr></thead>
<tbody>
{{range .Posts}}<tr data-id="{{.ID}}" draggable="true">
<td>{{rank .OrderNumber}}</td>
<td>{{.DisplayTitle}}{{if .Featured}} ★{{end}}</td>
<td>{{status .Draft}}</td>
<td>{{joinTags .Tags}}</td>
</tr>
{{end}}</tbody>
</table>
<section class="notes">
<h2>Notes</h2>
<textarea name="notes" rows="8">{{.Notes}}</textarea>
</section>
{{template "foot" .}}{{end}}
`

const errorPages = `
{{define "not_found"}}{{template "head" .}}
<h1>Page not found</h1>
<p><a href="/">Back to projects</a></p>
{{template "foot" .}}{{end}}

{{define "server_error"}}{{template "head" .}}
<h1>Something went wrong</h1>
<p>Please try again in a moment.</p>
{{template "foot" .}}{{end}}
`
