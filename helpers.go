package folio

import (
	"net/url"
	"path"
	"strings"
)

// maxRelated bounds the related projects shown under a project.
const maxRelated = 3

// BuildURL joins a base URL with path segments, ensuring a trailing slash.
func BuildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// FilterRelatedProjects returns up to maxRelated projects sharing at least
// one tag with current, in display order.
func FilterRelatedProjects(current Project, projects []Project) []Project {
	tagSet := make(map[string]struct{}, len(current.Tags))
	for _, t := range current.Tags {
		tagSet[t] = struct{}{}
	}
	var related []Project
	for _, p := range projects {
		if p.ID == current.ID {
			continue
		}
		for _, t := range p.Tags {
			if _, ok := tagSet[t]; ok {
				related = append(related, p)
				break
			}
		}
		if len(related) == maxRelated {
			break
		}
	}
	return related
}

// JoinTags joins tags with ", ".
func JoinTags(tags []string) string {
	return strings.Join(tags, ", ")
}
