package folio

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/folio-cms/folio/cdn"
	"github.com/folio-cms/folio/content"
)

// ProjectCache is an in-memory cache of published projects and tags with TTL.
// Admin writes call Invalidate.
type ProjectCache struct {
	mu       sync.RWMutex
	projects []Project
	tags     []content.Tag
	fetched  time.Time
	ttl      time.Duration
	store    *content.Store
	urls     cdn.URLBuilder
}

// NewProjectCache creates a ProjectCache backed by the given Store.
func NewProjectCache(s *content.Store, urls cdn.URLBuilder, ttl time.Duration) *ProjectCache {
	return &ProjectCache{store: s, urls: urls, ttl: ttl}
}

func (c *ProjectCache) valid() bool {
	return c.projects != nil && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *ProjectCache) Invalidate() {
	c.mu.Lock()
	c.projects = nil
	c.tags = nil
	c.mu.Unlock()
}

func (c *ProjectCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	posts, err := c.store.ListPosts(ctx, content.Filter{})
	if err != nil {
		return err
	}
	ids := make([]int64, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	photos, err := c.store.PhotosFor(ctx, ids)
	if err != nil {
		return err
	}
	tags, err := c.store.ListTags(ctx)
	if err != nil {
		return err
	}
	projects := make([]Project, len(posts))
	for i, p := range posts {
		projects[i] = presentProject(p, photos[p.ID], c.urls)
	}
	c.projects = projects
	c.tags = tags
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached projects and tags after ensuring the cache is
// fresh. Only a reload takes the write lock.
func (c *ProjectCache) ensureLoaded(ctx context.Context) ([]Project, []content.Tag, error) {
	c.mu.RLock()
	if c.valid() {
		projects, tags := c.projects, c.tags
		c.mu.RUnlock()
		return projects, tags, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.projects, c.tags, nil
}

// List returns published projects in display order, optionally restricted
// to a tag and to featured projects.
func (c *ProjectCache) List(ctx context.Context, tag string, featuredOnly bool) ([]Project, error) {
	projects, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" && !featuredOnly {
		return projects, nil
	}
	filtered := []Project{}
	for _, p := range projects {
		if featuredOnly && !p.Featured {
			continue
		}
		if tag != "" && !hasTag(p, tag) {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

// Tags returns the tags in use, most used first.
func (c *ProjectCache) Tags(ctx context.Context) ([]content.Tag, error) {
	_, tags, err := c.ensureLoaded(ctx)
	return tags, err
}

// Get returns a published project by slug, or by numeric id when no slug
// matches.
func (c *ProjectCache) Get(ctx context.Context, slugOrID string) (Project, error) {
	projects, _, err := c.ensureLoaded(ctx)
	if err != nil {
		return Project{}, err
	}
	for _, p := range projects {
		if p.Slug != "" && p.Slug == slugOrID {
			return p, nil
		}
	}
	if id, err := content.ParseID(slugOrID); err == nil {
		for _, p := range projects {
			if p.ID == id {
				return p, nil
			}
		}
	}
	return Project{}, content.ErrNotFound
}

func hasTag(p Project, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func idString(id int64) string {
	return strconv.FormatInt(id, 10)
}
