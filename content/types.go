package content

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidOrder = errors.New("invalid order")
	ErrValidation   = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
)

// ValidationError lists the fields of an input that failed validation. It
// matches ErrValidation with errors.Is.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Roles and record types used by attachments and taggings.
const (
	recordPost = "Post"
	rolePhotos = "photos"
)

// Post is a portfolio project. OrderNumber is nil for unranked posts.
type Post struct {
	ID          int64     `json:"id,string"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Script      string    `json:"script"`
	Date        string    `json:"date"`
	Draft       bool      `json:"draft"`
	Featured    bool      `json:"featured"`
	AltText     string    `json:"altText"`
	OrderNumber *int      `json:"orderNumber"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DisplayTitle is the title, or "Untitled" when it is blank.
func (p Post) DisplayTitle() string {
	if t := strings.TrimSpace(p.Title); t != "" {
		return t
	}
	return "Untitled"
}

// PostInput carries the fields of a create or update request. Nil fields are
// left unchanged on update and take their defaults on create.
type PostInput struct {
	Title       *string  `json:"title"`
	Slug        *string  `json:"slug"`
	Description *string  `json:"description"`
	Source      *string  `json:"source"`
	Script      *string  `json:"script"`
	Date        *string  `json:"date"`
	Draft       *bool    `json:"draft"`
	Featured    *bool    `json:"featured"`
	AltText     *string  `json:"altText"`
	OrderNumber *int     `json:"orderNumber"`
	Tags        []string `json:"tags"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]*$`)

// Validate checks field limits and normalizes the slug, date and tags in
// place.
func (in *PostInput) Validate() error {
	var problems []string
	maxLen := func(field string, v *string, n int) {
		if v != nil && utf8.RuneCountInString(*v) > n {
			problems = append(problems, fmt.Sprintf("%s exceeds %d characters", field, n))
		}
	}
	maxLen("title", in.Title, 500)
	maxLen("slug", in.Slug, 200)
	maxLen("description", in.Description, 50000)
	maxLen("source", in.Source, 10000)
	maxLen("script", in.Script, 10000)
	maxLen("altText", in.AltText, 500)

	if in.Slug != nil {
		slug := strings.TrimSpace(*in.Slug)
		if !slugPattern.MatchString(slug) {
			problems = append(problems, "slug may only contain lowercase letters, digits and dashes")
		}
		in.Slug = &slug
	}
	if in.Date != nil {
		d, err := normalizeDate(*in.Date)
		if err != nil {
			problems = append(problems, "date must be YYYY-MM-DD or RFC 3339")
		}
		in.Date = &d
	}
	if in.OrderNumber != nil && *in.OrderNumber <= 0 {
		problems = append(problems, "orderNumber must be positive")
	}
	if in.Tags != nil {
		in.Tags = NormalizeTags(in.Tags)
		for _, t := range in.Tags {
			if utf8.RuneCountInString(t) > 100 {
				problems = append(problems, "tag exceeds 100 characters")
				break
			}
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func normalizeDate(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t.Format("2006-01-02"), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return "", err
	}
	return t.UTC().Format("2006-01-02"), nil
}

// NormalizeTags trims, lower-cases and de-duplicates tags, keeping the first
// occurrence order and dropping empties.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Photo is one attachment of a post under the photos role.
type Photo struct {
	AttachmentID int64  `json:"attachmentId,string"`
	BlobID       int64  `json:"blobId,string"`
	Key          string `json:"key"`
	Filename     string `json:"filename"`
	ContentType  string `json:"contentType"`
	ByteSize     int64  `json:"byteSize"`
}

// Blob describes an object stored on the image CDN.
type Blob struct {
	Key         string
	Filename    string
	ContentType string
	ByteSize    int64
	ServiceName string
}

// Tag is a tag name with the number of posts using it.
type Tag struct {
	ID    int64  `json:"id,string"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// User is the admin credential.
type User struct {
	ID                int64
	Email             string
	EncryptedPassword string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Filter selects posts for listing.
type Filter struct {
	Tag           string
	Featured      bool
	IncludeDrafts bool
	Limit         int
}

// ParseID parses an identifier received as a decimal string. Only plain
// digits are accepted and the value must fit in an int64 and be positive.
func ParseID(s string) (int64, error) {
	if s == "" || len(s) > 19 {
		return 0, fmt.Errorf("%w: malformed id", ErrValidation)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: malformed id", ErrValidation)
		}
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: malformed id", ErrValidation)
	}
	return id, nil
}

// ParseIDs parses every element of ss with ParseID.
func ParseIDs(ss []string) ([]int64, error) {
	ids := make([]int64, len(ss))
	for i, s := range ss {
		id, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
