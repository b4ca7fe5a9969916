package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/folio-cms/folio/ordering"
)

const postColumns = `id, title, slug, description, source, script, date, draft, featured, alt_text, order_number, created_at, updated_at`

// Display order: ranked posts first, then unranked, ties by id.
const postOrder = `ORDER BY order_number IS NULL, order_number, id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(r rowScanner) (Post, error) {
	var (
		p                Post
		slug, date       sql.NullString
		order            sql.NullInt64
		draft, featured  int
		created, updated string
	)
	if err := r.Scan(&p.ID, &p.Title, &slug, &p.Description, &p.Source, &p.Script,
		&date, &draft, &featured, &p.AltText, &order, &created, &updated); err != nil {
		return Post{}, err
	}
	p.Slug = slug.String
	p.Date = date.String
	p.Draft = draft == 1
	p.Featured = featured == 1
	if order.Valid {
		n := int(order.Int64)
		p.OrderNumber = &n
	}
	p.CreatedAt = parseStamp(created)
	p.UpdatedAt = parseStamp(updated)
	p.Tags = []string{}
	return p, nil
}

// ListPosts returns posts in display order with their tags.
func (s *Store) ListPosts(ctx context.Context, f Filter) ([]Post, error) {
	var (
		where []string
		args  []any
	)
	if !f.IncludeDrafts {
		where = append(where, "draft = 0")
	}
	if f.Featured {
		where = append(where, "featured = 1")
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		where = append(where, `id IN (
			SELECT tg.taggable_id FROM taggings tg JOIN tags t ON t.id = tg.tag_id
			WHERE tg.taggable_type = ? AND t.name = ?)`)
		args = append(args, recordPost, tag)
	}
	q := `SELECT ` + postColumns + ` FROM posts`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ` + postOrder
	if f.Limit > 0 {
		q += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a post by id whether or not it is a draft.
func (s *Store) GetPost(ctx context.Context, id int64) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post %d: %w", id, err)
	}
	tags, err := s.postTags(ctx, s.db, id)
	if err != nil {
		return Post{}, err
	}
	p.Tags = tags
	return p, nil
}

// GetPublishedPost returns a non-draft post by slug, or by numeric id when no
// slug matches.
func (s *Store) GetPublishedPost(ctx context.Context, slugOrID string) (Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE slug = ? AND draft = 0`, slugOrID))
	if errors.Is(err, sql.ErrNoRows) {
		id, perr := ParseID(slugOrID)
		if perr != nil {
			return Post{}, ErrNotFound
		}
		p, err = scanPost(s.db.QueryRowContext(ctx,
			`SELECT `+postColumns+` FROM posts WHERE id = ? AND draft = 0`, id))
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get published post: %w", err)
	}
	tags, err := s.postTags(ctx, s.db, p.ID)
	if err != nil {
		return Post{}, err
	}
	p.Tags = tags
	return p, nil
}

// CreatePost inserts a post at the end of the ranking (max+1, or 1 when there
// are no ranked posts). A requested OrderNumber then moves it into place.
func (s *Store) CreatePost(ctx context.Context, in PostInput) (Post, error) {
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	p := Post{Draft: true}
	applyInput(&p, in)

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkSlug(ctx, tx, p.Slug, 0); err != nil {
			return err
		}
		var next int
		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(order_number), 0) + 1 FROM posts`).Scan(&next); err != nil {
			return fmt.Errorf("next rank: %w", err)
		}
		now := s.stamp()
		res, err := tx.ExecContext(ctx, `INSERT INTO posts
			(title, slug, description, source, script, date, draft, featured, alt_text, order_number, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.Title, nullable(p.Slug), p.Description, p.Source, p.Script, nullable(p.Date),
			boolInt(p.Draft), boolInt(p.Featured), p.AltText, next, now, now)
		if err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		if in.OrderNumber != nil && *in.OrderNumber != next {
			if err := moveRank(ctx, tx, id, *in.OrderNumber); err != nil {
				return err
			}
		}
		return setPostTags(ctx, tx, id, in.Tags, now)
	})
	if err != nil {
		return Post{}, err
	}
	return s.GetPost(ctx, id)
}

// UpdatePost applies the non-nil fields of in. A new OrderNumber moves the
// post within the full ranking and renumbers every post densely, all in the
// same transaction as the field update.
func (s *Store) UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		p, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load post %d: %w", id, err)
		}
		applyInput(&p, in)
		if err := checkSlug(ctx, tx, p.Slug, id); err != nil {
			return err
		}
		now := s.stamp()
		if _, err := tx.ExecContext(ctx, `UPDATE posts SET
			title = ?, slug = ?, description = ?, source = ?, script = ?, date = ?,
			draft = ?, featured = ?, alt_text = ?, updated_at = ?
			WHERE id = ?`,
			p.Title, nullable(p.Slug), p.Description, p.Source, p.Script, nullable(p.Date),
			boolInt(p.Draft), boolInt(p.Featured), p.AltText, now, id); err != nil {
			return fmt.Errorf("update post %d: %w", id, err)
		}
		if in.OrderNumber != nil {
			if err := moveRank(ctx, tx, id, *in.OrderNumber); err != nil {
				return err
			}
		}
		if in.Tags != nil {
			return setPostTags(ctx, tx, id, in.Tags, now)
		}
		return nil
	})
	if err != nil {
		return Post{}, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost removes a post with its taggings and photo attachments, deletes
// blobs left without an attachment and closes the gap in the ranking. It
// returns the keys of the deleted blobs so the caller can remove them from
// the CDN.
func (s *Store) DeletePost(ctx context.Context, id int64) ([]string, error) {
	var orphans []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load post %d: %w", id, err)
		}
		if err := setPostTags(ctx, tx, id, []string{}, s.stamp()); err != nil {
			return err
		}

		blobIDs, err := queryIDs(ctx, tx, `SELECT blob_id FROM attachments
			WHERE record_type = ? AND record_id = ? AND name = ? ORDER BY id`, recordPost, id, rolePhotos)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE record_type = ? AND record_id = ?`,
			recordPost, id); err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		if orphans, err = deleteOrphanBlobs(ctx, tx, blobIDs); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete post %d: %w", id, err)
		}
		remaining, err := queryIDs(ctx, tx, `SELECT id FROM posts `+postOrder)
		if err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		if len(remaining) == 0 {
			return nil
		}
		return applyRanks(ctx, tx, remaining)
	})
	if err != nil {
		return nil, err
	}
	return orphans, nil
}

// ReorderPosts assigns rank i+1 to ids[i]. ids must be a permutation of every
// post; otherwise nothing changes and the error matches ErrInvalidOrder.
func (s *Store) ReorderPosts(ctx context.Context, ids []int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		have, err := queryIDs(ctx, tx, `SELECT id FROM posts`)
		if err != nil {
			return fmt.Errorf("list posts: %w", err)
		}
		if err := ordering.SameSet(have, ids); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		}
		return applyRanks(ctx, tx, ids)
	})
}

// ExportMarkdown renders published posts in display order as
// "# title\ndescription", separated by a blank line.
func (s *Store) ExportMarkdown(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, description FROM posts WHERE draft = 0 `+postOrder)
	if err != nil {
		return "", fmt.Errorf("export posts: %w", err)
	}
	defer rows.Close()

	var parts []string
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.Title, &p.Description); err != nil {
			return "", fmt.Errorf("export posts: %w", err)
		}
		parts = append(parts, "# "+p.DisplayTitle()+"\n"+p.Description)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("export posts: %w", err)
	}
	return strings.Join(parts, "\n\n"), nil
}

func applyInput(p *Post, in PostInput) {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&p.Title, in.Title)
	set(&p.Slug, in.Slug)
	set(&p.Description, in.Description)
	set(&p.Source, in.Source)
	set(&p.Script, in.Script)
	set(&p.Date, in.Date)
	set(&p.AltText, in.AltText)
	if in.Draft != nil {
		p.Draft = *in.Draft
	}
	if in.Featured != nil {
		p.Featured = *in.Featured
	}
}

func checkSlug(ctx context.Context, tx *sql.Tx, slug string, self int64) error {
	if slug == "" {
		return nil
	}
	var other int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = ? AND id != ?`, slug, self).Scan(&other)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	return fmt.Errorf("%w: slug %q is used by post %d", ErrConflict, slug, other)
}

// moveRank places id at rank n within the current display order and
// renumbers all posts densely.
func moveRank(ctx context.Context, tx *sql.Tx, id int64, n int) error {
	ids, err := queryIDs(ctx, tx, `SELECT id FROM posts `+postOrder)
	if err != nil {
		return fmt.Errorf("list posts: %w", err)
	}
	moved, err := ordering.Move(ids, id, n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	return applyRanks(ctx, tx, moved)
}

// applyRanks clears the ranks of ids and then assigns rank i+1 to ids[i], so
// the unique index on order_number never sees two posts with one rank.
func applyRanks(ctx context.Context, tx *sql.Tx, ids []int64) error {
	ranks, err := ordering.Rank(ids)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE posts SET order_number = NULL WHERE order_number IS NOT NULL`); err != nil {
		return fmt.Errorf("clear ranks: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `UPDATE posts SET order_number = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare rank update: %w", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, ranks[id], id); err != nil {
			return fmt.Errorf("set rank of %d: %w", id, err)
		}
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryIDs(ctx context.Context, q queryer, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
