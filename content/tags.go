package content

import (
	"context"
	"database/sql"
	"fmt"
)

// ListTags returns tags in use, most used first.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, taggings_count FROM tags
		WHERE taggings_count > 0 ORDER BY taggings_count DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	tags := []Tag{}
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Count); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// setPostTags makes the post's taggings equal to tags, keeping
// tags.taggings_count in step. A nil tags is a no-op.
func setPostTags(ctx context.Context, tx *sql.Tx, id int64, tags []string, now string) error {
	if tags == nil {
		return nil
	}
	rows, err := tx.QueryContext(ctx, `SELECT t.id, t.name FROM taggings tg JOIN tags t ON t.id = tg.tag_id
		WHERE tg.taggable_type = ? AND tg.taggable_id = ?`, recordPost, id)
	if err != nil {
		return fmt.Errorf("load taggings: %w", err)
	}
	current := map[string]int64{}
	for rows.Next() {
		var tagID int64
		var name string
		if err := rows.Scan(&tagID, &name); err != nil {
			rows.Close()
			return fmt.Errorf("scan tagging: %w", err)
		}
		current[name] = tagID
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load taggings: %w", err)
	}

	want := make(map[string]bool, len(tags))
	for _, name := range tags {
		want[name] = true
	}

	for name, tagID := range current {
		if want[name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM taggings
			WHERE tag_id = ? AND taggable_type = ? AND taggable_id = ?`, tagID, recordPost, id); err != nil {
			return fmt.Errorf("untag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tags SET taggings_count = MAX(taggings_count - 1, 0) WHERE id = ?`, tagID); err != nil {
			return fmt.Errorf("untag %q: %w", name, err)
		}
	}

	for _, name := range tags {
		if _, ok := current[name]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO tags (name, taggings_count) VALUES (?, 0)
			ON CONFLICT(name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("create tag %q: %w", name, err)
		}
		var tagID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM tags WHERE name = ?`, name).Scan(&tagID); err != nil {
			return fmt.Errorf("load tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO taggings (tag_id, taggable_type, taggable_id, created_at)
			VALUES (?, ?, ?, ?)`, tagID, recordPost, id, now); err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE tags SET taggings_count = taggings_count + 1 WHERE id = ?`, tagID); err != nil {
			return fmt.Errorf("tag %q: %w", name, err)
		}
	}
	return nil
}

func (s *Store) postTags(ctx context.Context, q queryer, id int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT t.name FROM taggings tg JOIN tags t ON t.id = tg.tag_id
		WHERE tg.taggable_type = ? AND tg.taggable_id = ? ORDER BY tg.id`, recordPost, id)
	if err != nil {
		return nil, fmt.Errorf("load tags of %d: %w", id, err)
	}
	defer rows.Close()
	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, name)
	}
	return tags, rows.Err()
}

// attachTags fills Tags for every post in one query.
func (s *Store) attachTags(ctx context.Context, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}
	index := make(map[int64]int, len(posts))
	for i, p := range posts {
		index[p.ID] = i
	}
	rows, err := s.db.QueryContext(ctx, `SELECT tg.taggable_id, t.name FROM taggings tg JOIN tags t ON t.id = tg.tag_id
		WHERE tg.taggable_type = ? ORDER BY tg.id`, recordPost)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var name string
		if err := rows.Scan(&id, &name); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[id]; ok {
			posts[i].Tags = append(posts[i].Tags, name)
		}
	}
	return rows.Err()
}
