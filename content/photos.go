package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/folio-cms/folio/ordering"
)

// ListPhotos returns the photos of a post in display order. The first is the
// cover.
func (s *Store) ListPhotos(ctx context.Context, postID int64) ([]Photo, error) {
	return listPhotos(ctx, s.db, postID)
}

func listPhotos(ctx context.Context, q queryer, postID int64) ([]Photo, error) {
	rows, err := q.QueryContext(ctx, `SELECT a.id, b.id, b.key, b.filename, b.content_type, b.byte_size
		FROM attachments a JOIN blobs b ON b.id = a.blob_id
		WHERE a.record_type = ? AND a.record_id = ? AND a.name = ?
		ORDER BY a.id`, recordPost, postID, rolePhotos)
	if err != nil {
		return nil, fmt.Errorf("list photos of %d: %w", postID, err)
	}
	defer rows.Close()
	photos := []Photo{}
	for rows.Next() {
		var p Photo
		if err := rows.Scan(&p.AttachmentID, &p.BlobID, &p.Key, &p.Filename, &p.ContentType, &p.ByteSize); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// PhotosFor returns the photos of each post id in one query.
func (s *Store) PhotosFor(ctx context.Context, postIDs []int64) (map[int64][]Photo, error) {
	out := make(map[int64][]Photo, len(postIDs))
	if len(postIDs) == 0 {
		return out, nil
	}
	want := make(map[int64]bool, len(postIDs))
	for _, id := range postIDs {
		want[id] = true
	}
	rows, err := s.db.QueryContext(ctx, `SELECT a.record_id, a.id, b.id, b.key, b.filename, b.content_type, b.byte_size
		FROM attachments a JOIN blobs b ON b.id = a.blob_id
		WHERE a.record_type = ? AND a.name = ?
		ORDER BY a.id`, recordPost, rolePhotos)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var p Photo
		if err := rows.Scan(&postID, &p.AttachmentID, &p.BlobID, &p.Key, &p.Filename, &p.ContentType, &p.ByteSize); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		if want[postID] {
			out[postID] = append(out[postID], p)
		}
	}
	return out, rows.Err()
}

// AttachPhoto records an uploaded blob and appends it to the post's photos.
// Call it only after the upload has succeeded.
func (s *Store) AttachPhoto(ctx context.Context, postID int64, b Blob) (Photo, error) {
	var photo Photo
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		now := s.stamp()
		res, err := tx.ExecContext(ctx, `INSERT INTO blobs (key, filename, content_type, byte_size, service_name, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`, b.Key, b.Filename, b.ContentType, b.ByteSize, b.ServiceName, now)
		if err != nil {
			return fmt.Errorf("insert blob: %w", err)
		}
		blobID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert blob: %w", err)
		}
		res, err = tx.ExecContext(ctx, `INSERT INTO attachments (name, record_type, record_id, blob_id, created_at)
			VALUES (?, ?, ?, ?, ?)`, rolePhotos, recordPost, postID, blobID, now)
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
		attID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert attachment: %w", err)
		}
		photo = Photo{
			AttachmentID: attID,
			BlobID:       blobID,
			Key:          b.Key,
			Filename:     b.Filename,
			ContentType:  b.ContentType,
			ByteSize:     b.ByteSize,
		}
		return nil
	})
	return photo, err
}

// DeletePhoto removes one attachment of a post. It returns the blob key when
// the blob was left unattached and has been deleted too, or "" otherwise.
func (s *Store) DeletePhoto(ctx context.Context, postID, attachmentID int64) (string, error) {
	var key string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var blobID int64
		err := tx.QueryRowContext(ctx, `SELECT blob_id FROM attachments
			WHERE id = ? AND record_type = ? AND record_id = ? AND name = ?`,
			attachmentID, recordPost, postID, rolePhotos).Scan(&blobID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("load attachment %d: %w", attachmentID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments WHERE id = ?`, attachmentID); err != nil {
			return fmt.Errorf("delete attachment %d: %w", attachmentID, err)
		}
		keys, err := deleteOrphanBlobs(ctx, tx, []int64{blobID})
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			key = keys[0]
		}
		return nil
	})
	return key, err
}

// ReorderPhotos recreates the post's photo attachments in the order of
// blobIDs, which must be exactly the post's current blob set. Attachment ids
// change; blob ids do not.
func (s *Store) ReorderPhotos(ctx context.Context, postID int64, blobIDs []int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		have, err := queryIDs(ctx, tx, `SELECT blob_id FROM attachments
			WHERE record_type = ? AND record_id = ? AND name = ?`, recordPost, postID, rolePhotos)
		if err != nil {
			return fmt.Errorf("list attachments: %w", err)
		}
		if err := ordering.SameSet(have, blobIDs); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
		}
		if len(have) != len(blobIDs) {
			// The same blob attached twice collapses in SameSet.
			return fmt.Errorf("%w: got %d ids, want %d", ErrInvalidOrder, len(blobIDs), len(have))
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM attachments
			WHERE record_type = ? AND record_id = ? AND name = ?`, recordPost, postID, rolePhotos); err != nil {
			return fmt.Errorf("delete attachments: %w", err)
		}
		now := s.stamp()
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO attachments (name, record_type, record_id, blob_id, created_at)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare attachment insert: %w", err)
		}
		defer stmt.Close()
		for _, blobID := range blobIDs {
			if _, err := stmt.ExecContext(ctx, rolePhotos, recordPost, postID, blobID, now); err != nil {
				return fmt.Errorf("insert attachment for blob %d: %w", blobID, err)
			}
		}
		return nil
	})
}

func postExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load post %d: %w", id, err)
	}
	return nil
}

// deleteOrphanBlobs deletes the blobs among ids that no attachment references
// any more and returns their keys.
func deleteOrphanBlobs(ctx context.Context, tx *sql.Tx, ids []int64) ([]string, error) {
	var keys []string
	for _, id := range ids {
		var key string
		err := tx.QueryRowContext(ctx, `SELECT key FROM blobs
			WHERE id = ? AND NOT EXISTS (SELECT 1 FROM attachments WHERE blob_id = blobs.id)`, id).Scan(&key)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("check blob %d: %w", id, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("delete blob %d: %w", id, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
