// Package store persists fetched posts in a local SQLite database and
// implements the merge rules that reconcile a fresh crawl with what an
// earlier crawl already saved.
package store

import (
	"context"
	"database/sql"

	_ "modernc.org/sqlite"

	"daisy/crawler"
	"daisy/oops"
)

const schema = `
create table if not exists blogs (
	id integer primary key autoincrement,
	blog_id text not null unique,
	created_at text not null default (datetime('now'))
);

create table if not exists posts (
	id integer primary key autoincrement,
	blog_id text not null,
	external_id text not null,
	title text not null,
	body text not null,
	published_at text not null default '',
	is_private integer not null default 0,
	url text not null,
	source text not null,
	created_at text not null default (datetime('now')),
	updated_at text not null default (datetime('now')),
	unique (blog_id, external_id)
);

create index if not exists posts_blog_id_idx on posts (blog_id);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema. The schema is idempotent, so Open is safe on an existing file.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, oops.Wrap(err)
	}

	// modernc sqlite serializes writes itself but multiple pooled
	// connections still race on the file lock.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, oops.Wrap(err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureBlog registers the blog id if it isn't known yet.
func (s *Store) EnsureBlog(ctx context.Context, blogID string) error {
	_, err := s.db.ExecContext(
		ctx, "insert into blogs (blog_id) values (?) on conflict (blog_id) do nothing", blogID,
	)
	return oops.Wrap(err)
}

// StoredPost is the subset of a saved row the merge rules look at.
type StoredPost struct {
	ExternalID  string
	Title       string
	Body        string
	PublishedAt string
	IsPrivate   bool
	URL         string
	Source      string
}

// Posts returns all saved posts for a blog, newest external id first.
func (s *Store) Posts(ctx context.Context, blogID string) ([]StoredPost, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`select external_id, title, body, published_at, is_private, url, source
		 from posts where blog_id = ? order by cast(external_id as integer) desc`,
		blogID,
	)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	defer rows.Close()

	var posts []StoredPost
	for rows.Next() {
		var post StoredPost
		err := rows.Scan(
			&post.ExternalID, &post.Title, &post.Body, &post.PublishedAt,
			&post.IsPrivate, &post.URL, &post.Source,
		)
		if err != nil {
			return nil, oops.Wrap(err)
		}
		posts = append(posts, post)
	}
	return posts, oops.Wrap(rows.Err())
}

// MergeSummary tallies what the merge did with each incoming record.
type MergeSummary struct {
	Inserted int
	Updated  int
	Skipped  int
	Rejected int
}

// Merge reconciles freshly crawled records with the saved rows for the
// blog. New external ids are inserted whole. For ids already present only
// two fields may change: published_at is filled in when the stored value is
// blank (a later crawl never overwrites a date we already have), and
// is_private is updated when the visibility flag flipped. Title and body of
// an existing row are never touched. Records without an external id are
// rejected and counted.
func (s *Store) Merge(ctx context.Context, blogID string, records []crawler.PostRecord) (MergeSummary, error) {
	var summary MergeSummary

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, oops.Wrap(err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := existingByID(ctx, tx, blogID)
	if err != nil {
		return summary, err
	}

	for _, record := range records {
		if record.ExternalID == "" {
			summary.Rejected++
			continue
		}

		stored, ok := existing[record.ExternalID]
		if !ok {
			_, err := tx.ExecContext(
				ctx,
				`insert into posts
				 (blog_id, external_id, title, body, published_at, is_private, url, source)
				 values (?, ?, ?, ?, ?, ?, ?, ?)`,
				blogID, record.ExternalID, record.Title, record.Body,
				record.PublishedAt, record.IsPrivate, record.URL, record.Source,
			)
			if err != nil {
				return summary, oops.Wrap(err)
			}
			summary.Inserted++
			continue
		}

		patchDate := stored.PublishedAt == "" && record.PublishedAt != ""
		patchPrivate := stored.IsPrivate != record.IsPrivate
		if !patchDate && !patchPrivate {
			summary.Skipped++
			continue
		}

		publishedAt := stored.PublishedAt
		if patchDate {
			publishedAt = record.PublishedAt
		}
		_, err := tx.ExecContext(
			ctx,
			`update posts set published_at = ?, is_private = ?, updated_at = datetime('now')
			 where blog_id = ? and external_id = ?`,
			publishedAt, record.IsPrivate, blogID, record.ExternalID,
		)
		if err != nil {
			return summary, oops.Wrap(err)
		}
		summary.Updated++
	}

	if err := tx.Commit(); err != nil {
		return summary, oops.Wrap(err)
	}
	return summary, nil
}

func existingByID(ctx context.Context, tx *sql.Tx, blogID string) (map[string]StoredPost, error) {
	rows, err := tx.QueryContext(
		ctx,
		"select external_id, published_at, is_private from posts where blog_id = ?",
		blogID,
	)
	if err != nil {
		return nil, oops.Wrap(err)
	}
	defer rows.Close()

	existing := make(map[string]StoredPost)
	for rows.Next() {
		var post StoredPost
		if err := rows.Scan(&post.ExternalID, &post.PublishedAt, &post.IsPrivate); err != nil {
			return nil, oops.Wrap(err)
		}
		existing[post.ExternalID] = post
	}
	return existing, oops.Wrap(rows.Err())
}
