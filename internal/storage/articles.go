package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Article is a canonical published item, owned by exactly one reporter.
type Article struct {
	ID          string
	ReporterID  string
	Headline    string
	Outlet      string
	PublishedOn time.Time
	URL         string
	Summary     string
	Topics      []string
	CreatedAt   time.Time
}

// GetArticles returns all articles for a reporter, most recent first.
func (db *DB) GetArticles(ctx context.Context, reporterID string) ([]Article, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, reporter_id, headline, outlet, published_on, url, summary, topics, created_at
		FROM articles
		WHERE reporter_id = $1
		ORDER BY published_on DESC, url`,
		reporterID)
	if err != nil {
		return nil, fmt.Errorf("get articles: %w", err)
	}
	defer rows.Close()

	var articles []Article

	for rows.Next() {
		var (
			a          Article
			published  pgtype.Date
			summary    pgtype.Text
			topicsJSON []byte
		)

		if err := rows.Scan(&a.ID, &a.ReporterID, &a.Headline, &a.Outlet,
			&published, &a.URL, &summary, &topicsJSON, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}

		a.PublishedOn = published.Time
		a.Summary = summary.String

		if len(topicsJSON) > 0 {
			_ = json.Unmarshal(topicsJSON, &a.Topics)
		}

		articles = append(articles, a)
	}

	return articles, rows.Err()
}

// LatestArticleDate returns the most recent publication date for a reporter.
// The zero time means the reporter has no stored articles.
func (db *DB) LatestArticleDate(ctx context.Context, reporterID string) (time.Time, error) {
	var latest pgtype.Date

	err := db.Pool.QueryRow(ctx,
		`SELECT MAX(published_on) FROM articles WHERE reporter_id = $1`,
		reporterID).Scan(&latest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, nil
		}

		return time.Time{}, fmt.Errorf("latest article date: %w", err)
	}

	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}

// InsertArticles stores articles for a reporter, silently skipping URLs that
// already exist. Duplicate-URL races between concurrent resolutions reconcile
// here. Returns the number of rows actually inserted.
func (db *DB) InsertArticles(ctx context.Context, reporterID string, articles []Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	inserted := 0

	for _, a := range articles {
		topicsJSON, err := json.Marshal(a.Topics)
		if err != nil {
			topicsJSON = []byte("[]")
		}

		tag, err := db.Pool.Exec(ctx, `
			INSERT INTO articles (reporter_id, headline, outlet, published_on, url, summary, topics)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (url) DO NOTHING`,
			reporterID, a.Headline, a.Outlet, toDate(a.PublishedOn), a.URL,
			toText(a.Summary), topicsJSON)
		if err != nil {
			return inserted, fmt.Errorf("insert article: %w", err)
		}

		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}
