package importer

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/madisonpr/mentions/internal/intel"
	"github.com/madisonpr/mentions/internal/storage"
)

const (
	maxUploadBytes = 2 << 20
	maxRows        = 5000
	sampleRowCount = 10
	previewRows    = 5
	sessionTTL     = 30 * time.Minute
)

var (
	ErrEmptyCSV    = errors.New("csv has no data rows")
	ErrTooLarge    = errors.New("csv exceeds the upload size limit")
	ErrTooManyRows = errors.New("csv exceeds the row limit")
	ErrNoSession   = errors.New("unknown or expired import session")
	ErrNoNameField = errors.New("mapping has no name column")
)

// Store is the persistence surface the importer needs.
type Store interface {
	UpsertReporter(ctx context.Context, p storage.UpsertReporterParams) (string, error)
}

// Importer runs the two-step roster import: analyze a CSV upload, then
// confirm a (possibly corrected) column mapping. Parsed rows live in an
// in-memory session between the two calls.
type Importer struct {
	store  Store
	intel  intel.Client
	logger *zerolog.Logger

	mu       sync.Mutex
	sessions map[string]*session
	now      func() time.Time
}

type session struct {
	headers []string
	rows    [][]string
	created time.Time
}

func New(store Store, ic intel.Client, logger *zerolog.Logger) *Importer {
	return &Importer{
		store:    store,
		intel:    ic,
		logger:   logger,
		sessions: map[string]*session{},
		now:      time.Now,
	}
}

// Analysis is the outcome of the first import step.
type Analysis struct {
	SessionID string              `json:"session_id"`
	Headers   []string            `json:"headers"`
	RowCount  int                 `json:"row_count"`
	Mapping   intel.ColumnMapping `json:"mapping"`
	Preview   [][]string          `json:"preview"`
}

// Analyze parses an uploaded CSV, asks the intelligence client to map its
// columns to reporter fields and opens a session holding the parsed rows.
func (im *Importer) Analyze(ctx context.Context, upload io.Reader) (Analysis, error) {
	headers, rows, err := parseCSV(upload)
	if err != nil {
		return Analysis{}, err
	}

	sample := rows
	if len(sample) > sampleRowCount {
		sample = sample[:sampleRowCount]
	}

	mapping, err := im.intel.AnalyzeCSV(ctx, headers, sample)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze csv columns: %w", err)
	}

	id := uuid.NewString()

	im.mu.Lock()
	im.pruneLocked()
	im.sessions[id] = &session{headers: headers, rows: rows, created: im.now()}
	im.mu.Unlock()

	preview := rows
	if len(preview) > previewRows {
		preview = preview[:previewRows]
	}

	im.logger.Info().Str("session", id).Int("rows", len(rows)).Msg("csv analyzed")

	return Analysis{
		SessionID: id,
		Headers:   headers,
		RowCount:  len(rows),
		Mapping:   mapping,
		Preview:   preview,
	}, nil
}

// Result summarizes a confirmed import.
type Result struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Confirm applies a column mapping to a session's rows and upserts each as a
// CSV-sourced reporter. Rows without a usable name are skipped, not fatal.
// The session is consumed regardless of outcome.
func (im *Importer) Confirm(ctx context.Context, sessionID string, mapping intel.ColumnMapping) (Result, error) {
	im.mu.Lock()
	sess, ok := im.sessions[sessionID]
	delete(im.sessions, sessionID)
	im.mu.Unlock()

	if !ok {
		return Result{}, ErrNoSession
	}

	idx := columnIndex(sess.headers)

	nameCol, ok := idx[strings.ToLower(mapping.Name)]
	if mapping.Name == "" || !ok {
		return Result{}, ErrNoNameField
	}

	lookup := func(header string, row []string) string {
		col, ok := idx[strings.ToLower(header)]
		if header == "" || !ok || col >= len(row) {
			return ""
		}

		return strings.TrimSpace(row[col])
	}

	var res Result

	for _, row := range sess.rows {
		if nameCol >= len(row) {
			res.Skipped++

			continue
		}

		name := strings.TrimSpace(row[nameCol])
		if len(name) < 2 {
			res.Skipped++

			continue
		}

		links := &storage.SocialLinks{}

		if tw := lookup(mapping.Twitter, row); tw != "" {
			links.TwitterHandle, links.TwitterURL = normalizeTwitter(tw)
		}
		if li := lookup(mapping.LinkedIn, row); li != "" {
			links.LinkedInURL = normalizeLinkedIn(li)
		}
		if links.Empty() {
			links = nil
		}

		_, err := im.store.UpsertReporter(ctx, storage.UpsertReporterParams{
			Name:          name,
			CurrentOutlet: lookup(mapping.Outlet, row),
			Bio:           lookup(mapping.Bio, row),
			SocialLinks:   links,
			Source:        storage.SourceCSVImport,
		})
		if err != nil {
			im.logger.Warn().Err(err).Str("name", name).Msg("roster row skipped")

			res.Skipped++

			continue
		}

		res.Imported++
	}

	im.logger.Info().Int("imported", res.Imported).Int("skipped", res.Skipped).Msg("csv import confirmed")

	return res, nil
}

func (im *Importer) pruneLocked() {
	cutoff := im.now().Add(-sessionTTL)

	for id, s := range im.sessions {
		if s.created.Before(cutoff) {
			delete(im.sessions, id)
		}
	}
}

func parseCSV(upload io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(io.LimitReader(upload, maxUploadBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > maxUploadBytes {
		return nil, nil, ErrTooLarge
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var (
		headers []string
		rows    [][]string
	)

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse csv: %w", err)
		}

		if headers == nil {
			for _, h := range record {
				headers = append(headers, strings.TrimSpace(h))
			}

			continue
		}

		rows = append(rows, record)
		if len(rows) > maxRows {
			return nil, nil, ErrTooManyRows
		}
	}

	if len(headers) == 0 || len(rows) == 0 {
		return nil, nil, ErrEmptyCSV
	}

	return headers, rows, nil
}

func columnIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))

	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}

	return idx
}

// normalizeTwitter accepts a bare handle, an @handle or a profile URL and
// returns both the canonical handle and URL.
func normalizeTwitter(raw string) (handle, url string) {
	v := strings.TrimSpace(raw)

	for _, prefix := range []string{"https://", "http://"} {
		v = strings.TrimPrefix(v, prefix)
	}
	for _, host := range []string{"twitter.com/", "x.com/", "www.twitter.com/", "www.x.com/"} {
		v = strings.TrimPrefix(v, host)
	}

	v = strings.TrimPrefix(v, "@")
	if i := strings.IndexAny(v, "/?"); i >= 0 {
		v = v[:i]
	}

	if v == "" {
		return "", ""
	}

	return "@" + v, "https://twitter.com/" + v
}

func normalizeLinkedIn(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}

	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		return v
	}

	if strings.HasPrefix(v, "linkedin.com/") || strings.HasPrefix(v, "www.linkedin.com/") {
		return "https://" + strings.TrimPrefix(v, "www.")
	}

	// A bare profile slug.
	return "https://www.linkedin.com/in/" + strings.TrimPrefix(v, "/")
}
