package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/adsift"
)

// Compile-time interface verification.
var _ adsift.AdStore = (*AdStore)(nil)

// AdStore implements adsift.AdStore using SQLite.
type AdStore struct {
	db *DB
}

// NewAdStore creates a new AdStore.
func NewAdStore(db *DB) *AdStore {
	return &AdStore{db: db}
}

// Fingerprint returns the archive key of an ad: a hash of its link, image
// and headline. The resolved destination is not part of it.
func Fingerprint(r adsift.AdRecord) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(r.Key()))
}

// SaveExport records the run and upserts its ads in one transaction.
func (s *AdStore) SaveExport(ctx context.Context, export *adsift.Export) error {
	if export == nil || export.ID == "" {
		return adsift.Errorf(adsift.EINVALID, "export ID required")
	}
	if export.CreatedAt.IsZero() {
		return adsift.Errorf(adsift.EINVALID, "export time required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	seenAt := formatTime(export.CreatedAt)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO exports (id, page_url, path, record_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, export.ID, export.PageURL, export.Path, len(export.Records), seenAt); err != nil {
		return fmt.Errorf("insert export: %w", err)
	}

	done := make(map[string]struct{}, len(export.Records))
	for i, r := range export.Records {
		fp := Fingerprint(r.AdRecord)
		if _, ok := done[fp]; ok {
			continue
		}
		done[fp] = struct{}{}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO ads (fingerprint, headline, link, image, destination, first_seen, last_seen, seen_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, 1)
			ON CONFLICT(fingerprint) DO UPDATE SET
				destination = excluded.destination,
				first_seen = MIN(ads.first_seen, excluded.first_seen),
				last_seen = MAX(ads.last_seen, excluded.last_seen),
				seen_count = ads.seen_count + 1
		`, fp, r.Headline, r.Link, r.Image, r.Destination, seenAt, seenAt); err != nil {
			return fmt.Errorf("upsert ad: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO export_ads (export_id, fingerprint, position)
			VALUES (?, ?, ?)
		`, export.ID, fp, i); err != nil {
			return fmt.Errorf("link ad to export: %w", err)
		}
	}

	return tx.Commit()
}

// FindAds retrieves archived ads matching the filter, most recently seen
// first.
func (s *AdStore) FindAds(ctx context.Context, filter adsift.AdFilter) ([]*adsift.ArchivedAd, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`
		SELECT fingerprint, headline, link, image, destination, first_seen, last_seen, seen_count
		FROM ads`)

	if filter.PageURL != "" {
		query.WriteString(`
		WHERE fingerprint IN (
			SELECT ea.fingerprint FROM export_ads ea
			JOIN exports e ON e.id = ea.export_id
			WHERE e.page_url = ?
		)`)
		args = append(args, filter.PageURL)
	}

	query.WriteString(" ORDER BY last_seen DESC, fingerprint")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ads []*adsift.ArchivedAd
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, err
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

// FindAdByFingerprint retrieves one archived ad.
func (s *AdStore) FindAdByFingerprint(ctx context.Context, fingerprint string) (*adsift.ArchivedAd, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, headline, link, image, destination, first_seen, last_seen, seen_count
		FROM ads
		WHERE fingerprint = ?
	`, fingerprint)

	ad, err := scanAd(row)
	if err == sql.ErrNoRows {
		return nil, adsift.Errorf(adsift.ENOTFOUND, "ad not found")
	}
	return ad, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAd(row scanner) (*adsift.ArchivedAd, error) {
	var ad adsift.ArchivedAd
	var firstSeen, lastSeen string

	if err := row.Scan(&ad.Fingerprint, &ad.Headline, &ad.Link, &ad.Image, &ad.Destination,
		&firstSeen, &lastSeen, &ad.SeenCount); err != nil {
		return nil, err
	}

	var err error
	if ad.FirstSeen, err = parseTime(firstSeen, "first_seen"); err != nil {
		return nil, err
	}
	if ad.LastSeen, err = parseTime(lastSeen, "last_seen"); err != nil {
		return nil, err
	}
	return &ad, nil
}
