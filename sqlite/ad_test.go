package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/fwojciec/adsift"
	"github.com/fwojciec/adsift/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db := sqlite.NewDB(":memory:")
	require.NoError(t, db.Open())
	t.Cleanup(func() { db.Close() })
	return db
}

func record(headline, link, dest string) adsift.ResolvedAdRecord {
	return adsift.ResolvedAdRecord{
		AdRecord:    adsift.AdRecord{Headline: headline, Link: link, Image: link + ".png"},
		Destination: dest,
	}
}

func export(id, page string, at time.Time, records ...adsift.ResolvedAdRecord) *adsift.Export {
	return &adsift.Export{
		ID:        id,
		PageURL:   page,
		Path:      "/exports/" + id + ".csv",
		Records:   records,
		CreatedAt: at,
	}
}

var t0 = time.Date(2025, 3, 9, 14, 0, 0, 0, time.UTC)

func TestAdStore_SaveExport(t *testing.T) {
	t.Parallel()

	t.Run("archives each ad once and counts sightings", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewAdStore(db)
		ctx := context.Background()

		a := record("A", "https://click.test/a", "https://shop.test/a")
		b := record("B", "https://click.test/b", "https://click.test/b")

		require.NoError(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0, a, b)))
		a2 := a
		a2.Destination = "https://shop.test/a?v=2"
		require.NoError(t, store.SaveExport(ctx, export("e2", "https://news.test/", t0.Add(time.Minute), a2)))

		got, err := store.FindAdByFingerprint(ctx, sqlite.Fingerprint(a.AdRecord))
		require.NoError(t, err)
		assert.Equal(t, "A", got.Headline)
		assert.Equal(t, "https://click.test/a", got.Link)
		assert.Equal(t, "https://click.test/a.png", got.Image)
		assert.Equal(t, "https://shop.test/a?v=2", got.Destination)
		assert.Equal(t, 2, got.SeenCount)
		assert.True(t, got.FirstSeen.Equal(t0))
		assert.True(t, got.LastSeen.Equal(t0.Add(time.Minute)))

		got, err = store.FindAdByFingerprint(ctx, sqlite.Fingerprint(b.AdRecord))
		require.NoError(t, err)
		assert.Equal(t, 1, got.SeenCount)

		var exports int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM exports").Scan(&exports))
		assert.Equal(t, 2, exports)
	})

	t.Run("ignores duplicate records within one export", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewAdStore(setupTestDB(t))
		ctx := context.Background()
		a := record("A", "https://click.test/a", "")

		require.NoError(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0, a, a)))

		got, err := store.FindAdByFingerprint(ctx, sqlite.Fingerprint(a.AdRecord))
		require.NoError(t, err)
		assert.Equal(t, 1, got.SeenCount)
	})

	t.Run("empty export is recorded", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		store := sqlite.NewAdStore(db)
		ctx := context.Background()

		require.NoError(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0)))

		var count int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT record_count FROM exports WHERE id = 'e1'").Scan(&count))
		assert.Equal(t, 0, count)
	})

	t.Run("rejects duplicate export IDs atomically", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewAdStore(setupTestDB(t))
		ctx := context.Background()
		a := record("A", "https://click.test/a", "")
		b := record("B", "https://click.test/b", "")

		require.NoError(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0, a)))
		require.Error(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0, b)))

		_, err := store.FindAdByFingerprint(ctx, sqlite.Fingerprint(b.AdRecord))
		assert.Equal(t, adsift.ENOTFOUND, adsift.ErrorCode(err))
	})

	t.Run("validates the export", func(t *testing.T) {
		t.Parallel()

		store := sqlite.NewAdStore(setupTestDB(t))

		err := store.SaveExport(context.Background(), &adsift.Export{CreatedAt: t0})
		assert.Equal(t, adsift.EINVALID, adsift.ErrorCode(err))

		err = store.SaveExport(context.Background(), &adsift.Export{ID: "x"})
		assert.Equal(t, adsift.EINVALID, adsift.ErrorCode(err))
	})
}

func TestAdStore_FindAds(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	store := sqlite.NewAdStore(db)
	ctx := context.Background()

	a := record("A", "https://click.test/a", "")
	b := record("B", "https://click.test/b", "")
	c := record("C", "https://click.test/c", "")

	require.NoError(t, store.SaveExport(ctx, export("e1", "https://news.test/", t0, a, b)))
	require.NoError(t, store.SaveExport(ctx, export("e2", "https://other.test/", t0.Add(time.Hour), c)))
	require.NoError(t, store.SaveExport(ctx, export("e3", "https://news.test/", t0.Add(2*time.Hour), b)))

	headlines := func(ads []*adsift.ArchivedAd) []string {
		var out []string
		for _, a := range ads {
			out = append(out, a.Headline)
		}
		return out
	}

	t.Run("most recently seen first", func(t *testing.T) {
		t.Parallel()

		ads, err := store.FindAds(ctx, adsift.AdFilter{})

		require.NoError(t, err)
		assert.Equal(t, []string{"B", "C", "A"}, headlines(ads))
	})

	t.Run("filters by page", func(t *testing.T) {
		t.Parallel()

		ads, err := store.FindAds(ctx, adsift.AdFilter{PageURL: "https://news.test/"})

		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, headlines(ads))
	})

	t.Run("paginates", func(t *testing.T) {
		t.Parallel()

		ads, err := store.FindAds(ctx, adsift.AdFilter{Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"C"}, headlines(ads))

		ads, err = store.FindAds(ctx, adsift.AdFilter{Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, headlines(ads))
	})

	t.Run("unknown page yields nothing", func(t *testing.T) {
		t.Parallel()

		ads, err := store.FindAds(ctx, adsift.AdFilter{PageURL: "https://none.test/"})

		require.NoError(t, err)
		assert.Empty(t, ads)
	})
}

func TestFingerprint(t *testing.T) {
	t.Parallel()

	a := adsift.AdRecord{Headline: "A", Link: "https://click.test/a", Image: "i"}

	assert.Len(t, sqlite.Fingerprint(a), 16)
	assert.Equal(t, sqlite.Fingerprint(a), sqlite.Fingerprint(a))
	assert.NotEqual(t, sqlite.Fingerprint(a), sqlite.Fingerprint(adsift.AdRecord{Headline: "B", Link: a.Link, Image: a.Image}))
}
