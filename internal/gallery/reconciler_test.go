package gallery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"optemus/internal/domain"
)

func rec(id, filename string, createdAt, modTime time.Time) domain.StoredImageRecord {
	return domain.StoredImageRecord{ID: id, Filename: filename, CreatedAt: createdAt, ModTime: modTime}
}

func TestResolveCreatedAtPrefersExplicitField(t *testing.T) {
	explicit := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r := rec("a", "generated_2020-01-01T00-00-00_1.png", explicit, time.Now())
	require.Equal(t, explicit, ResolveCreatedAt(r))
}

func TestResolveCreatedAtFilenameISOStamp(t *testing.T) {
	r := rec("a", "generated_2026-08-20T10-30-00-000Z_ab12_1.png", time.Time{}, time.Time{})
	require.Equal(t, time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC), ResolveCreatedAt(r))
}

func TestResolveCreatedAtFilenameEpoch(t *testing.T) {
	r := rec("a", "prefix_1755684600000.png", time.Time{}, time.Time{})
	require.Equal(t, time.UnixMilli(1755684600000).UTC(), ResolveCreatedAt(r))

	r = rec("a", "prefix_1755684600.png", time.Time{}, time.Time{})
	require.Equal(t, time.Unix(1755684600, 0).UTC(), ResolveCreatedAt(r))
}

func TestResolveCreatedAtModTimeFallback(t *testing.T) {
	mod := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	r := rec("a", "plain.png", time.Time{}, mod)
	require.Equal(t, mod, ResolveCreatedAt(r))
}

func TestResolveCreatedAtEpochZeroLastResort(t *testing.T) {
	r := rec("a", "plain.png", time.Time{}, time.Time{})
	require.Equal(t, time.Unix(0, 0).UTC(), ResolveCreatedAt(r))
}

func TestReconcileTotalOrderWithUnparseableTimestamps(t *testing.T) {
	records := []domain.StoredImageRecord{
		rec("a", "mystery-one.png", time.Time{}, time.Time{}),
		rec("b", "mystery-two.png", time.Time{}, time.Time{}),
	}
	out := Reconcile(records)
	require.Len(t, out, 2)
	// Both resolve to epoch zero; reverse filename order breaks the tie.
	require.Equal(t, "mystery-two.png", out[0].Filename)
	require.Equal(t, "mystery-one.png", out[1].Filename)

	// Same input in any order yields the same view.
	reversed := Reconcile([]domain.StoredImageRecord{records[1], records[0]})
	require.Equal(t, out, reversed)
}

func TestReconcileNewestFirst(t *testing.T) {
	older := rec("old", "old.png", time.Date(2026, 8, 19, 0, 0, 0, 0, time.UTC), time.Time{})
	newer := rec("new", "new.png", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), time.Time{})
	stampOnly := rec("mid", "generated_2026-08-19T12-00-00_x_1.png", time.Time{}, time.Time{})

	out := Reconcile([]domain.StoredImageRecord{older, stampOnly, newer})
	require.Equal(t, []string{"new", "mid", "old"}, []string{out[0].ID, out[1].ID, out[2].ID})
}

func TestReconcileDeduplicatesByID(t *testing.T) {
	first := rec("dup", "a.png", time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC), time.Time{})
	first.Prompt = "kept"
	second := rec("dup", "b.png", time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC), time.Time{})
	second.Prompt = "dropped"

	out := Reconcile([]domain.StoredImageRecord{first, second})
	require.Len(t, out, 1)
	require.Equal(t, "kept", out[0].Prompt)
}

func TestReconcileKeepsRecordsWithoutIDs(t *testing.T) {
	out := Reconcile([]domain.StoredImageRecord{
		rec("", "x.png", time.Time{}, time.Time{}),
		rec("", "y.png", time.Time{}, time.Time{}),
	})
	require.Len(t, out, 2)
}
