// Package gallery turns a backend's raw listing into the canonical view:
// deduplicated, newest-first, with a total order even for records whose
// timestamps cannot be recovered.
package gallery

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"optemus/internal/domain"
)

// Filename-embedded timestamp encodings. Generated filenames carry an
// ISO-like stamp with hyphens substituted for colons in the time portion
// (filesystem-safe), older ones a raw epoch suffix.
var (
	isoStampPattern   = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})T(\d{2})-(\d{2})-(\d{2})`)
	epochStampPattern = regexp.MustCompile(`_(\d{10,13})(?:\D|$)`)
)

// ResolveCreatedAt resolves an ordering timestamp for a record, trying in
// order: the explicit createdAt field, a filename-embedded ISO stamp, a
// filename-embedded epoch, the backend-native modification time, and finally
// epoch zero. The chain guarantees every record gets a defined position;
// unresolvable ones sink to the end of the gallery.
func ResolveCreatedAt(rec domain.StoredImageRecord) time.Time {
	if !rec.CreatedAt.IsZero() {
		return rec.CreatedAt
	}
	if ts, ok := timestampFromFilename(rec.Filename); ok {
		return ts
	}
	if !rec.ModTime.IsZero() {
		return rec.ModTime
	}
	return time.Unix(0, 0).UTC()
}

func timestampFromFilename(filename string) (time.Time, bool) {
	if m := isoStampPattern.FindStringSubmatch(filename); m != nil {
		ts, err := time.Parse("2006-01-02T15:04:05", m[1]+"T"+m[2]+":"+m[3]+":"+m[4])
		if err == nil {
			return ts.UTC(), true
		}
	}
	if m := epochStampPattern.FindStringSubmatch(filename); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err == nil {
			if len(m[1]) >= 13 {
				return time.UnixMilli(n).UTC(), true
			}
			return time.Unix(n, 0).UTC(), true
		}
	}
	return time.Time{}, false
}

// Reconcile produces the gallery view: records deduplicated by id (first
// occurrence wins) and sorted newest-first. Ties break by reverse
// lexicographic filename, then id, so the order is deterministic for any
// input.
func Reconcile(records []domain.StoredImageRecord) []domain.StoredImageRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.StoredImageRecord, 0, len(records))
	for _, rec := range records {
		if rec.ID != "" {
			if _, dup := seen[rec.ID]; dup {
				continue
			}
			seen[rec.ID] = struct{}{}
		}
		rec.CreatedAt = ResolveCreatedAt(rec)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Filename != b.Filename {
			return a.Filename > b.Filename
		}
		return a.ID > b.ID
	})
	return out
}
