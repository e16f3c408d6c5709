package algo

import (
	"testing"
	"time"

	"github.com/huangsam/repopulse/schema"
)

// FuzzAddMonths checks that month shifts land in the expected month and
// never move the day forward.
func FuzzAddMonths(f *testing.F) {
	seeds := []struct {
		unix   int64
		months int
	}{
		{time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC).Unix(), -1},
		{time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).Unix(), 1},
		{time.Date(2000, 2, 29, 12, 0, 0, 0, time.UTC).Unix(), 12},
		{0, -25},
	}
	for _, seed := range seeds {
		f.Add(seed.unix, seed.months)
	}

	f.Fuzz(func(t *testing.T, unix int64, months int) {
		if unix < -1e11 || unix > 1e11 || months < -5000 || months > 5000 {
			t.Skip()
		}
		from := time.Unix(unix, 0).UTC()
		got := AddMonths(from, months)

		wantIndex := from.Year()*12 + int(from.Month()) - 1 + months
		gotIndex := got.Year()*12 + int(got.Month()) - 1
		if gotIndex != wantIndex {
			t.Fatalf("AddMonths(%s, %d) = %s: wrong month", from, months, got)
		}
		if got.Day() > from.Day() {
			t.Fatalf("AddMonths(%s, %d) = %s: day moved forward", from, months, got)
		}
	})
}

// FuzzBuildAxis checks that axes start at earliest, end on latest, ascend and
// never repeat a label.
func FuzzBuildAxis(f *testing.F) {
	f.Add(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC).Unix(), int64(86400*400), "M")
	f.Add(int64(0), int64(86400*3), "D")
	f.Add(int64(0), int64(0), "Y")

	f.Fuzz(func(t *testing.T, start, span int64, g string) {
		if start < -1e10 || start > 1e10 || span < 0 || span > 86400*365*5 {
			t.Skip()
		}
		earliest := time.Unix(start, 0).UTC()
		latest := earliest.Add(time.Duration(span) * time.Second)

		axis, err := BuildAxis(earliest, latest, schema.Granularity(g))
		if err != nil {
			return
		}
		if len(axis) == 0 || !axis[0].Equal(earliest) {
			t.Fatalf("axis must start at earliest")
		}
		seen := make(map[string]bool, len(axis))
		for i, p := range axis {
			if p.After(latest) {
				t.Fatalf("point %s after latest %s", p, latest)
			}
			if i > 0 && !p.After(axis[i-1]) {
				t.Fatalf("axis not strictly ascending at %d", i)
			}
			label := FormatLabel(p, schema.Granularity(g)).String()
			if seen[label] {
				t.Fatalf("label %s repeated", label)
			}
			seen[label] = true
		}
		if len(axis) > 1 && !axis[len(axis)-1].Equal(latest) {
			t.Fatalf("axis must end on latest %s", latest)
		}
	})
}
