package algo

import (
	"math/rand/v2"
	"strconv"
	"testing"
	"time"

	"github.com/huangsam/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func counts(rows []schema.StatusRow) [][]int {
	out := make([][]int, len(rows))
	for i, r := range rows {
		out[i] = r.Counts
	}
	return out
}

// TestClassifyDrift tests bucket assignment and per-contributor deduplication.
func TestClassifyDrift(t *testing.T) {
	events := []schema.ContributionEvent{
		{ContributorID: "a", Created: day(2024, 1, 20)},
		{ContributorID: "a", Created: day(2023, 1, 1)},
		{ContributorID: "b", Created: day(2023, 6, 1)},
		{ContributorID: "c", Created: day(2022, 1, 1)},
	}
	axis := []time.Time{day(2023, 3, 1), day(2024, 2, 1)}

	rows := ClassifyDrift(events, axis, 1, 12)

	assert.Equal(t, [][]int{
		{0, 1, 1}, // a drifting on its 2023 contribution, c away
		{1, 1, 1}, // a active again, b drifting, c away
	}, counts(rows))
	assert.Equal(t, axis[0], rows[0].Date)
}

// TestClassifyDriftTieGoesToActive tests that a tenure of exactly the drift
// threshold is Active.
func TestClassifyDriftTieGoesToActive(t *testing.T) {
	events := []schema.ContributionEvent{{ContributorID: "a", Created: day(2024, 1, 1)}}
	rows := ClassifyDrift(events, []time.Time{day(2024, 2, 1)}, 1, 12)
	assert.Equal(t, [][]int{{1, 0, 0}}, counts(rows))
}

// TestClassifyDriftAwayTie tests that a contribution exactly at the away cutoff is Away.
func TestClassifyDriftAwayTie(t *testing.T) {
	events := []schema.ContributionEvent{{ContributorID: "a", Created: day(2023, 2, 1)}}
	rows := ClassifyDrift(events, []time.Time{day(2024, 2, 1)}, 1, 12)
	assert.Equal(t, [][]int{{0, 0, 1}}, counts(rows))
}

// TestClassifyDriftMonthClamp tests that the drift cutoff uses calendar months.
func TestClassifyDriftMonthClamp(t *testing.T) {
	// Mar 31 - 1 month = Feb 29, so a Feb 29 contribution is Active.
	events := []schema.ContributionEvent{
		{ContributorID: "a", Created: day(2024, 2, 29)},
		{ContributorID: "b", Created: day(2024, 2, 28)},
	}
	rows := ClassifyDrift(events, []time.Time{day(2024, 3, 31)}, 1, 6)
	assert.Equal(t, [][]int{{1, 1, 0}}, counts(rows))
}

// TestClassifyStaleness tests the open population and every boundary.
func TestClassifyStaleness(t *testing.T) {
	events := []schema.IssueEvent{
		// new, and new on the staling cutoff tie
		{IssueID: "1", Created: day(2024, 1, 30)},
		{IssueID: "2", Created: day(2024, 1, 24)},
		// staling
		{IssueID: "3", Created: day(2024, 1, 10)},
		// stale on the stale cutoff tie
		{IssueID: "4", Created: day(2024, 1, 1)},
		// closed before or on d
		{IssueID: "5", Created: day(2023, 12, 1), Closed: ptr(day(2024, 1, 15))},
		{IssueID: "8", Created: day(2023, 12, 1), Closed: ptr(day(2024, 1, 31))},
		// closed after d, so still open and stale
		{IssueID: "6", Created: day(2023, 12, 1), Closed: ptr(day(2024, 2, 5))},
		// not yet created
		{IssueID: "7", Created: day(2024, 2, 10)},
	}

	rows := ClassifyStaleness(events, []time.Time{day(2024, 1, 31)}, 7, 30)

	assert.Equal(t, [][]int{{2, 1, 2}}, counts(rows))
}

// TestClassifyResponse tests self-response exclusion and the response window.
func TestClassifyResponse(t *testing.T) {
	created := day(2024, 1, 1)
	events := []schema.IssueResponseEvent{
		{IssueID: "x", AuthorID: "alice", Created: created, MessageAuthorID: ptr("alice"), MessageTime: ptr(created.Add(time.Hour))},
		{IssueID: "x", AuthorID: "alice", Created: created, MessageAuthorID: ptr("bob"), MessageTime: ptr(day(2024, 1, 2))},
		{IssueID: "y", AuthorID: "carol", Created: created, MessageAuthorID: ptr("carol"), MessageTime: ptr(day(2024, 1, 1))},
		{IssueID: "z", AuthorID: "erin", Created: created, Closed: ptr(day(2024, 1, 3)), MessageAuthorID: ptr("dave"), MessageTime: ptr(day(2024, 1, 5))},
		{IssueID: "w", AuthorID: "frank", Created: created, MessageAuthorID: ptr("gina"), MessageTime: ptr(day(2024, 1, 3))},
	}
	issues := FirstResponses(events)
	require.Len(t, issues, 4)

	rows := ClassifyResponse(issues, []time.Time{day(2024, 1, 2), day(2024, 1, 4)}, 2)

	// w responds exactly at created + 2 days, which is outside the window.
	assert.Equal(t, [][]int{{4, 1}, {3, 1}}, counts(rows))
}

// TestFirstResponses tests that only the earliest non-author message is kept.
func TestFirstResponses(t *testing.T) {
	created := day(2024, 1, 1)
	events := []schema.IssueResponseEvent{
		{IssueID: "x", AuthorID: "alice", Created: created, MessageAuthorID: ptr("bob"), MessageTime: ptr(day(2024, 1, 9))},
		{IssueID: "x", AuthorID: "alice", Created: created, MessageAuthorID: ptr("alice"), MessageTime: ptr(day(2024, 1, 2))},
		{IssueID: "x", AuthorID: "alice", Created: created, MessageAuthorID: ptr("carl"), MessageTime: ptr(day(2024, 1, 5))},
		{IssueID: "y", AuthorID: "dana", Created: created},
		{IssueID: "z", AuthorID: "ed", Created: created, MessageAuthorID: ptr("ed"), MessageTime: ptr(day(2024, 1, 2))},
	}

	issues := FirstResponses(events)

	require.Len(t, issues, 3)
	assert.Equal(t, "x", issues[0].IssueID)
	require.NotNil(t, issues[0].FirstResponse)
	assert.Equal(t, day(2024, 1, 5), *issues[0].FirstResponse)
	assert.Nil(t, issues[1].FirstResponse)
	assert.Nil(t, issues[2].FirstResponse)
}

func TestFirstResponsesPerRepo(t *testing.T) {
	created := day(2024, 1, 1)
	events := []schema.IssueResponseEvent{
		{RepoID: "1", IssueID: "7", AuthorID: "alice", Created: created, MessageAuthorID: ptr("bob"), MessageTime: ptr(day(2024, 1, 2))},
		{RepoID: "2", IssueID: "7", AuthorID: "carol", Created: created},
	}

	issues := FirstResponses(events)

	require.Len(t, issues, 2)
	assert.Equal(t, "1", issues[0].RepoID)
	require.NotNil(t, issues[0].FirstResponse)
	assert.Equal(t, "2", issues[1].RepoID)
	assert.Nil(t, issues[1].FirstResponse)
}

// TestBounds tests axis endpoints per page.
func TestBounds(t *testing.T) {
	_, _, ok := DriftBounds(nil)
	assert.False(t, ok)

	lo, hi, ok := DriftBounds([]schema.ContributionEvent{
		{Created: day(2024, 3, 1)}, {Created: day(2024, 1, 1)}, {Created: day(2024, 2, 1)},
	})
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 1), lo)
	assert.Equal(t, day(2024, 3, 1), hi)

	lo, hi, ok = StalenessBounds([]schema.IssueEvent{
		{Created: day(2024, 2, 1)},
		{Created: day(2024, 1, 1), Closed: ptr(day(2024, 6, 1))},
	})
	require.True(t, ok)
	assert.Equal(t, day(2024, 1, 1), lo)
	assert.Equal(t, day(2024, 6, 1), hi)

	lo, hi, ok = ResponseBounds([]schema.IssueFirstResponse{
		{Created: day(2024, 5, 1), Closed: ptr(day(2024, 5, 2))},
		{Created: day(2024, 4, 1)},
	})
	require.True(t, ok)
	assert.Equal(t, day(2024, 4, 1), lo)
	assert.Equal(t, day(2024, 5, 2), hi)
}

// TestClassifiersArePartitions checks that bucket counts are non-negative,
// sum to the population and that populations behave as expected along the axis.
func TestClassifiersArePartitions(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	base := day(2022, 1, 1)

	var contributions []schema.ContributionEvent
	var issues []schema.IssueEvent
	for i := range 300 {
		created := base.Add(time.Duration(r.IntN(900*24)) * time.Hour)
		contributions = append(contributions, schema.ContributionEvent{
			ContributorID: strconv.Itoa(r.IntN(40)),
			Created:       created,
		})
		issue := schema.IssueEvent{IssueID: strconv.Itoa(i), Created: created}
		if r.IntN(2) == 0 {
			issue.Closed = ptr(created.Add(time.Duration(r.IntN(200*24)) * time.Hour))
		}
		issues = append(issues, issue)
	}

	lo, hi, _ := DriftBounds(contributions)
	axis, err := BuildAxis(lo, hi, schema.Monthly)
	require.NoError(t, err)

	prev := 0
	for _, row := range ClassifyDrift(contributions, axis, 3, 9) {
		total := 0
		for _, c := range row.Counts {
			assert.GreaterOrEqual(t, c, 0)
			total += c
		}
		seen := map[string]struct{}{}
		for _, e := range contributions {
			if !e.Created.After(row.Date) {
				seen[e.ContributorID] = struct{}{}
			}
		}
		assert.Equal(t, len(seen), total)
		assert.GreaterOrEqual(t, total, prev, "drift population must not shrink")
		prev = total
	}

	lo, hi, _ = StalenessBounds(issues)
	axis, err = BuildAxis(lo, hi, schema.Daily)
	require.NoError(t, err)

	for _, row := range ClassifyStaleness(issues, axis, 10, 45) {
		total := 0
		for _, c := range row.Counts {
			assert.GreaterOrEqual(t, c, 0)
			total += c
		}
		open := 0
		for _, e := range issues {
			if !e.Created.After(row.Date) && (e.Closed == nil || e.Closed.After(row.Date)) {
				open++
			}
		}
		assert.Equal(t, open, total)
	}
}

// TestClassifyResponseSubset checks that Response never exceeds Open.
func TestClassifyResponseSubset(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	base := day(2023, 1, 1)
	var events []schema.IssueResponseEvent
	for i := range 120 {
		created := base.Add(time.Duration(r.IntN(300*24)) * time.Hour)
		author := "u" + strconv.Itoa(r.IntN(6))
		e := schema.IssueResponseEvent{IssueID: strconv.Itoa(i % 60), AuthorID: author, Created: created}
		if r.IntN(3) > 0 {
			e.MessageAuthorID = ptr("u" + strconv.Itoa(r.IntN(6)))
			e.MessageTime = ptr(created.Add(time.Duration(r.IntN(10*24)) * time.Hour))
		}
		events = append(events, e)
	}

	issues := FirstResponses(events)
	lo, hi, _ := ResponseBounds(issues)
	axis, err := BuildAxis(lo, hi, schema.Daily)
	require.NoError(t, err)

	for _, row := range ClassifyResponse(issues, axis, 3) {
		assert.LessOrEqual(t, row.Counts[1], row.Counts[0])
	}
}
