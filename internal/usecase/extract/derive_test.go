package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitmeta/internal/domain/entity"
)

func derivedService() *Service {
	return &Service{}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestBusFactor(t *testing.T) {
	commits := []entity.Commit{
		{SHA: "a1", Author: "alice"},
		{SHA: "a2", Author: "alice"},
		{SHA: "a3", Author: "alice"},
		{SHA: "b1", Author: "bob"},
		{SHA: "b2", Author: "bob"},
	}

	result := derivedService().BusFactor(commits)

	assert.Equal(t, 5, result.TotalCommits)
	require.NotNil(t, result.Top1Pct)
	require.NotNil(t, result.Top2Pct)
	assert.InDelta(t, 0.6, *result.Top1Pct, 1e-9)
	assert.InDelta(t, 1.0, *result.Top2Pct, 1e-9)

	require.Len(t, result.TopAuthors, 2)
	assert.Equal(t, "alice", result.TopAuthors[0].Author)
	assert.Equal(t, 3, result.TopAuthors[0].Commits)
	assert.InDelta(t, 0.6, result.TopAuthors[0].Share, 1e-9)
	assert.Equal(t, "bob", result.TopAuthors[1].Author)
}

func TestBusFactorSingleAuthor(t *testing.T) {
	commits := []entity.Commit{
		{SHA: "a1", Author: "alice"},
		{SHA: "a2", Author: "alice"},
	}

	result := derivedService().BusFactor(commits)

	require.NotNil(t, result.Top1Pct)
	require.NotNil(t, result.Top2Pct)
	assert.InDelta(t, 1.0, *result.Top1Pct, 1e-9)
	assert.InDelta(t, 1.0, *result.Top2Pct, 1e-9)
}

func TestBusFactorTieBreaksByAuthorName(t *testing.T) {
	commits := []entity.Commit{
		{SHA: "b1", Author: "bob"},
		{SHA: "a1", Author: "alice"},
	}

	result := derivedService().BusFactor(commits)

	require.Len(t, result.TopAuthors, 2)
	assert.Equal(t, "alice", result.TopAuthors[0].Author)
}

func TestBusFactorNoCommits(t *testing.T) {
	result := derivedService().BusFactor(nil)

	assert.Equal(t, 0, result.TotalCommits)
	assert.Nil(t, result.Top1Pct)
	assert.Nil(t, result.Top2Pct)
	assert.Empty(t, result.TopAuthors)
}

func TestBusFactorCapsTopAuthorsAtFive(t *testing.T) {
	var commits []entity.Commit
	for _, author := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		commits = append(commits, entity.Commit{SHA: author, Author: author})
	}

	result := derivedService().BusFactor(commits)

	assert.Len(t, result.TopAuthors, 5)
}

func TestPRMetrics(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	merged := func(days float64) entity.PullRequest {
		return entity.PullRequest{
			State:     "closed",
			Merged:    true,
			CreatedAt: timePtr(base),
			MergedAt:  timePtr(base.Add(time.Duration(days * 24 * float64(time.Hour)))),
		}
	}

	pulls := []entity.PullRequest{
		merged(1),
		merged(3),
		merged(5),
		{State: "closed", Merged: false},
		{State: "open"},
	}

	m := derivedService().PRMetrics(pulls)

	assert.Equal(t, 5, m.Total)
	assert.Equal(t, 3, m.Merged)
	assert.Equal(t, 4, m.Closed)
	require.NotNil(t, m.MergeRate)
	assert.InDelta(t, 0.75, *m.MergeRate, 1e-9)
	require.NotNil(t, m.MedianMergeDays)
	assert.InDelta(t, 3.0, *m.MedianMergeDays, 1e-9)
	require.NotNil(t, m.MeanMergeDays)
	assert.InDelta(t, 3.0, *m.MeanMergeDays, 1e-9)
}

func TestPRMetricsEvenCountMedian(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	pulls := []entity.PullRequest{
		{State: "closed", Merged: true, CreatedAt: timePtr(base), MergedAt: timePtr(base.AddDate(0, 0, 2))},
		{State: "closed", Merged: true, CreatedAt: timePtr(base), MergedAt: timePtr(base.AddDate(0, 0, 4))},
	}

	m := derivedService().PRMetrics(pulls)

	require.NotNil(t, m.MedianMergeDays)
	assert.InDelta(t, 3.0, *m.MedianMergeDays, 1e-9)
}

func TestPRMetricsNoClosedPRs(t *testing.T) {
	m := derivedService().PRMetrics([]entity.PullRequest{{State: "open"}})

	assert.Equal(t, 1, m.Total)
	assert.Nil(t, m.MergeRate)
	assert.Nil(t, m.MedianMergeDays)
	assert.Nil(t, m.MeanMergeDays)
}

func TestPRMetricsMergedWithoutTimestamps(t *testing.T) {
	m := derivedService().PRMetrics([]entity.PullRequest{
		{State: "closed", Merged: true},
	})

	assert.Equal(t, 1, m.Merged)
	require.NotNil(t, m.MergeRate)
	assert.InDelta(t, 1.0, *m.MergeRate, 1e-9)
	assert.Nil(t, m.MedianMergeDays)
}

func TestIssueMetrics(t *testing.T) {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	issues := []entity.Issue{
		{State: "closed", CreatedAt: timePtr(base), ClosedAt: timePtr(base.AddDate(0, 0, 2))},
		{State: "closed", CreatedAt: timePtr(base), ClosedAt: timePtr(base.AddDate(0, 0, 6))},
		{State: "open"},
		{State: "open"},
	}

	m := derivedService().IssueMetrics(issues)

	assert.Equal(t, 4, m.Total)
	assert.Equal(t, 2, m.Closed)
	require.NotNil(t, m.ClosureRate)
	assert.InDelta(t, 0.5, *m.ClosureRate, 1e-9)
	require.NotNil(t, m.MedianResolutionDays)
	assert.InDelta(t, 4.0, *m.MedianResolutionDays, 1e-9)
	require.NotNil(t, m.MeanResolutionDays)
	assert.InDelta(t, 4.0, *m.MeanResolutionDays, 1e-9)
}

func TestIssueMetricsNoIssues(t *testing.T) {
	m := derivedService().IssueMetrics(nil)

	assert.Equal(t, 0, m.Total)
	assert.Nil(t, m.ClosureRate)
	assert.Nil(t, m.MedianResolutionDays)
}

func TestCommitActivity(t *testing.T) {
	commits := []entity.Commit{
		// Monday of ISO week 2025-W10.
		{Date: timePtr(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC))},
		{Date: timePtr(time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC))},
		{Date: timePtr(time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC))},
		{Date: timePtr(time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC))},
		{Date: nil},
	}

	activity := derivedService().CommitActivity(commits)

	assert.Equal(t, 2, activity.ByWeek["2025-W10"])
	assert.Equal(t, 1, activity.ByWeek["2025-W11"])
	assert.Equal(t, 3, activity.ByMonth["2025-03"])
	assert.Equal(t, 1, activity.ByMonth["2025-04"])
}

func TestCommitActivityJanuaryBoundaryWeek(t *testing.T) {
	// 2026-01-01 falls in ISO week 2026-W01; 2027-01-01 falls in 2026-W53.
	commits := []entity.Commit{
		{Date: timePtr(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC))},
	}

	activity := derivedService().CommitActivity(commits)

	assert.Equal(t, 1, activity.ByWeek["2026-W53"])
	assert.Equal(t, 1, activity.ByMonth["2027-01"])
}

func TestReleaseCadence(t *testing.T) {
	releases := []entity.Release{
		{Tag: "v1.2.0", PublishedAt: timePtr(time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC))},
		{Tag: "v1.1.0", PublishedAt: timePtr(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))},
		{Tag: "v1.0.0", PublishedAt: timePtr(time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))},
	}
	tags := []string{"v1.2.0", "v1.1.0", "v1.0.0", "v0.9.0"}

	cadence := releaseCadence(releases, tags)

	assert.Equal(t, 3, cadence.Releases)
	assert.Equal(t, 4, cadence.Tags)
	assert.Equal(t, "v1.2.0", cadence.Latest)
	require.NotNil(t, cadence.AvgDaysBetween)
	assert.InDelta(t, 30.0, *cadence.AvgDaysBetween, 1e-9)
}

func TestReleaseCadenceFewerThanTwoDatedReleases(t *testing.T) {
	releases := []entity.Release{
		{Tag: "v1.0.0", PublishedAt: timePtr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))},
		{Tag: "v0.9.0"},
	}

	cadence := releaseCadence(releases, nil)

	assert.Equal(t, "v1.0.0", cadence.Latest)
	assert.Nil(t, cadence.AvgDaysBetween)
}

func TestEstimateLanguageLOC(t *testing.T) {
	estimates := estimateLanguageLOC(map[string]int64{
		"Go":   5000,
		"HTML": 20,
	})

	assert.Equal(t, int64(100), estimates["Go"])
	// Tiny byte counts still round up to one line.
	assert.Equal(t, int64(1), estimates["HTML"])
}
