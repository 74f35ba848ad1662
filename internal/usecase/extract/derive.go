package extract

import (
	"fmt"
	"sort"
	"time"

	"gitmeta/internal/domain/entity"
)

// Derived operations compute metrics from already-extracted base records.
// They are pure in-memory computations and never touch the upstream API.

// BusFactor ranks commit authors by commit count and reports how much of
// the history the top one and top two authors account for. The percentages
// are nil when there are no commits.
func (s *Service) BusFactor(commits []entity.Commit) *entity.BusFactor {
	result := &entity.BusFactor{TotalCommits: len(commits)}
	if len(commits) == 0 {
		return result
	}

	counts := make(map[string]int)
	for _, c := range commits {
		counts[c.Author]++
	}

	type authorCount struct {
		author  string
		commits int
	}
	ranked := make([]authorCount, 0, len(counts))
	for author, n := range counts {
		ranked = append(ranked, authorCount{author, n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].commits != ranked[j].commits {
			return ranked[i].commits > ranked[j].commits
		}
		return ranked[i].author < ranked[j].author
	})

	total := float64(len(commits))
	top1 := float64(ranked[0].commits) / total
	top2 := top1
	if len(ranked) > 1 {
		top2 = (float64(ranked[0].commits) + float64(ranked[1].commits)) / total
	}
	result.Top1Pct = &top1
	result.Top2Pct = &top2

	limit := len(ranked)
	if limit > 5 {
		limit = 5
	}
	for _, ac := range ranked[:limit] {
		result.TopAuthors = append(result.TopAuthors, entity.ContributorShare{
			Author:  ac.author,
			Commits: ac.commits,
			Share:   float64(ac.commits) / total,
		})
	}
	return result
}

// PRMetrics computes the merge rate and merge-duration statistics over the
// extracted pull requests. MergeRate is nil when no pull requests are
// closed; duration statistics are nil when no merged PR carries both
// creation and merge timestamps.
func (s *Service) PRMetrics(pulls []entity.PullRequest) *entity.PRMetrics {
	m := &entity.PRMetrics{Total: len(pulls)}

	var durations []float64
	for _, pr := range pulls {
		if pr.State == "closed" {
			m.Closed++
		}
		if pr.Merged {
			m.Merged++
			if pr.CreatedAt != nil && pr.MergedAt != nil {
				durations = append(durations, daysBetween(*pr.CreatedAt, *pr.MergedAt))
			}
		}
	}

	if m.Closed > 0 {
		rate := float64(m.Merged) / float64(m.Closed)
		m.MergeRate = &rate
	}
	if len(durations) > 0 {
		med := median(durations)
		avg := mean(durations)
		m.MedianMergeDays = &med
		m.MeanMergeDays = &avg
	}
	return m
}

// IssueMetrics computes the closure rate and resolution-duration statistics
// over the extracted issues.
func (s *Service) IssueMetrics(issues []entity.Issue) *entity.IssueMetrics {
	m := &entity.IssueMetrics{Total: len(issues)}

	var durations []float64
	for _, issue := range issues {
		if issue.State != "closed" {
			continue
		}
		m.Closed++
		if issue.CreatedAt != nil && issue.ClosedAt != nil {
			durations = append(durations, daysBetween(*issue.CreatedAt, *issue.ClosedAt))
		}
	}

	if m.Total > 0 {
		rate := float64(m.Closed) / float64(m.Total)
		m.ClosureRate = &rate
	}
	if len(durations) > 0 {
		med := median(durations)
		avg := mean(durations)
		m.MedianResolutionDays = &med
		m.MeanResolutionDays = &avg
	}
	return m
}

// CommitActivity buckets commit timestamps into ISO-week and year-month
// histograms. Commits without a timestamp are skipped.
func (s *Service) CommitActivity(commits []entity.Commit) *entity.CommitActivity {
	activity := &entity.CommitActivity{
		ByWeek:  make(map[string]int),
		ByMonth: make(map[string]int),
	}
	for _, c := range commits {
		if c.Date == nil {
			continue
		}
		year, week := c.Date.ISOWeek()
		activity.ByWeek[fmt.Sprintf("%04d-W%02d", year, week)]++
		activity.ByMonth[c.Date.Format("2006-01")]++
	}
	return activity
}

// releaseCadence summarizes release frequency from the release and tag
// listings. The average interval is nil with fewer than two dated releases.
func releaseCadence(releases []entity.Release, tags []string) *entity.ReleaseCadence {
	cadence := &entity.ReleaseCadence{
		Releases: len(releases),
		Tags:     len(tags),
	}
	if len(releases) > 0 {
		cadence.Latest = releases[0].Tag
	}

	var dates []time.Time
	for _, r := range releases {
		if r.PublishedAt != nil {
			dates = append(dates, *r.PublishedAt)
		}
	}
	if len(dates) < 2 {
		return cadence
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	span := daysBetween(dates[0], dates[len(dates)-1])
	avg := span / float64(len(dates)-1)
	cadence.AvgDaysBetween = &avg
	return cadence
}

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// median returns the middle element of the sorted values, averaging the two
// middle elements for even counts.
func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
