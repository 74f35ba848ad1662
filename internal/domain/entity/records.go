// Package entity defines the core domain records produced by metadata
// extraction, along with request validation rules and domain-specific errors.
package entity

import "time"

// RepositoryFacts holds the top-level facts of an extracted repository.
// It establishes identity and provenance for every other fact type, which is
// why its extraction is the only one that is fatal to a run when it fails.
type RepositoryFacts struct {
	FullName        string           `json:"repository"`
	URL             string           `json:"url"`
	Description     string           `json:"description,omitempty"`
	PrimaryLanguage string           `json:"primary_language,omitempty"`
	License         string           `json:"license,omitempty"`
	Stars           int              `json:"stars"`
	Forks           int              `json:"forks"`
	OpenIssues      int              `json:"open_issues"`
	DefaultBranch   string           `json:"default_branch"`
	IsFork          bool             `json:"is_fork"`
	Parent          string           `json:"parent,omitempty"`
	Source          string           `json:"source,omitempty"`
	Languages       map[string]int64 `json:"languages,omitempty"`
	LanguageLOC     map[string]int64 `json:"language_loc_estimate,omitempty"`
	CreatedAt       *time.Time       `json:"created_at,omitempty"`
	UpdatedAt       *time.Time       `json:"last_updated,omitempty"`
}

// Commit is a single commit record from the default branch history.
type Commit struct {
	SHA     string     `json:"sha"`
	Message string     `json:"message"`
	Author  string     `json:"author,omitempty"`
	Date    *time.Time `json:"date,omitempty"`
	URL     string     `json:"url,omitempty"`
}

// Issue is a single issue record. Pull requests surfaced through the issues
// listing of the upstream API are filtered out before this type is built.
type Issue struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Author    string     `json:"author,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// PullRequest is a single pull request record.
type PullRequest struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	State     string     `json:"state"`
	Author    string     `json:"author,omitempty"`
	Merged    bool       `json:"merged"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	URL       string     `json:"url,omitempty"`
}

// Contributor is a single contributor record.
type Contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	URL           string `json:"url,omitempty"`
}

// Dependency is a single entry parsed from a dependency manifest file.
type Dependency struct {
	Name     string `json:"name"`
	Version  string `json:"version,omitempty"`
	Manifest string `json:"manifest"`
}

// Release is a published release of the repository.
type Release struct {
	Tag         string     `json:"tag"`
	Name        string     `json:"name,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// CommitDetail carries the parent hashes and file-level stats of a single
// commit, resolved individually from the upstream API.
type CommitDetail struct {
	SHA       string       `json:"sha"`
	Parents   []string     `json:"parents"`
	Files     []FileChange `json:"files,omitempty"`
	Additions int          `json:"additions"`
	Deletions int          `json:"deletions"`
}

// FileChange is a single changed file within a commit.
type FileChange struct {
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// CommitLineage flags the ancestry of a single commit.
type CommitLineage struct {
	SHA     string   `json:"sha"`
	Parents []string `json:"parents"`
	IsMerge bool     `json:"is_merge"`
}

// ForkLineage reports whether the repository is a fork and where it came from.
type ForkLineage struct {
	IsFork bool   `json:"is_fork"`
	Parent string `json:"parent,omitempty"`
	Source string `json:"source,omitempty"`
}

// BusFactor summarizes how concentrated commit authorship is.
// Percentages are nil when there are no commits to rank.
type BusFactor struct {
	TotalCommits int                `json:"total_commits"`
	Top1Pct      *float64           `json:"top1_pct"`
	Top2Pct      *float64           `json:"top2_pct"`
	TopAuthors   []ContributorShare `json:"top_authors,omitempty"`
}

// ContributorShare is one author's share of total commits.
type ContributorShare struct {
	Author  string  `json:"author"`
	Commits int     `json:"commits"`
	Share   float64 `json:"share"`
}

// PRMetrics aggregates merge behavior over the extracted pull requests.
// MergeRate is nil when no pull requests are closed.
type PRMetrics struct {
	Total           int      `json:"total"`
	Merged          int      `json:"merged"`
	Closed          int      `json:"closed"`
	MergeRate       *float64 `json:"merge_rate"`
	MedianMergeDays *float64 `json:"median_merge_days"`
	MeanMergeDays   *float64 `json:"mean_merge_days"`
}

// IssueMetrics aggregates closure behavior over the extracted issues.
type IssueMetrics struct {
	Total                int      `json:"total"`
	Closed               int      `json:"closed"`
	ClosureRate          *float64 `json:"closure_rate"`
	MedianResolutionDays *float64 `json:"median_resolution_days"`
	MeanResolutionDays   *float64 `json:"mean_resolution_days"`
}

// CommitActivity buckets commit timestamps into ISO-week and year-month
// histograms.
type CommitActivity struct {
	ByWeek  map[string]int `json:"by_week"`
	ByMonth map[string]int `json:"by_month"`
}

// ReleaseCadence summarizes how often the repository ships releases.
type ReleaseCadence struct {
	Releases       int      `json:"releases"`
	Tags           int      `json:"tags"`
	Latest         string   `json:"latest,omitempty"`
	AvgDaysBetween *float64 `json:"avg_days_between"`
}

// Provenance is attached to the final document before persistence and is
// never mutated afterwards.
type Provenance struct {
	ExtractionID  string    `json:"extraction_id"`
	ExtractedAt   time.Time `json:"extracted_at"`
	SchemaVersion string    `json:"schema_version"`
	Source        string    `json:"source"`
}
