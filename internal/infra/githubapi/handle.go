package githubapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"gitmeta/internal/domain/entity"
	"gitmeta/internal/usecase/extract"
)

// Wire shapes for the subset of the GitHub REST API this client consumes.
type (
	repoJSON struct {
		FullName      string     `json:"full_name"`
		HTMLURL       string     `json:"html_url"`
		Description   string     `json:"description"`
		Language      string     `json:"language"`
		Stars         int        `json:"stargazers_count"`
		Forks         int        `json:"forks_count"`
		OpenIssues    int        `json:"open_issues_count"`
		DefaultBranch string     `json:"default_branch"`
		Fork          bool       `json:"fork"`
		CreatedAt     *time.Time `json:"created_at"`
		UpdatedAt     *time.Time `json:"updated_at"`
		Parent        *repoRef   `json:"parent"`
		Source        *repoRef   `json:"source"`
		License       *licenseRef `json:"license"`
	}

	repoRef struct {
		FullName string `json:"full_name"`
	}

	licenseRef struct {
		SPDXID string `json:"spdx_id"`
	}

	commitJSON struct {
		SHA     string `json:"sha"`
		HTMLURL string `json:"html_url"`
		Commit  struct {
			Message string `json:"message"`
			Author  struct {
				Name string     `json:"name"`
				Date *time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
	}

	issueJSON struct {
		Number      int        `json:"number"`
		Title       string     `json:"title"`
		State       string     `json:"state"`
		HTMLURL     string     `json:"html_url"`
		CreatedAt   *time.Time `json:"created_at"`
		ClosedAt    *time.Time `json:"closed_at"`
		User        *userRef   `json:"user"`
		Labels      []labelRef `json:"labels"`
		PullRequest *struct{}  `json:"pull_request,omitempty"`
	}

	pullJSON struct {
		Number    int        `json:"number"`
		Title     string     `json:"title"`
		State     string     `json:"state"`
		HTMLURL   string     `json:"html_url"`
		CreatedAt *time.Time `json:"created_at"`
		ClosedAt  *time.Time `json:"closed_at"`
		MergedAt  *time.Time `json:"merged_at"`
		User      *userRef   `json:"user"`
	}

	userRef struct {
		Login string `json:"login"`
	}

	labelRef struct {
		Name string `json:"name"`
	}

	contributorJSON struct {
		Login         string `json:"login"`
		Contributions int    `json:"contributions"`
		HTMLURL       string `json:"html_url"`
	}

	contentsJSON struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}

	commitDetailJSON struct {
		SHA     string    `json:"sha"`
		Parents []shaRef  `json:"parents"`
		Stats   statsJSON `json:"stats"`
		Files   []struct {
			Filename  string `json:"filename"`
			Additions int    `json:"additions"`
			Deletions int    `json:"deletions"`
		} `json:"files"`
	}

	shaRef struct {
		SHA string `json:"sha"`
	}

	statsJSON struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	}

	releaseJSON struct {
		TagName     string     `json:"tag_name"`
		Name        string     `json:"name"`
		PublishedAt *time.Time `json:"published_at"`
	}

	tagJSON struct {
		Name string `json:"name"`
	}
)

// repoHandle is an in-memory reference to a resolved repository. The
// resolution payload is kept so Facts needs no further upstream call.
type repoHandle struct {
	client   *Client
	fullName string
	raw      repoJSON
}

var _ extract.RepoHandle = (*repoHandle)(nil)

func (h *repoHandle) Facts(_ context.Context) (*entity.RepositoryFacts, error) {
	facts := &entity.RepositoryFacts{
		FullName:        h.raw.FullName,
		URL:             h.raw.HTMLURL,
		Description:     h.raw.Description,
		PrimaryLanguage: h.raw.Language,
		Stars:           h.raw.Stars,
		Forks:           h.raw.Forks,
		OpenIssues:      h.raw.OpenIssues,
		DefaultBranch:   h.raw.DefaultBranch,
		IsFork:          h.raw.Fork,
		CreatedAt:       h.raw.CreatedAt,
		UpdatedAt:       h.raw.UpdatedAt,
	}
	if h.raw.Parent != nil {
		facts.Parent = h.raw.Parent.FullName
	}
	if h.raw.Source != nil {
		facts.Source = h.raw.Source.FullName
	}
	if h.raw.License != nil {
		facts.License = h.raw.License.SPDXID
	}
	return facts, nil
}

func (h *repoHandle) ListCommits(ctx context.Context, limit int) ([]entity.Commit, error) {
	raw, err := paged[commitJSON](ctx, h.client, "/repos/"+h.fullName+"/commits", nil, limit)
	if err != nil {
		return nil, err
	}
	commits := make([]entity.Commit, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, entity.Commit{
			SHA:     c.SHA,
			Message: c.Commit.Message,
			Author:  c.Commit.Author.Name,
			Date:    c.Commit.Author.Date,
			URL:     c.HTMLURL,
		})
	}
	return commits, nil
}

// ListIssues lists issues in all states. The upstream issues endpoint also
// returns pull requests; those are filtered out per page and do not count
// against the limit, so pages are requested until enough issues have
// accumulated.
func (h *repoHandle) ListIssues(ctx context.Context, limit int) ([]entity.Issue, error) {
	query := url.Values{"state": {"all"}}
	query.Set("per_page", strconv.Itoa(h.client.cfg.PerPage))

	issues := make([]entity.Issue, 0, h.client.cfg.PerPage)
	for page := 1; ; page++ {
		query.Set("page", strconv.Itoa(page))

		var batch []issueJSON
		if err := h.client.get(ctx, "/repos/"+h.fullName+"/issues", query, &batch); err != nil {
			return nil, err
		}
		for _, i := range batch {
			if i.PullRequest != nil {
				continue
			}
			issue := entity.Issue{
				Number:    i.Number,
				Title:     i.Title,
				State:     i.State,
				CreatedAt: i.CreatedAt,
				ClosedAt:  i.ClosedAt,
				URL:       i.HTMLURL,
			}
			if i.User != nil {
				issue.Author = i.User.Login
			}
			for _, label := range i.Labels {
				issue.Labels = append(issue.Labels, label.Name)
			}
			issues = append(issues, issue)
			if limit > 0 && len(issues) >= limit {
				return issues, nil
			}
		}
		if len(batch) < h.client.cfg.PerPage {
			return issues, nil
		}
	}
}

func (h *repoHandle) ListPullRequests(ctx context.Context, limit int) ([]entity.PullRequest, error) {
	query := url.Values{"state": {"all"}}
	raw, err := paged[pullJSON](ctx, h.client, "/repos/"+h.fullName+"/pulls", query, limit)
	if err != nil {
		return nil, err
	}
	pulls := make([]entity.PullRequest, 0, len(raw))
	for _, p := range raw {
		pr := entity.PullRequest{
			Number:    p.Number,
			Title:     p.Title,
			State:     p.State,
			Merged:    p.MergedAt != nil,
			CreatedAt: p.CreatedAt,
			ClosedAt:  p.ClosedAt,
			MergedAt:  p.MergedAt,
			URL:       p.HTMLURL,
		}
		if p.User != nil {
			pr.Author = p.User.Login
		}
		pulls = append(pulls, pr)
	}
	return pulls, nil
}

func (h *repoHandle) ListContributors(ctx context.Context, limit int) ([]entity.Contributor, error) {
	raw, err := paged[contributorJSON](ctx, h.client, "/repos/"+h.fullName+"/contributors", nil, limit)
	if err != nil {
		return nil, err
	}
	contributors := make([]entity.Contributor, 0, len(raw))
	for _, c := range raw {
		contributors = append(contributors, entity.Contributor{
			Login:         c.Login,
			Contributions: c.Contributions,
			URL:           c.HTMLURL,
		})
	}
	return contributors, nil
}

func (h *repoHandle) FileContents(ctx context.Context, path, ref string) ([]byte, error) {
	query := url.Values{}
	if ref != "" {
		query.Set("ref", ref)
	}
	var payload contentsJSON
	err := h.client.get(ctx, "/repos/"+h.fullName+"/contents/"+path, query, &payload)
	if isNotFound(err) {
		return nil, fmt.Errorf("%s: %w", path, extract.ErrFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return decodeContents(payload)
}

func (h *repoHandle) CommitDetail(ctx context.Context, sha string) (*entity.CommitDetail, error) {
	var raw commitDetailJSON
	if err := h.client.get(ctx, "/repos/"+h.fullName+"/commits/"+sha, nil, &raw); err != nil {
		return nil, err
	}
	detail := &entity.CommitDetail{
		SHA:       raw.SHA,
		Additions: raw.Stats.Additions,
		Deletions: raw.Stats.Deletions,
		Parents:   make([]string, 0, len(raw.Parents)),
	}
	for _, p := range raw.Parents {
		detail.Parents = append(detail.Parents, p.SHA)
	}
	for _, f := range raw.Files {
		detail.Files = append(detail.Files, entity.FileChange{
			Path:      f.Filename,
			Additions: f.Additions,
			Deletions: f.Deletions,
		})
	}
	return detail, nil
}

func (h *repoHandle) Languages(ctx context.Context) (map[string]int64, error) {
	var langs map[string]int64
	if err := h.client.get(ctx, "/repos/"+h.fullName+"/languages", nil, &langs); err != nil {
		return nil, err
	}
	return langs, nil
}

// License returns the repository's license identifier, or an empty string
// when the upstream has not detected one.
func (h *repoHandle) License(ctx context.Context) (string, error) {
	if h.raw.License != nil {
		return h.raw.License.SPDXID, nil
	}
	var payload struct {
		License *licenseRef `json:"license"`
	}
	err := h.client.get(ctx, "/repos/"+h.fullName+"/license", nil, &payload)
	if isNotFound(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if payload.License == nil {
		return "", nil
	}
	return payload.License.SPDXID, nil
}

func (h *repoHandle) ListReleases(ctx context.Context) ([]entity.Release, error) {
	raw, err := paged[releaseJSON](ctx, h.client, "/repos/"+h.fullName+"/releases", nil, 0)
	if err != nil {
		return nil, err
	}
	releases := make([]entity.Release, 0, len(raw))
	for _, r := range raw {
		releases = append(releases, entity.Release{
			Tag:         r.TagName,
			Name:        r.Name,
			PublishedAt: r.PublishedAt,
		})
	}
	return releases, nil
}

func (h *repoHandle) ListTags(ctx context.Context) ([]string, error) {
	raw, err := paged[tagJSON](ctx, h.client, "/repos/"+h.fullName+"/tags", nil, 0)
	if err != nil {
		return nil, err
	}
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		tags = append(tags, t.Name)
	}
	return tags, nil
}
