package entity

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var sshTargetRe = regexp.MustCompile(`^git@github\.com:([^/]+)/(.+?)(\.git)?$`)

// ParseTarget parses a repository target string and returns its owner and
// repository name. Accepted forms:
//
//	https://github.com/owner/repo
//	git@github.com:owner/repo.git
//	owner/repo
//
// Hosts other than github.com are rejected.
func ParseTarget(target string) (owner, repo string, err error) {
	if target == "" {
		return "", "", ErrEmptyTarget
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		parsed, perr := url.Parse(strings.TrimRight(target, "/"))
		if perr != nil {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidTarget, target)
		}
		host := strings.ToLower(parsed.Host)
		if host != "github.com" && host != "www.github.com" {
			return "", "", fmt.Errorf("%w: unsupported host %q", ErrInvalidTarget, parsed.Host)
		}
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return "", "", fmt.Errorf("%w: malformed URL %q", ErrInvalidTarget, target)
		}
		return parts[0], strings.TrimSuffix(parts[1], ".git"), nil
	}

	if strings.HasPrefix(target, "git@") {
		m := sshTargetRe.FindStringSubmatch(target)
		if m == nil {
			return "", "", fmt.Errorf("%w: unsupported SSH URL %q", ErrInvalidTarget, target)
		}
		return m[1], m[2], nil
	}

	if owner, repo, ok := strings.Cut(target, "/"); ok && owner != "" && repo != "" {
		return owner, strings.TrimSuffix(repo, ".git"), nil
	}

	return "", "", fmt.Errorf("%w: %q", ErrInvalidTarget, target)
}

// FullName normalizes a target to its "owner/repo" form.
func FullName(target string) (string, error) {
	owner, repo, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	return owner + "/" + repo, nil
}
