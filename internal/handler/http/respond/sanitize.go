package respond

import (
	"regexp"
)

var (
	// GitHub token shapes: fine-grained PATs carry the github_pat_ prefix,
	// classic tokens the gh?_ prefixes. The more specific pattern must be
	// applied first so a fine-grained token is not half-masked.
	githubFineGrainedPattern = regexp.MustCompile(`github_pat_[a-zA-Z0-9_]+`)
	githubTokenPattern       = regexp.MustCompile(`gh[pousr]_[a-zA-Z0-9]{10,}`)

	// Bearer header values.
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/-]+=*`)

	// Credentials embedded in URLs.
	urlCredentialsPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// SanitizeError returns the error message with credentials masked.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = githubFineGrainedPattern.ReplaceAllString(msg, "github_pat_****")
	msg = githubTokenPattern.ReplaceAllString(msg, "gh*_****")
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = urlCredentialsPattern.ReplaceAllString(msg, "://$1:****@")

	return msg
}
