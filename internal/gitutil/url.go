package gitutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The CLI and terminal surfaces address a review target by its pull request
// URL, e.g. https://github.com/{owner}/{repo}/pull/{number}. The scheme is
// optional; anything after the number is not.
var pullRequestURL = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)$`)

// ParsePullRequestURL extracts the owner, repository, and PR number from a
// GitHub pull request URL.
func ParsePullRequestURL(raw string) (owner, repo string, number int, err error) {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")

	m := pullRequestURL.FindStringSubmatch(raw)
	if m == nil {
		return "", "", 0, fmt.Errorf("not a pull request URL: %s", raw)
	}

	number, err = strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, fmt.Errorf("pull request number %q: %w", m[3], err)
	}

	return m[1], m[2], number, nil
}
