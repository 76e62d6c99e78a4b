package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseRepoAddress resolves a repository address into its (owner, name)
// pair. Three forms are accepted:
//
//	https://host/owner/name[.git]
//	host:owner/name[.git]   (scp-style, e.g. git@github.com:owner/name.git)
//	owner/name
//
// A trailing ".git" suffix is stripped from the name in all forms.
func ParseRepoAddress(address string) (owner, name string, err error) {
	if strings.Contains(address, "://") {
		u, perr := url.Parse(address)
		if perr != nil {
			return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoAddress, address)
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(segments) >= 2 && segments[0] != "" && segments[1] != "" {
			return segments[0], trimGitSuffix(segments[1]), nil
		}
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoAddress, address)
	}

	if colon := strings.Index(address, ":"); colon >= 0 {
		path := address[colon+1:]
		if slash := strings.Index(path, "/"); slash > 0 && slash < len(path)-1 {
			return path[:slash], trimGitSuffix(path[slash+1:]), nil
		}
		return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoAddress, address)
	}

	if slash := strings.Index(address, "/"); slash > 0 && slash < len(address)-1 {
		return address[:slash], trimGitSuffix(address[slash+1:]), nil
	}

	return "", "", fmt.Errorf("%w: %s", ErrInvalidRepoAddress, address)
}

func trimGitSuffix(name string) string {
	return strings.TrimSuffix(name, ".git")
}
