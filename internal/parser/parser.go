package parser

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	gh "github.com/johnqtcg/reviewstats/internal/github"
)

// ErrInvalidRepository indicates an input is not a supported repository reference.
var ErrInvalidRepository = errors.New("invalid repository")

var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,38})$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
)

// RepoParser parses "owner/repo" or a GitHub repository URL into a RepoRef.
type RepoParser interface {
	Parse(raw string) (gh.RepoRef, error)
}

// New creates the default repository parser implementation.
func New() RepoParser {
	return &defaultParser{}
}

type defaultParser struct{}

func (p *defaultParser) Parse(raw string) (gh.RepoRef, error) {
	_ = p

	text := strings.TrimSpace(raw)
	if text == "" {
		return gh.RepoRef{}, invalid("repository must not be empty")
	}

	path := text
	if strings.Contains(text, "://") {
		parsedURL, err := url.Parse(text)
		if err != nil {
			return gh.RepoRef{}, fmt.Errorf("parse URL %q: %w", text, err)
		}
		host := strings.ToLower(parsedURL.Hostname())
		if host != "github.com" && host != "www.github.com" {
			return gh.RepoRef{}, fmt.Errorf("validate URL host %q: %w", host, invalid("unsupported host"))
		}
		path = parsedURL.Path
	}

	ref, err := splitAndValidatePath(path)
	if err != nil {
		return gh.RepoRef{}, fmt.Errorf("parse repository %q: %w", text, err)
	}
	return ref, nil
}

func splitAndValidatePath(rawPath string) (gh.RepoRef, error) {
	segments := splitPathSegments(rawPath)
	if len(segments) != 2 {
		return gh.RepoRef{}, fmt.Errorf("validate path segments: %w", invalid("repository must be owner/repo"))
	}

	owner := segments[0]
	repo := strings.TrimSuffix(segments[1], ".git")

	if !ownerPattern.MatchString(owner) {
		return gh.RepoRef{}, fmt.Errorf("validate owner %q: %w", owner, invalid("owner contains unsupported characters"))
	}
	if !repoPattern.MatchString(repo) || repo == "." || repo == ".." {
		return gh.RepoRef{}, fmt.Errorf("validate repo %q: %w", repo, invalid("repo contains unsupported characters"))
	}

	return gh.RepoRef{Owner: owner, Repo: repo}, nil
}

func splitPathSegments(rawPath string) []string {
	trimmed := strings.Trim(rawPath, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRepository, reason)
}
