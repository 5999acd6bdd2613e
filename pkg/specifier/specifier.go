// Package specifier parses module federation remote references.
//
// A remote is configured as "<name>@<url>", where url points at the
// remote's entry script. Everything before the final "/" of that URL is the
// remote's base URL; published manifests, declaration files and archives
// are fetched relative to it:
//
//	base := specifier.BaseURL("shop@https://cdn.example.com/v2/remoteEntry.js")
//	// base == "https://cdn.example.com/v2"
//
// [BaseURL] never fails. Use [Parse] to validate configuration up front.
package specifier

import (
	"net/url"
	"strings"

	"github.com/matzehuels/mftypes/pkg/errors"
)

// Specifier is a validated remote reference.
type Specifier struct {
	Name     string // Remote application name (before the @)
	EntryURL string // Full URL of the remote entry script
}

// BaseURL returns the directory URL of the remote entry script.
func (s Specifier) BaseURL() string {
	return trimLastSegment(s.EntryURL)
}

// String returns the specifier in "<name>@<url>" form.
func (s Specifier) String() string {
	return s.Name + "@" + s.EntryURL
}

// BaseURL derives a remote's base URL from a raw specifier string.
//
// The specifier is split on the first "@"; the URL part is split by "/",
// the last segment (the entry file name) is dropped and the rest rejoined.
// No validation is performed: a string without "@" yields "" and a URL
// without path segments yields a truncated URL.
func BaseURL(spec string) string {
	_, rawURL, ok := strings.Cut(spec, "@")
	if !ok {
		return ""
	}
	return trimLastSegment(rawURL)
}

func trimLastSegment(rawURL string) string {
	parts := strings.Split(rawURL, "/")
	return strings.Join(parts[:len(parts)-1], "/")
}

// Parse validates spec and splits it into name and entry URL.
//
// Accepted specifiers contain exactly one "@" separating a non-empty name
// from an absolute http(s) URL with at least one path segment.
func Parse(spec string) (Specifier, error) {
	spec = strings.TrimSpace(spec)
	if strings.Count(spec, "@") != 1 {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier,
			"specifier %q must have the form <name>@<url>", spec)
	}
	name, rawURL, _ := strings.Cut(spec, "@")
	if name == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "specifier %q has an empty name", spec)
	}
	if err := errors.ValidateURL(rawURL); err != nil {
		return Specifier{}, err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Specifier{}, errors.Wrap(errors.ErrCodeInvalidSpecifier, err, "specifier %q has an invalid URL", spec)
	}
	if u.Host == "" {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier, "specifier %q has no host", spec)
	}
	if u.Path == "" || u.Path == "/" || strings.HasSuffix(u.Path, "/") {
		return Specifier{}, errors.New(errors.ErrCodeInvalidSpecifier,
			"specifier %q must point at an entry file", spec)
	}
	return Specifier{Name: name, EntryURL: rawURL}, nil
}
