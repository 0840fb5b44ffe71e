package engine

import "regexp"

var (
	wellFormedLink = regexp.MustCompile(`^https?://.+/.+$`)
	rootPathLink   = regexp.MustCompile(`^/.+$`)
)

// Resolve turns a link found on a homepage into an absolute URL against host.
//
// Links that are already absolute with at least one path segment are
// returned unchanged, root-relative paths are appended to host, and anything
// else is joined to host with a slash. Query strings, fragments and
// protocol-relative links receive no special treatment, and no
// normalization is applied.
func Resolve(host, link string) string {
	switch {
	case wellFormedLink.MatchString(link):
		return link
	case rootPathLink.MatchString(link):
		return host + link
	default:
		return host + "/" + link
	}
}
