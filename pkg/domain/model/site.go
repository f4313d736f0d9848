package model

import "strings"

// DefaultSiteURL is used when no other source provides the site URL
const DefaultSiteURL = "http://localhost:3000/"

// ResolveSiteURL picks the public base URL of the dashboard: explicit
// override, then the platform deployment URL, then the origin derived from
// the current request. The result always ends with a slash and carries
// https:// unless it points at localhost.
func ResolveSiteURL(override, deployment, requestOrigin string) string {
	for _, candidate := range []string{override, deployment, requestOrigin} {
		if c := strings.TrimSpace(candidate); c != "" {
			return normalizeSiteURL(c)
		}
	}
	return DefaultSiteURL
}

func normalizeSiteURL(s string) string {
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		if isLocalhost(s) {
			s = "http://" + s
		} else {
			s = "https://" + s
		}
	}
	if !strings.HasSuffix(s, "/") {
		s += "/"
	}
	return s
}

func isLocalhost(hostport string) bool {
	host := hostport
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host == "localhost" || host == "127.0.0.1"
}

// JoinSiteURL appends path to a site URL produced by ResolveSiteURL
func JoinSiteURL(site, path string) string {
	return strings.TrimSuffix(site, "/") + "/" + strings.TrimPrefix(path, "/")
}
