package http

import (
	"net/http"
	"strings"

	"github.com/m2rads/lime/pkg/domain/model"
)

type siteResolver struct {
	override   string
	deployment string
}

// url returns the public base URL of the dashboard for r
func (s siteResolver) url(r *http.Request) string {
	return model.ResolveSiteURL(s.override, s.deployment, requestOrigin(r))
}

func (s siteResolver) join(r *http.Request, path string) string {
	return model.JoinSiteURL(s.url(r), path)
}

// requestOrigin derives scheme://host from the request, honoring the
// forwarding headers set by the load balancer
func requestOrigin(r *http.Request) string {
	host := firstHeaderValue(r.Header.Get("X-Forwarded-Host"))
	if host == "" {
		host = r.Host
	}
	if host == "" {
		return ""
	}

	scheme := "http"
	if isSecure(r) {
		scheme = "https"
	}
	return scheme + "://" + host
}

func isSecure(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(firstHeaderValue(r.Header.Get("X-Forwarded-Proto")), "https")
}

// firstHeaderValue returns the first entry of a comma separated header
func firstHeaderValue(v string) string {
	first, _, _ := strings.Cut(v, ",")
	return strings.TrimSpace(first)
}
