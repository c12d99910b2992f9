package httpx

import (
	"net/http"
	"net/url"
	"strings"
)

// safeRedirectPath ensures the provided redirect is a same-origin relative path
// starting with "/" and not an absolute URL. Returns "/" when invalid.
func safeRedirectPath(candidate string) string {
	if candidate == "" {
		return "/"
	}
	if strings.HasPrefix(candidate, "//") || strings.Contains(candidate, `\`) {
		return "/"
	}
	u, err := url.Parse(candidate)
	if err != nil || u.IsAbs() || u.Host != "" || !strings.HasPrefix(u.Path, "/") {
		return "/"
	}
	return candidate
}

// safeRedirectFromURL reduces an absolute or relative URL to its in-app path.
func safeRedirectFromURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	// Reject scheme-relative or host-only references.
	if u.Host != "" && !u.IsAbs() {
		return ""
	}

	if u.IsAbs() {
		return safeRedirectPath(u.RequestURI())
	}

	return safeRedirectPath(raw)
}

// redirectPathForRequest is where a visitor should return after logging in.
// Only page loads are worth returning to; posts start over at the landing page.
func redirectPathForRequest(r *http.Request) string {
	if IsHTMX(r) {
		if current := safeRedirectFromURL(HXCurrentURL(r)); current != "" {
			return current
		}
		if referer := safeRedirectFromURL(r.Header.Get("Referer")); referer != "" {
			return referer
		}
		return ""
	}
	if r.Method != http.MethodGet {
		return ""
	}
	return safeRedirectPath(r.URL.RequestURI())
}

// loginURL builds the login target, carrying next as redirect_uri when it
// is worth returning to.
func loginURL(loginPath, next string) string {
	u := url.URL{Path: loginPath}
	if next != "" && next != "/" && !strings.HasPrefix(next, loginPath) {
		u.RawQuery = url.Values{"redirect_uri": []string{next}}.Encode()
	}
	return u.String()
}

// postLoginTarget picks where a successful login goes: the requested page if
// it is a safe in-app path, the landing page otherwise.
func postLoginTarget(redirectURI, loginPath, landingPath string) string {
	target := safeRedirectPath(redirectURI)
	if target == "/" || strings.HasPrefix(target, loginPath) {
		return landingPath
	}
	return target
}
