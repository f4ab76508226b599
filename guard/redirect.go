package guard

import (
	"net/url"
	"strings"
)

// Paths the guard redirects between
const (
	HomePath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
	NextParam    = "next"
)

// SafeNext returns the navigation target to resume after login. Only local
// absolute paths are accepted; anything else, including the auth pages
// themselves, resumes at HomePath.
func SafeNext(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return HomePath
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return HomePath
	}
	if u.Path == LoginPath || u.Path == RegisterPath {
		return HomePath
	}
	return u.RequestURI()
}

// LoginURL is the login page remembering target.
func LoginURL(target string) string {
	next := SafeNext(target)
	if next == HomePath {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{NextParam: {next}}.Encode()
}
