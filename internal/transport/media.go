package transport

import (
	"strings"
)

// Media turns stored media paths ("images/x.png") into public URLs.
type Media struct {
	Prefix string
}

func (m Media) prefix() string {
	p := m.Prefix
	if p == "" {
		p = "/media/"
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// URL returns the site-relative URL of a media path.
func (m Media) URL(path string) string {
	if path == "" {
		return ""
	}
	if isAbsolute(path) {
		return path
	}
	return m.prefix() + strings.TrimLeft(path, "/")
}

// Absolute binds the builder to a request origin such as "http://localhost:8080".
func (m Media) Absolute(origin string) URLFunc {
	origin = strings.TrimRight(origin, "/")
	return func(path string) string {
		u := m.URL(path)
		if u == "" || isAbsolute(u) {
			return u
		}
		return origin + u
	}
}

type URLFunc func(path string) string

func isAbsolute(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
