package bgate

import (
	"iter"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Cookies is an ordered collection of cookies, keyed by name. A request and
// its response each own a separate instance.
type Cookies struct {
	names []string
	jar   map[string]*http.Cookie
}

// NewCookies inits an empty cookie collection.
func NewCookies() *Cookies {
	return &Cookies{jar: make(map[string]*http.Cookie)}
}

// ParseCookies parses the value of a Cookie request header. Pairs that
// cannot be parsed are skipped.
func ParseCookies(header string) *Cookies {
	c := NewCookies()
	for part := range strings.SplitSeq(header, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}

		parsed, err := http.ParseCookie(part)
		if err != nil {
			continue
		}

		for _, pc := range parsed {
			c.Set(pc)
		}
	}

	return c
}

// Set adds or replaces a cookie. Cookies without a path get the root path.
func (c *Cookies) Set(cookie *http.Cookie) {
	if cookie.Path == "" {
		cookie.Path = "/"
	}

	if _, ok := c.jar[cookie.Name]; !ok {
		c.names = append(c.names, cookie.Name)
	}

	c.jar[cookie.Name] = cookie
}

// SetValue is a shorthand for setting a cookie by name and value.
func (c *Cookies) SetValue(name, value string) *http.Cookie {
	cookie := &http.Cookie{Name: name, Value: value}
	c.Set(cookie)

	return cookie
}

// Get returns the named cookie, or nil.
func (c *Cookies) Get(name string) *http.Cookie {
	return c.jar[name]
}

// Value returns the value of the named cookie.
func (c *Cookies) Value(name string) (string, bool) {
	cookie, ok := c.jar[name]
	if !ok {
		return "", false
	}

	return cookie.Value, true
}

// Delete removes the named cookie from the collection.
func (c *Cookies) Delete(name string) {
	if _, ok := c.jar[name]; !ok {
		return
	}

	delete(c.jar, name)
	c.names = lo.Without(c.names, name)
}

// Len returns the number of cookies.
func (c *Cookies) Len() int { return len(c.names) }

// Names returns the cookie names in order.
func (c *Cookies) Names() []string { return c.names }

// All iterates over the cookies in order.
func (c *Cookies) All() iter.Seq[*http.Cookie] {
	return func(yield func(*http.Cookie) bool) {
		for _, name := range c.names {
			if !yield(c.jar[name]) {
				return
			}
		}
	}
}

// SetCookieLines returns one Set-Cookie header value per cookie.
func (c *Cookies) SetCookieLines() []string {
	lines := make([]string, 0, len(c.names))
	for cookie := range c.All() {
		if line := cookie.String(); line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// String formats the cookies as a Cookie request header value.
func (c *Cookies) String() string {
	pairs := make([]string, 0, len(c.names))
	for cookie := range c.All() {
		pairs = append(pairs, (&http.Cookie{Name: cookie.Name, Value: cookie.Value}).String())
	}

	return strings.Join(pairs, "; ")
}
