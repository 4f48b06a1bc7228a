// Package cookie renders and parses the auth cookie headers. Build and
// Parse are pure string functions; the transport layer applies the results,
// which keeps the core testable without a real HTTP response.
package cookie

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// The two cookie slots, mutually exclusive in purpose.
const (
	Verification = "verif"
	Session      = "session"

	VerificationMaxAge = 10 * 60           // 10 minutes
	SessionMaxAge      = 30 * 24 * 60 * 60 // 30 days
)

// Options controls which attributes Build renders. MaxAge 0 is the
// canonical delete signal (Max-Age=0); a negative MaxAge omits the
// attribute entirely.
type Options struct {
	Path     string
	Domain   string
	SameSite string
	MaxAge   int
	HttpOnly bool
	Secure   bool
}

// Build renders a Set-Cookie header value. The cookie value is
// percent-encoded; attributes appear only when set.
func Build(name, value string, opts Options) string {
	parts := []string{name + "=" + url.QueryEscape(value)}
	if opts.Path != "" {
		parts = append(parts, "Path="+opts.Path)
	}
	if opts.HttpOnly {
		parts = append(parts, "HttpOnly")
	}
	if opts.SameSite != "" {
		parts = append(parts, "SameSite="+opts.SameSite)
	}
	if opts.Secure {
		parts = append(parts, "Secure")
	}
	if opts.MaxAge >= 0 {
		parts = append(parts, "Max-Age="+strconv.Itoa(opts.MaxAge))
	}
	if opts.Domain != "" {
		parts = append(parts, "Domain="+opts.Domain)
	}
	return strings.Join(parts, "; ")
}

// Parse splits a Cookie request header into name→value pairs. Entries
// without a value map to the empty string; when a name repeats, the last
// occurrence wins. Values that fail percent-decoding are kept verbatim.
func Parse(header string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		if name == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		out[name] = value
	}
	return out
}

var loopbackHost = regexp.MustCompile(`^(localhost|127\.0\.0\.1)(:\d+)?$`)

// SecureForHost reports whether cookies for host should carry the Secure
// attribute. Only recognized local-dev loopback hosts go without it, so the
// flow works over plain HTTP during development.
func SecureForHost(host string) bool {
	return !loopbackHost.MatchString(host)
}
