package rest

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ErrInvalidRoute is returned when a route template and its parameters do not match.
var ErrInvalidRoute = errors.New("invalid route")

// Route is an API endpoint template such as "/channels/{channel.id}/messages".
// The first placeholder is the route's major parameter and takes part in
// rate limit bucketing.
type Route struct {
	Method   string
	Template string
}

// Routes used by the paginated endpoints.
var (
	GetChannelMessages        = Route{http.MethodGet, "/channels/{channel.id}/messages"}
	GetChannelPins            = Route{http.MethodGet, "/channels/{channel.id}/messages/pins"}
	GetReactions              = Route{http.MethodGet, "/channels/{channel.id}/messages/{message.id}/reactions/{emoji}"}
	GetPollAnswerVoters       = Route{http.MethodGet, "/channels/{channel.id}/polls/{message.id}/answers/{answer.id}"}
	GetThreadMembers          = Route{http.MethodGet, "/channels/{channel.id}/thread-members"}
	GetPublicArchivedThreads  = Route{http.MethodGet, "/channels/{channel.id}/threads/archived/public"}
	GetPrivateArchivedThreads = Route{http.MethodGet, "/channels/{channel.id}/threads/archived/private"}
	GetJoinedPrivateThreads   = Route{http.MethodGet, "/channels/{channel.id}/users/@me/threads/archived/private"}
	GetAuditLog               = Route{http.MethodGet, "/guilds/{guild.id}/audit-logs"}
	GetBans                   = Route{http.MethodGet, "/guilds/{guild.id}/bans"}
	GetScheduledEventUsers    = Route{http.MethodGet, "/guilds/{guild.id}/scheduled-events/{event.id}/users"}
	GetEntitlements           = Route{http.MethodGet, "/applications/{application.id}/entitlements"}
	GetSKUSubscriptions       = Route{http.MethodGet, "/skus/{sku.id}/subscriptions"}
)

// String returns "METHOD template".
func (r Route) String() string {
	return r.Method + " " + r.Template
}

// Compile substitutes params into the template placeholders in order.
// Parameters are path-escaped.
func (r Route) Compile(params ...string) (CompiledRoute, error) {
	var path, bucket strings.Builder
	rest := r.Template
	n := 0

	for {
		start := strings.IndexByte(rest, '{')
		if start < 0 {
			path.WriteString(rest)
			bucket.WriteString(rest)
			break
		}
		end := strings.IndexByte(rest[start:], '}')
		if end < 0 {
			return CompiledRoute{}, fmt.Errorf("%w: unterminated placeholder in %s", ErrInvalidRoute, r)
		}
		end += start

		if n >= len(params) {
			return CompiledRoute{}, fmt.Errorf("%w: %s got %d parameters", ErrInvalidRoute, r, len(params))
		}

		escaped := url.PathEscape(params[n])
		path.WriteString(rest[:start])
		path.WriteString(escaped)

		bucket.WriteString(rest[:start])
		if n == 0 {
			bucket.WriteString(escaped)
		} else {
			bucket.WriteString(rest[start : end+1])
		}

		n++
		rest = rest[end+1:]
	}

	if n != len(params) {
		return CompiledRoute{}, fmt.Errorf("%w: %s got %d parameters, want %d", ErrInvalidRoute, r, len(params), n)
	}

	return CompiledRoute{
		route:  r,
		path:   path.String(),
		bucket: r.Method + ":" + bucket.String(),
	}, nil
}

// MustCompile is like Compile but panics on error.
func (r Route) MustCompile(params ...string) CompiledRoute {
	c, err := r.Compile(params...)
	if err != nil {
		panic(err)
	}
	return c
}

// CompiledRoute is a Route with its parameters filled in plus a query string.
// It is immutable: WithQuery and WithoutQuery return modified copies.
type CompiledRoute struct {
	route  Route
	path   string
	bucket string
	query  url.Values
}

// Route returns the template the route was compiled from.
func (c CompiledRoute) Route() Route { return c.route }

// Method returns the HTTP method.
func (c CompiledRoute) Method() string { return c.route.Method }

// Path returns the compiled path without query string.
func (c CompiledRoute) Path() string { return c.path }

// Query returns a copy of the query parameters.
func (c CompiledRoute) Query() url.Values {
	q := make(url.Values, len(c.query))
	for k, v := range c.query {
		q[k] = append([]string(nil), v...)
	}
	return q
}

// BucketKey identifies the rate limit bucket: method, template and major parameter.
func (c CompiledRoute) BucketKey() string { return c.bucket }

// WithQuery returns a copy with key set to values. Empty values remove the key.
func (c CompiledRoute) WithQuery(key string, values ...string) CompiledRoute {
	q := c.Query()
	if len(values) == 0 {
		q.Del(key)
	} else {
		q[key] = append([]string(nil), values...)
	}
	c.query = q
	return c
}

// WithoutQuery returns a copy without key.
func (c CompiledRoute) WithoutQuery(key string) CompiledRoute {
	return c.WithQuery(key)
}

// PathAndQuery returns the path followed by the encoded query, if any.
func (c CompiledRoute) PathAndQuery() string {
	if len(c.query) == 0 {
		return c.path
	}
	return c.path + "?" + c.query.Encode()
}

// URL joins the route with baseURL.
func (c CompiledRoute) URL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + c.PathAndQuery()
}

// String returns "METHOD path?query".
func (c CompiledRoute) String() string {
	return c.route.Method + " " + c.PathAndQuery()
}
