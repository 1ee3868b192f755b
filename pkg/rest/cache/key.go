package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key identifies a cached response.
type Key struct {
	// Route is the compiled request path (e.g. "/guilds/1/bans")
	Route string

	// Query holds the query parameters (limit, before, after, filters)
	Query url.Values

	// Scope separates entries of different credentials sharing one Redis
	Scope string
}

// String generates a deterministic key.
// Format: guildkit:<scope>:<route>:k1=v1:k2=v2a,v2b
//
// Example:
//
//	guildkit:bot:channels/1/messages:before=99:limit=100
func (k Key) String() string {
	parts := []string{"guildkit"}

	if k.Scope != "" {
		parts = append(parts, k.Scope)
	}

	if route := strings.Trim(k.Route, "/"); route != "" {
		parts = append(parts, route)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
