// Package rest performs single round trips against the platform's REST API.
//
// A Requester is the fetch primitive the pagination engine is built on: it
// compiles a Route into a request, waits for the route's rate limit bucket,
// serves fresh responses from the optional Redis cache, authenticates the
// request and retries rate limited, server and network failures with
// exponential backoff. A circuit breaker stops hammering the API once
// failures pile up.
//
// Example usage:
//
//	cfg := rest.DefaultConfig(os.Getenv("GUILDKIT_TOKEN"), "MyBot (https://example.com, 1.0)")
//	requester, err := rest.New(cfg)
//	if err != nil {
//		return err
//	}
//	defer requester.Close()
//
//	route, _ := rest.GetChannelMessages.Compile("81384788765712384")
//	resp, err := requester.Do(ctx, route.WithQuery("limit", "50"))
//
// Execute runs the same round trip on the requester's worker pool and reports
// the outcome through exactly one of two callbacks.
package rest
