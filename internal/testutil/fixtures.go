package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// FixtureStart is the creation time of the oldest fixture element.
var FixtureStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// FixtureID returns the id of the i-th fixture element: one minute apart,
// increasing with i.
func FixtureID(i int) snowflake.ID {
	return snowflake.FromTime(FixtureStart.Add(time.Duration(i) * time.Minute))
}

// NewRequester returns a requester pointed at api with fast retries and no
// circuit breaker. It is closed when the test ends.
func NewRequester(t testing.TB, api *MockAPI) *rest.Requester {
	t.Helper()

	cfg := rest.DefaultConfig("test-token", "GuildkitTest (https://example.com, 1.0)")
	cfg.BaseURL = api.URL()
	cfg.BreakerFailures = 0
	cfg.Retry = rest.RetryConfig{
		MaxAttempts:       2,
		InitialBackoff:    5 * time.Millisecond,
		MaxBackoff:        20 * time.Millisecond,
		BackoffMultiplier: 2,
	}

	r, err := rest.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create requester: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

// Messages returns n messages of channel, oldest first.
func Messages(channel snowflake.ID, n int) []Element {
	out := make([]Element, n)
	for i := range out {
		id := FixtureID(i)
		out[i] = Element{
			Key:  uint64(id),
			Time: id.Time(),
			Body: entity.Message{
				ID:        id,
				ChannelID: channel,
				Author:    User(i % 3),
				Content:   fmt.Sprintf("message %d", i),
				Timestamp: id.Time(),
			},
		}
	}
	return out
}

// Pins returns n pins of channel, pinned one hour apart, oldest first.
func Pins(channel snowflake.ID, n int) []Element {
	out := make([]Element, n)
	for i := range out {
		msg := FixtureID(i)
		pinnedAt := FixtureStart.Add(time.Duration(i) * time.Hour)
		out[i] = Element{
			Key:  uint64(pinnedAt.UnixMilli()),
			Time: pinnedAt,
			Body: entity.MessagePin{
				PinnedAt: pinnedAt,
				Message: entity.Message{
					ID:        msg,
					ChannelID: channel,
					Author:    User(0),
					Content:   fmt.Sprintf("pinned %d", i),
					Timestamp: msg.Time(),
					Pinned:    true,
				},
			},
		}
	}
	return out
}

// User returns the i-th fixture user.
func User(i int) entity.User {
	return entity.User{ID: FixtureID(100000 + i), Username: fmt.Sprintf("user%d", i)}
}

// Users returns n users, oldest first.
func Users(n int) []Element {
	out := make([]Element, n)
	for i := range out {
		u := User(i)
		out[i] = Element{Key: uint64(u.ID), Time: u.ID.Time(), Body: u}
	}
	return out
}

// Bans returns n bans ordered by user id.
func Bans(n int) []Element {
	out := make([]Element, n)
	for i := range out {
		u := User(i)
		out[i] = Element{
			Key:  uint64(u.ID),
			Body: entity.Ban{User: u, Reason: fmt.Sprintf("rule %d", i%5)},
		}
	}
	return out
}

// AuditLog returns n entries, cycling through actions and the first three
// fixture users. Entries carry action_type and user_id attributes.
func AuditLog(n int, actions ...entity.AuditLogAction) []Element {
	if len(actions) == 0 {
		actions = []entity.AuditLogAction{entity.AuditLogMemberBanAdd}
	}
	out := make([]Element, n)
	for i := range out {
		id := FixtureID(i)
		action := actions[i%len(actions)]
		actor := User(i % 3)
		out[i] = Element{
			Key: uint64(id),
			Attrs: map[string]string{
				"action_type": fmt.Sprint(int(action)),
				"user_id":     actor.ID.String(),
			},
			Body: entity.AuditLogEntry{
				ID:         id,
				UserID:     actor.ID,
				TargetID:   User(10 + i).ID,
				ActionType: action,
			},
		}
	}
	return out
}

// ArchivedThreads returns n threads of parent archived one hour apart,
// oldest first.
func ArchivedThreads(parent snowflake.ID, n int) []Element {
	out := make([]Element, n)
	for i := range out {
		id := FixtureID(i)
		archivedAt := FixtureStart.Add(time.Duration(i) * time.Hour)
		out[i] = Element{
			Key:  uint64(id),
			Time: archivedAt,
			Body: entity.ThreadChannel{
				ID:       id,
				ParentID: parent,
				Name:     fmt.Sprintf("thread %d", i),
				ThreadMetadata: entity.ThreadMetadata{
					Archived:         true,
					ArchiveTimestamp: archivedAt,
				},
			},
		}
	}
	return out
}

// Entitlements returns n entitlements split between two users and
// two SKUs, with user_id and sku_ids attributes.
func Entitlements(application snowflake.ID, n int) []Element {
	out := make([]Element, n)
	for i := range out {
		id := FixtureID(i)
		user := User(i % 2)
		sku := FixtureID(200000 + i%2)
		out[i] = Element{
			Key: uint64(id),
			Attrs: map[string]string{
				"user_id": user.ID.String(),
				"sku_ids": sku.String(),
			},
			Body: entity.Entitlement{
				ID:            id,
				SKUID:         sku,
				ApplicationID: application,
				UserID:        user.ID,
			},
		}
	}
	return out
}
