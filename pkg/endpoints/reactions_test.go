package endpoints

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/guildkit/internal/testutil"
	"github.com/Sternrassler/guildkit/pkg/entity"
)

func TestReactions(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	message := testutil.FixtureID(3)
	path := "/channels/" + testChannel.String() + "/messages/" + message.String() + "/reactions/🔥"
	api.SetCollection(path, testutil.NewCollection(testutil.Users(25)...))

	reactions, err := Reactions(testutil.NewRequester(t, api), channelRef(0), message, "🔥")
	if err != nil {
		t.Fatalf("Reactions() error = %v", err)
	}
	_ = reactions.SetLimit(10)

	users, err := reactions.Type(ReactionBurst).All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(users) != 25 || users[0].ID != testutil.User(0).ID {
		t.Errorf("All() = %d users", len(users))
	}

	queries := api.Queries(path)
	if len(queries) != 3 || queries[0].Get("type") != "1" {
		t.Errorf("queries = %v", queries)
	}
}

func TestReactions_InvalidTarget(t *testing.T) {
	if _, err := Reactions(nopFetcher{}, channelRef(0), testutil.FixtureID(1), ""); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("empty emoji error = %v, want ErrInvalidTarget", err)
	}
	if _, err := Reactions(nopFetcher{}, channelRef(0), 0, "🔥"); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("zero message error = %v, want ErrInvalidTarget", err)
	}
	if _, err := Reactions(nopFetcher{}, channelRef(entity.PermissionViewChannel), testutil.FixtureID(1), "🔥"); !errors.Is(err, entity.ErrMissingPermission) {
		t.Errorf("missing permission error = %v", err)
	}
}

func TestPollVoters(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	message := testutil.FixtureID(9)
	path := "/channels/" + testChannel.String() + "/polls/" + message.String() + "/answers/2"
	c := testutil.NewCollection(testutil.Users(7)...)
	c.Field = "users"
	api.SetCollection(path, c)

	voters, err := PollVoters(testutil.NewRequester(t, api), channelRef(0), message, 2)
	if err != nil {
		t.Fatalf("PollVoters() error = %v", err)
	}

	all, err := voters.All(context.Background())
	if err != nil || len(all) != 7 {
		t.Fatalf("All() = %d voters, %v", len(all), err)
	}
	if got := api.Queries(path)[0].Get("after"); got != "0" {
		t.Errorf("after = %q, want 0", got)
	}

	if _, err := PollVoters(nopFetcher{}, channelRef(0), message, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("answer 0 error = %v, want ErrInvalidTarget", err)
	}
}
