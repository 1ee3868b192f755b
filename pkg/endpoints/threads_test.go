package endpoints

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/guildkit/internal/testutil"
	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
)

func TestArchivedThreads_Public(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	path := "/channels/" + testChannel.String() + "/threads/archived/public"
	c := testutil.NewCollection(testutil.ArchivedThreads(testChannel, 30)...)
	c.Field = "threads"
	c.Timestamps = true
	c.Descending = true
	api.SetCollection(path, c)

	threads, err := ArchivedThreads(testutil.NewRequester(t, api), channelRef(entity.PermissionReadMessageHistory), ArchivedPublic)
	if err != nil {
		t.Fatalf("ArchivedThreads() error = %v", err)
	}
	if threads.Kind() != ArchivedPublic || threads.Name() != "archived-threads-public" {
		t.Errorf("Kind() = %v, Name() = %q", threads.Kind(), threads.Name())
	}
	_ = threads.SetLimit(10)

	all, err := threads.All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 30 || all[0].Name != "thread 29" || all[29].Name != "thread 0" {
		t.Fatalf("All() = %d threads, want 30 most recently archived first", len(all))
	}

	queries := api.Queries(path)
	if got, want := queries[1].Get("before"), "2024-01-01T20:00:00.000000+00:00"; got != want {
		t.Errorf("second request before = %s, want %s", got, want)
	}
}

func TestArchivedThreads_JoinedPrivate(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	path := "/channels/" + testChannel.String() + "/users/@me/threads/archived/private"
	c := testutil.NewCollection(testutil.ArchivedThreads(testChannel, 15)...)
	c.Field = "threads"
	c.Descending = true
	api.SetCollection(path, c)

	threads, err := ArchivedThreads(testutil.NewRequester(t, api), channelRef(0), JoinedPrivate)
	if err != nil {
		t.Fatalf("ArchivedThreads() error = %v", err)
	}
	_ = threads.SetLimit(10)

	all, err := threads.All(context.Background())
	if err != nil || len(all) != 15 {
		t.Fatalf("All() = %d threads, %v", len(all), err)
	}
	if got, want := api.Queries(path)[1].Get("before"), testutil.FixtureID(5).String(); got != want {
		t.Errorf("second request before = %s, want snowflake %s", got, want)
	}
}

func TestArchivedThreads_Preconditions(t *testing.T) {
	tests := []struct {
		name    string
		perms   entity.Permissions
		kind    ArchiveKind
		missing entity.Permissions
		wantErr error
	}{
		{"public with history", entity.PermissionReadMessageHistory, ArchivedPublic, 0, nil},
		{"private needs manage threads", entity.PermissionReadMessageHistory, ArchivedPrivate, entity.PermissionManageThreads, entity.ErrMissingPermission},
		{"private with manage threads", entity.PermissionReadMessageHistory | entity.PermissionManageThreads, ArchivedPrivate, 0, nil},
		{"joined needs history", entity.PermissionViewChannel, JoinedPrivate, entity.PermissionReadMessageHistory, entity.ErrMissingPermission},
		{"unknown kind", entity.PermissionAdministrator, ArchiveKind(9), 0, ErrInvalidTarget},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ArchivedThreads(nopFetcher{}, channelRef(tt.perms), tt.kind)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ArchivedThreads() error = %v, want %v", err, tt.wantErr)
			}
			var permErr *entity.PermissionError
			if errors.As(err, &permErr) && permErr.Missing != tt.missing {
				t.Errorf("Missing = %v, want %v", permErr.Missing, tt.missing)
			}
		})
	}
}

func TestThreadMembers(t *testing.T) {
	api := testutil.NewMockAPI()
	defer api.Close()
	path := "/channels/" + testChannel.String() + "/thread-members"

	var elements []testutil.Element
	for i := range 8 {
		u := testutil.User(i)
		elements = append(elements, testutil.Element{
			Key:  uint64(u.ID),
			Body: entity.ThreadMember{ThreadID: testChannel, UserID: u.ID},
		})
	}
	api.SetCollection(path, testutil.NewCollection(elements...))

	members, err := ThreadMembers(testutil.NewRequester(t, api), channelRef(0))
	if err != nil {
		t.Fatalf("ThreadMembers() error = %v", err)
	}
	if err := members.SetOrder(pagination.Backward); !errors.Is(err, pagination.ErrUnsupportedOrder) {
		t.Errorf("SetOrder(Backward) error = %v", err)
	}

	all, err := members.WithMember(false).All(context.Background())
	if err != nil || len(all) != 8 {
		t.Fatalf("All() = %d members, %v", len(all), err)
	}
	if all[0].UserID != testutil.User(0).ID {
		t.Errorf("first member = %s, want lowest user id", all[0].UserID)
	}
	q := api.Queries(path)[0]
	if q.Get("with_member") != "false" || q.Get("after") != "0" {
		t.Errorf("query = %v", q)
	}
}
