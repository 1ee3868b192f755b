package endpoints

import (
	"fmt"
	"time"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// ThreadMemberPaginator walks the members of a thread.
type ThreadMemberPaginator struct {
	*pagination.Action[entity.ThreadMember]
}

// ThreadMembers paginates the members of thread ch ordered by user id.
func ThreadMembers(f pagination.Fetcher, ch entity.ChannelRef) (*ThreadMemberPaginator, error) {
	route, err := compile(rest.GetThreadMembers, []snowflake.ID{ch.ID})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.ThreadMember]{
		Name:   "thread-members",
		Route:  route,
		Policy: standardPolicy(forwardOnly),
		Key:    func(m entity.ThreadMember) uint64 { return key(m.UserID) },
	})
	if err != nil {
		return nil, err
	}
	return &ThreadMemberPaginator{a}, nil
}

// WithMember asks the API to include guild member data with each thread member.
func (p *ThreadMemberPaginator) WithMember(include bool) *ThreadMemberPaginator {
	p.SetFilter("with_member", formatBool(include))
	return p
}

// ArchiveKind selects one of the archived thread listings.
type ArchiveKind int

const (
	// ArchivedPublic lists archived public threads.
	ArchivedPublic ArchiveKind = iota
	// ArchivedPrivate lists archived private threads. Requires MANAGE_THREADS.
	ArchivedPrivate
	// JoinedPrivate lists archived private threads the current user joined.
	JoinedPrivate
)

func (k ArchiveKind) String() string {
	switch k {
	case ArchivedPublic:
		return "public"
	case ArchivedPrivate:
		return "private"
	case JoinedPrivate:
		return "joined-private"
	default:
		return fmt.Sprintf("ArchiveKind(%d)", int(k))
	}
}

// ArchivedThreadPaginator walks archived threads of a channel.
type ArchivedThreadPaginator struct {
	*pagination.Action[entity.ThreadChannel]
	kind ArchiveKind
}

// Kind returns the listing being walked.
func (p *ArchivedThreadPaginator) Kind() ArchiveKind { return p.kind }

// ArchivedThreads paginates archived threads of ch, most recently archived
// first. Public and private listings are anchored on the archive timestamp
// (SkipTo takes pagination.KeyFromTime values); the joined listing is
// anchored on thread ids. Requires READ_MESSAGE_HISTORY, plus MANAGE_THREADS
// for ArchivedPrivate.
func ArchivedThreads(f pagination.Fetcher, ch entity.ChannelRef, kind ArchiveKind) (*ArchivedThreadPaginator, error) {
	want := entity.PermissionReadMessageHistory
	var route rest.Route
	switch kind {
	case ArchivedPublic:
		route = rest.GetPublicArchivedThreads
	case ArchivedPrivate:
		route = rest.GetPrivateArchivedThreads
		want |= entity.PermissionManageThreads
	case JoinedPrivate:
		route = rest.GetJoinedPrivateThreads
	default:
		return nil, fmt.Errorf("%w: unknown archive kind %v", ErrInvalidTarget, kind)
	}
	if err := ch.Require(want); err != nil {
		return nil, err
	}
	compiled, err := compile(route, []snowflake.ID{ch.ID})
	if err != nil {
		return nil, err
	}

	endpoint := pagination.Endpoint[entity.ThreadChannel]{
		Name:     "archived-threads-" + kind.String(),
		Route:    compiled,
		Policy:   standardPolicy(backwardOnly),
		Key:      func(t entity.ThreadChannel) uint64 { return key(t.ID) },
		Elements: pagination.FieldElements("threads"),
	}
	if kind != JoinedPrivate {
		archivedAt := func(t entity.ThreadChannel) time.Time { return t.ThreadMetadata.ArchiveTimestamp }
		endpoint.Key = func(t entity.ThreadChannel) uint64 { return pagination.KeyFromTime(archivedAt(t)) }
		endpoint.Anchor = pagination.TimestampAnchor(archivedAt)
	}

	a, err := newAction(f, endpoint)
	if err != nil {
		return nil, err
	}
	return &ArchivedThreadPaginator{Action: a, kind: kind}, nil
}
