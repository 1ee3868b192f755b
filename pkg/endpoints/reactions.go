package endpoints

import (
	"fmt"
	"strconv"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// ReactionType distinguishes normal and super reactions.
type ReactionType int

const (
	ReactionNormal ReactionType = 0
	ReactionBurst  ReactionType = 1
)

// ReactionPaginator walks the users that reacted with one emoji.
type ReactionPaginator struct {
	*pagination.Action[entity.User]
}

// Reactions paginates the users that reacted to message in ch with emoji,
// given as a unicode emoji or "name:id" for custom ones.
// Requires READ_MESSAGE_HISTORY.
func Reactions(f pagination.Fetcher, ch entity.ChannelRef, message snowflake.ID, emoji string) (*ReactionPaginator, error) {
	if err := ch.Require(entity.PermissionReadMessageHistory); err != nil {
		return nil, err
	}
	route, err := compile(rest.GetReactions, []snowflake.ID{ch.ID, message}, emoji)
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.User]{
		Name:   "reactions",
		Route:  route,
		Policy: standardPolicy(forwardOnly),
		Key:    func(u entity.User) uint64 { return key(u.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &ReactionPaginator{a}, nil
}

// Type selects normal or super reactions.
func (p *ReactionPaginator) Type(t ReactionType) *ReactionPaginator {
	p.SetFilter("type", strconv.Itoa(int(t)))
	return p
}

// PollVoterPaginator walks the voters of one poll answer.
type PollVoterPaginator struct {
	*pagination.Action[entity.User]
}

// PollVoters paginates the users that voted for answer of the poll in
// message. Requires VIEW_CHANNEL and READ_MESSAGE_HISTORY.
func PollVoters(f pagination.Fetcher, ch entity.ChannelRef, message snowflake.ID, answer int) (*PollVoterPaginator, error) {
	if err := ch.Require(entity.PermissionViewChannel | entity.PermissionReadMessageHistory); err != nil {
		return nil, err
	}
	if answer < 1 {
		return nil, fmt.Errorf("%w: poll answer ids start at 1 (got %d)", ErrInvalidTarget, answer)
	}
	route, err := compile(rest.GetPollAnswerVoters, []snowflake.ID{ch.ID, message}, strconv.Itoa(answer))
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.User]{
		Name:     "poll-voters",
		Route:    route,
		Policy:   standardPolicy(forwardOnly),
		Key:      func(u entity.User) uint64 { return key(u.ID) },
		Elements: pagination.FieldElements("users"),
	})
	if err != nil {
		return nil, err
	}
	return &PollVoterPaginator{a}, nil
}
