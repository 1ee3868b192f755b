package endpoints

import (
	"time"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// MessagePaginator walks a channel's message history.
type MessagePaginator struct {
	*pagination.Action[entity.Message]
}

// MessageHistory paginates the messages of ch, newest first by default.
// Requires VIEW_CHANNEL and READ_MESSAGE_HISTORY.
func MessageHistory(f pagination.Fetcher, ch entity.ChannelRef) (*MessagePaginator, error) {
	if err := ch.Require(entity.PermissionViewChannel | entity.PermissionReadMessageHistory); err != nil {
		return nil, err
	}
	route, err := compile(rest.GetChannelMessages, []snowflake.ID{ch.ID})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.Message]{
		Name:   "messages",
		Route:  route,
		Policy: standardPolicy(bothOrders),
		Key:    func(m entity.Message) uint64 { return key(m.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &MessagePaginator{a}, nil
}

// PinPaginator walks a channel's pinned messages.
type PinPaginator struct {
	*pagination.Action[entity.MessagePin]
}

// Pins paginates the pins of ch, most recently pinned first. The cursor is
// the pin timestamp, so SkipTo takes pagination.KeyFromTime values.
// Requires VIEW_CHANNEL and READ_MESSAGE_HISTORY.
func Pins(f pagination.Fetcher, ch entity.ChannelRef) (*PinPaginator, error) {
	if err := ch.Require(entity.PermissionViewChannel | entity.PermissionReadMessageHistory); err != nil {
		return nil, err
	}
	route, err := compile(rest.GetChannelPins, []snowflake.ID{ch.ID})
	if err != nil {
		return nil, err
	}

	pinnedAt := func(p entity.MessagePin) time.Time { return p.PinnedAt }
	a, err := newAction(f, pagination.Endpoint[entity.MessagePin]{
		Name:  "pins",
		Route: route,
		Policy: pagination.Policy{
			MinLimit:     1,
			MaxLimit:     50,
			InitialLimit: 50,
			Orders:       backwardOnly,
		},
		Key:      func(p entity.MessagePin) uint64 { return pagination.KeyFromTime(p.PinnedAt) },
		Elements: pagination.FieldElements("items"),
		Anchor:   pagination.TimestampAnchor(pinnedAt),
	})
	if err != nil {
		return nil, err
	}
	return &PinPaginator{a}, nil
}
