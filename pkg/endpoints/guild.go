package endpoints

import (
	"strconv"

	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/pagination"
	"github.com/Sternrassler/guildkit/pkg/rest"
	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// AuditLogPaginator walks a guild's audit log.
type AuditLogPaginator struct {
	*pagination.Action[entity.AuditLogEntry]
}

// AuditLog paginates the audit log of g, newest first by default.
// Requires VIEW_AUDIT_LOG.
func AuditLog(f pagination.Fetcher, g entity.GuildRef) (*AuditLogPaginator, error) {
	if err := g.Require(entity.PermissionViewAuditLog); err != nil {
		return nil, err
	}
	route, err := compile(rest.GetAuditLog, []snowflake.ID{g.ID})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.AuditLogEntry]{
		Name:     "audit-log",
		Route:    route,
		Policy:   standardPolicy(bothOrders),
		Key:      func(e entity.AuditLogEntry) uint64 { return key(e.ID) },
		Elements: pagination.FieldElements("audit_log_entries"),
	})
	if err != nil {
		return nil, err
	}
	return &AuditLogPaginator{a}, nil
}

// ActionType limits the entries to one action type. Zero removes the filter.
func (p *AuditLogPaginator) ActionType(t entity.AuditLogAction) *AuditLogPaginator {
	if t == 0 {
		p.ClearFilter("action_type")
		return p
	}
	p.SetFilter("action_type", strconv.Itoa(int(t)))
	return p
}

// User limits the entries to actions taken by user. Zero removes the filter.
func (p *AuditLogPaginator) User(user snowflake.ID) *AuditLogPaginator {
	setID(p.Action, "user_id", user)
	return p
}

// BanPaginator walks a guild's bans.
type BanPaginator struct {
	*pagination.Action[entity.Ban]
}

// Bans paginates the bans of g ordered by user id, oldest first by default.
// Requires BAN_MEMBERS.
func Bans(f pagination.Fetcher, g entity.GuildRef) (*BanPaginator, error) {
	if err := g.Require(entity.PermissionBanMembers); err != nil {
		return nil, err
	}
	route, err := compile(rest.GetBans, []snowflake.ID{g.ID})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.Ban]{
		Name:  "bans",
		Route: route,
		Policy: pagination.Policy{
			MinLimit:     1,
			MaxLimit:     1000,
			InitialLimit: 1000,
			Orders:       forwardFirst,
		},
		Key: func(b entity.Ban) uint64 { return key(b.User.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &BanPaginator{a}, nil
}

// ScheduledEventMemberPaginator walks the subscribers of a scheduled event.
type ScheduledEventMemberPaginator struct {
	*pagination.Action[entity.ScheduledEventUser]
}

// ScheduledEventMembers paginates the users subscribed to event in g.
func ScheduledEventMembers(f pagination.Fetcher, g entity.GuildRef, event snowflake.ID) (*ScheduledEventMemberPaginator, error) {
	route, err := compile(rest.GetScheduledEventUsers, []snowflake.ID{g.ID, event})
	if err != nil {
		return nil, err
	}

	a, err := newAction(f, pagination.Endpoint[entity.ScheduledEventUser]{
		Name:   "scheduled-event-users",
		Route:  route,
		Policy: standardPolicy(bothOrders),
		Key:    func(u entity.ScheduledEventUser) uint64 { return key(u.User.ID) },
	})
	if err != nil {
		return nil, err
	}
	return &ScheduledEventMemberPaginator{a}, nil
}

// WithMember asks the API to include guild member data with each user.
func (p *ScheduledEventMemberPaginator) WithMember(include bool) *ScheduledEventMemberPaginator {
	p.SetFilter("with_member", formatBool(include))
	return p
}

// setID sets or, for a zero id, clears a snowflake filter.
func setID[T any](a *pagination.Action[T], param string, id snowflake.ID) {
	if id == 0 {
		a.ClearFilter(param)
		return
	}
	a.SetFilter(param, id.String())
}
