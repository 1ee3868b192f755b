// Package entity defines the remote objects returned by paginated endpoints.
//
// Only the fields needed to identify, order, and display an element are
// modelled; unknown fields are ignored by the JSON decoder.
package entity

import (
	"time"

	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// User is a platform account.
type User struct {
	ID         snowflake.ID `json:"id"`
	Username   string       `json:"username"`
	GlobalName string       `json:"global_name,omitempty"`
	Bot        bool         `json:"bot,omitempty"`
}

// Member is a user's guild membership.
type Member struct {
	User     *User          `json:"user,omitempty"`
	Nick     string         `json:"nick,omitempty"`
	Roles    []snowflake.ID `json:"roles,omitempty"`
	JoinedAt time.Time      `json:"joined_at"`
}

// Message is a channel message.
type Message struct {
	ID        snowflake.ID `json:"id"`
	ChannelID snowflake.ID `json:"channel_id"`
	Author    User         `json:"author"`
	Content   string       `json:"content"`
	Timestamp time.Time    `json:"timestamp"`
	Pinned    bool         `json:"pinned,omitempty"`
}

// MessagePin is one entry of a channel's pin list.
type MessagePin struct {
	PinnedAt time.Time `json:"pinned_at"`
	Message  Message   `json:"message"`
}

// AuditLogEntry records one administrative action in a guild.
type AuditLogEntry struct {
	ID         snowflake.ID     `json:"id"`
	UserID     snowflake.ID     `json:"user_id"`
	TargetID   snowflake.ID     `json:"target_id"`
	ActionType AuditLogAction   `json:"action_type"`
	Reason     string           `json:"reason,omitempty"`
	Changes    []AuditLogChange `json:"changes,omitempty"`
}

// AuditLogChange is a single field change inside an audit log entry.
type AuditLogChange struct {
	Key      string `json:"key"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// AuditLogAction is the audit log event type.
type AuditLogAction int

// A subset of audit log action types.
const (
	AuditLogGuildUpdate   AuditLogAction = 1
	AuditLogChannelCreate AuditLogAction = 10
	AuditLogChannelDelete AuditLogAction = 12
	AuditLogMemberKick    AuditLogAction = 20
	AuditLogMemberBanAdd  AuditLogAction = 22
	AuditLogMessageDelete AuditLogAction = 72
)

// Ban is a guild ban.
type Ban struct {
	User   User   `json:"user"`
	Reason string `json:"reason,omitempty"`
}

// ThreadMember is a user's membership in a thread.
type ThreadMember struct {
	ThreadID      snowflake.ID `json:"id"`
	UserID        snowflake.ID `json:"user_id"`
	JoinTimestamp time.Time    `json:"join_timestamp"`
	Flags         int          `json:"flags"`
	Member        *Member      `json:"member,omitempty"`
}

// ThreadMetadata carries archive state for thread channels.
type ThreadMetadata struct {
	Archived         bool      `json:"archived"`
	ArchiveTimestamp time.Time `json:"archive_timestamp"`
	Locked           bool      `json:"locked"`
}

// ThreadChannel is a thread as returned by the archived thread listings.
type ThreadChannel struct {
	ID             snowflake.ID   `json:"id"`
	GuildID        snowflake.ID   `json:"guild_id"`
	ParentID       snowflake.ID   `json:"parent_id"`
	Name           string         `json:"name"`
	ThreadMetadata ThreadMetadata `json:"thread_metadata"`
}

// Entitlement grants a user or guild access to a premium SKU.
type Entitlement struct {
	ID            snowflake.ID `json:"id"`
	SKUID         snowflake.ID `json:"sku_id"`
	ApplicationID snowflake.ID `json:"application_id"`
	UserID        snowflake.ID `json:"user_id,omitempty"`
	GuildID       snowflake.ID `json:"guild_id,omitempty"`
	Type          int          `json:"type"`
	Deleted       bool         `json:"deleted"`
	EndsAt        *time.Time   `json:"ends_at,omitempty"`
}

// ScheduledEventUser is a user subscribed to a guild scheduled event.
type ScheduledEventUser struct {
	EventID snowflake.ID `json:"guild_scheduled_event_id"`
	User    User         `json:"user"`
	Member  *Member      `json:"member,omitempty"`
}

// Subscription is a recurring purchase of a SKU.
type Subscription struct {
	ID                 snowflake.ID   `json:"id"`
	UserID             snowflake.ID   `json:"user_id"`
	SKUIDs             []snowflake.ID `json:"sku_ids"`
	Status             int            `json:"status"`
	CurrentPeriodStart time.Time      `json:"current_period_start"`
	CurrentPeriodEnd   time.Time      `json:"current_period_end"`
}
