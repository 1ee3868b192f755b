package entity

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/guildkit/pkg/snowflake"
)

// ErrMissingPermission is wrapped by every *PermissionError.
var ErrMissingPermission = errors.New("missing permission")

// Permissions is the platform permission bit set.
type Permissions uint64

// Permission bits used by the paginated endpoints.
const (
	PermissionBanMembers         Permissions = 1 << 2
	PermissionAdministrator      Permissions = 1 << 3
	PermissionViewAuditLog       Permissions = 1 << 7
	PermissionViewChannel        Permissions = 1 << 10
	PermissionReadMessageHistory Permissions = 1 << 16
	PermissionManageThreads      Permissions = 1 << 34
)

var permissionNames = map[Permissions]string{
	PermissionBanMembers:         "BAN_MEMBERS",
	PermissionAdministrator:      "ADMINISTRATOR",
	PermissionViewAuditLog:       "VIEW_AUDIT_LOG",
	PermissionViewChannel:        "VIEW_CHANNEL",
	PermissionReadMessageHistory: "READ_MESSAGE_HISTORY",
	PermissionManageThreads:      "MANAGE_THREADS",
}

// Has reports whether every bit in want is present. Administrator implies everything.
func (p Permissions) Has(want Permissions) bool {
	if p&PermissionAdministrator != 0 {
		return true
	}
	return p&want == want
}

// Missing returns the bits of want not granted by p.
func (p Permissions) Missing(want Permissions) Permissions {
	if p&PermissionAdministrator != 0 {
		return 0
	}
	return want &^ p
}

// String lists the known permission names in the set.
func (p Permissions) String() string {
	var names []string
	for bit := Permissions(1); bit != 0; bit <<= 1 {
		if p&bit == 0 {
			continue
		}
		if name, ok := permissionNames[bit]; ok {
			names = append(names, name)
		} else {
			names = append(names, fmt.Sprintf("0x%x", uint64(bit)))
		}
	}
	if len(names) == 0 {
		return "NONE"
	}
	return strings.Join(names, "|")
}

// PermissionError reports a capability the current user lacks on a target.
type PermissionError struct {
	Target  snowflake.ID
	Missing Permissions
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s %s on %s", ErrMissingPermission, e.Missing, e.Target)
}

func (e *PermissionError) Unwrap() error {
	return ErrMissingPermission
}

// ChannelRef identifies a channel together with the current user's effective
// permissions in it.
//
// Permissions are checked locally only when GuildID is set and Permissions is
// non-zero; a zero value means "not resolved" and defers the check to the API.
type ChannelRef struct {
	ID          snowflake.ID
	GuildID     snowflake.ID
	Permissions Permissions
}

// Require returns a *PermissionError if the resolved permissions lack want.
func (c ChannelRef) Require(want Permissions) error {
	if c.GuildID == 0 || c.Permissions == 0 {
		return nil
	}
	if missing := c.Permissions.Missing(want); missing != 0 {
		return &PermissionError{Target: c.ID, Missing: missing}
	}
	return nil
}

// GuildRef identifies a guild together with the current user's guild-level permissions.
// A zero Permissions value means "not resolved".
type GuildRef struct {
	ID          snowflake.ID
	Permissions Permissions
}

// Require returns a *PermissionError if the resolved permissions lack want.
func (g GuildRef) Require(want Permissions) error {
	if g.Permissions == 0 {
		return nil
	}
	if missing := g.Permissions.Missing(want); missing != 0 {
		return &PermissionError{Target: g.ID, Missing: missing}
	}
	return nil
}
