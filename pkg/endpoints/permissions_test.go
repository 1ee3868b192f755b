package endpoints

import (
	"context"
	"errors"
	"testing"

	"github.com/Sternrassler/guildkit/internal/testutil"
	"github.com/Sternrassler/guildkit/pkg/entity"
	"github.com/Sternrassler/guildkit/pkg/rest"
)

// nopFetcher fails every request; constructors must not call it.
type nopFetcher struct{}

func (nopFetcher) Execute(_ context.Context, _ rest.CompiledRoute, _ func(*rest.Response), onFailure func(error)) {
	onFailure(errors.New("unexpected request"))
}

func TestConstructors_Permissions(t *testing.T) {
	message := testutil.FixtureID(1)

	tests := []struct {
		name    string
		build   func() error
		missing entity.Permissions
	}{
		{
			name: "history without read history",
			build: func() error {
				_, err := MessageHistory(nopFetcher{}, channelRef(entity.PermissionViewChannel))
				return err
			},
			missing: entity.PermissionReadMessageHistory,
		},
		{
			name: "history without anything relevant",
			build: func() error {
				_, err := MessageHistory(nopFetcher{}, channelRef(entity.PermissionBanMembers))
				return err
			},
			missing: entity.PermissionViewChannel | entity.PermissionReadMessageHistory,
		},
		{
			name: "pins without view channel",
			build: func() error {
				_, err := Pins(nopFetcher{}, channelRef(entity.PermissionReadMessageHistory))
				return err
			},
			missing: entity.PermissionViewChannel,
		},
		{
			name: "audit log without view audit log",
			build: func() error {
				_, err := AuditLog(nopFetcher{}, guildRef(entity.PermissionBanMembers))
				return err
			},
			missing: entity.PermissionViewAuditLog,
		},
		{
			name: "bans without ban members",
			build: func() error {
				_, err := Bans(nopFetcher{}, guildRef(entity.PermissionViewAuditLog))
				return err
			},
			missing: entity.PermissionBanMembers,
		},
		{
			name: "poll voters without view channel",
			build: func() error {
				_, err := PollVoters(nopFetcher{}, channelRef(entity.PermissionReadMessageHistory), message, 1)
				return err
			},
			missing: entity.PermissionViewChannel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			if !errors.Is(err, entity.ErrMissingPermission) {
				t.Fatalf("error = %v, want ErrMissingPermission", err)
			}
			var permErr *entity.PermissionError
			if !errors.As(err, &permErr) {
				t.Fatalf("error %T is not a *PermissionError", err)
			}
			if permErr.Missing != tt.missing {
				t.Errorf("Missing = %v, want %v", permErr.Missing, tt.missing)
			}
		})
	}
}

func TestConstructors_PermissionsGranted(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
	}{
		{"administrator implies all", func() error {
			_, err := Bans(nopFetcher{}, guildRef(entity.PermissionAdministrator))
			return err
		}},
		{"unresolved guild permissions", func() error {
			_, err := AuditLog(nopFetcher{}, guildRef(0))
			return err
		}},
		{"channel outside a guild", func() error {
			_, err := MessageHistory(nopFetcher{}, entity.ChannelRef{ID: testChannel, Permissions: entity.PermissionBanMembers})
			return err
		}},
		{"entitlements need no permission", func() error {
			_, err := Entitlements(nopFetcher{}, testGuild)
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.build(); err != nil {
				t.Errorf("error = %v", err)
			}
		})
	}
}

func TestConstructors_ZeroTarget(t *testing.T) {
	if _, err := MessageHistory(nopFetcher{}, entity.ChannelRef{}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("MessageHistory() error = %v, want ErrInvalidTarget", err)
	}
	if _, err := Bans(nopFetcher{}, entity.GuildRef{}); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Bans() error = %v, want ErrInvalidTarget", err)
	}
	if _, err := Subscriptions(nopFetcher{}, 0); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("Subscriptions() error = %v, want ErrInvalidTarget", err)
	}
}
