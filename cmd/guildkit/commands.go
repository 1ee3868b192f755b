package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/Sternrassler/guildkit/pkg/endpoints"
	"github.com/Sternrassler/guildkit/pkg/entity"
)

func newHistoryCmd(a *app) *cobra.Command {
	var flags traversalFlags
	cmd := &cobra.Command{
		Use:   "history <channel-id>",
		Short: "Export the message history of a channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				channel, err := parseID("channel id", args[0])
				if err != nil {
					return err
				}
				history, err := endpoints.MessageHistory(a.requester, entity.ChannelRef{ID: channel})
				if err != nil {
					return err
				}
				if err := configure(history.Action, flags); err != nil {
					return err
				}
				return export(ctx, cmd.OutOrStdout(), history.Action, flags.max, a.logger)
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newPinsCmd(a *app) *cobra.Command {
	var flags traversalFlags
	cmd := &cobra.Command{
		Use:   "pins <channel-id>",
		Short: "Export the pinned messages of a channel, most recent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				channel, err := parseID("channel id", args[0])
				if err != nil {
					return err
				}
				pins, err := endpoints.Pins(a.requester, entity.ChannelRef{ID: channel})
				if err != nil {
					return err
				}
				if err := configure(pins.Action, flags); err != nil {
					return err
				}
				return export(ctx, cmd.OutOrStdout(), pins.Action, flags.max, a.logger)
			})
		},
	}
	flags.register(cmd, false)
	return cmd
}

func newBansCmd(a *app) *cobra.Command {
	var flags traversalFlags
	cmd := &cobra.Command{
		Use:   "bans <guild-id>",
		Short: "Export the bans of a guild ordered by user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				guild, err := parseID("guild id", args[0])
				if err != nil {
					return err
				}
				bans, err := endpoints.Bans(a.requester, entity.GuildRef{ID: guild})
				if err != nil {
					return err
				}
				if err := configure(bans.Action, flags); err != nil {
					return err
				}
				return export(ctx, cmd.OutOrStdout(), bans.Action, flags.max, a.logger)
			})
		},
	}
	flags.register(cmd, true)
	return cmd
}

func newAuditLogCmd(a *app) *cobra.Command {
	var (
		flags      traversalFlags
		actionType int
		user       string
	)
	cmd := &cobra.Command{
		Use:   "audit-log <guild-id>",
		Short: "Export the audit log of a guild",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func(ctx context.Context) error {
				guild, err := parseID("guild id", args[0])
				if err != nil {
					return err
				}
				log, err := endpoints.AuditLog(a.requester, entity.GuildRef{ID: guild})
				if err != nil {
					return err
				}
				log.ActionType(entity.AuditLogAction(actionType))
				if user != "" {
					id, err := parseID("user id", user)
					if err != nil {
						return err
					}
					log.User(id)
				}
				if err := configure(log.Action, flags); err != nil {
					return err
				}
				return export(ctx, cmd.OutOrStdout(), log.Action, flags.max, a.logger)
			})
		},
	}
	flags.register(cmd, true)
	cmd.Flags().IntVar(&actionType, "action-type", 0, "only entries of this action type")
	cmd.Flags().StringVar(&user, "user", "", "only entries by this user id")
	return cmd
}
