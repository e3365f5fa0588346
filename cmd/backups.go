package cmd

import (
	"context"
	"fmt"

	"github.com/foomo/clientregistry/pkg/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewBackupsCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List collection backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				keys, err := store.History().Backups(ctx)
				if err != nil {
					return err
				}
				for _, key := range keys {
					if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	return cmd
}

func NewRestoreCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <backup-key>",
		Short: "Replace the current collection with a backup",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return cobra.AppendActiveHelp(nil, "This command does not take any more arguments"), cobra.ShellCompDirectiveNoFileComp
			}
			var keys []string
			_ = withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				var err error
				keys, err = store.History().Backups(ctx)
				return err
			})
			return keys, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, v, func(ctx context.Context, store *registry.Store) error {
				if err := store.History().Restore(ctx, args[0]); err != nil {
					return err
				}
				n, err := store.Len(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "restored %s (%d clients)\n", args[0], n)
				return err
			})
		},
	}
	return cmd
}
