package cmd

import (
	"strings"

	"github.com/foomo/keel/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// NewRootCommand represents the base command when called without any subcommands
func NewRootCommand() *cobra.Command {
	v := newViper()
	cmd := &cobra.Command{
		Use:           "clientregistry",
		Short:         "Keeps a small registry of clients in a single storage key",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zap.ReplaceGlobals(log.NewLogger(
				logLevelFlag(v),
				logFormatFlag(v),
			))
		},
	}

	flags := cmd.PersistentFlags()
	addLogLevelFlag(flags, v)
	addLogFormatFlag(flags, v)
	addStorageURLFlag(flags, v)
	addStoragePrefixFlag(flags, v)
	addStorageKeyFlag(flags, v)
	addHistoryLimitFlag(flags, v)

	cmd.AddCommand(NewServeCommand(v))
	cmd.AddCommand(NewListCommand(v))
	cmd.AddCommand(NewCreateCommand(v))
	cmd.AddCommand(NewUpdateCommand(v))
	cmd.AddCommand(NewDeleteCommand(v))
	cmd.AddCommand(NewBackupsCommand(v))
	cmd.AddCommand(NewRestoreCommand(v))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		log.Logger().Fatal("failed to run command", zap.Error(err))
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}
