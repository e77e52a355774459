package main

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"pmatch/internal/builtin"
	"pmatch/internal/config"
	"pmatch/internal/logging"
	"pmatch/pkg/matcher"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app is the state shared by every command once flags are parsed.
type app struct {
	cfgPath string
	cfg     *config.Config
}

// NewRootCmd creates and returns the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:     "pmatch",
		Short:   MsgRootShort,
		Long:    MsgRootLong,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			logging.Setup(cfg.Verbose, cmd.Name() == "serve")
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return fmt.Errorf("no command specified")
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}

	rootCmd.PersistentFlags().CountP("verbose", "v", MsgFlagVerbose)
	rootCmd.PersistentFlags().StringVar(&a.cfgPath, "config", "", MsgFlagConfig)
	rootCmd.PersistentFlags().StringSlice("builtin-extractors", nil, MsgFlagExtractors)

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newExtractCmd(a))
	rootCmd.AddCommand(newMatchCmd(a))
	rootCmd.AddCommand(newServeCmd(a))
	rootCmd.AddCommand(newExtractorsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// newEnv builds an Env with the configured built-in extractors.
func (a *app) newEnv(opts ...matcher.Option) (*matcher.Env, error) {
	env := matcher.NewEnv(opts...)
	names := a.cfg.Extractors
	if len(names) == 0 {
		return env, nil
	}
	if slices.Contains(names, "all") {
		names = nil
	}
	if err := builtin.Register(env.Runtime.Extractors, names...); err != nil {
		return nil, err
	}
	return env, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: MsgVersionShort,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pmatch version %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
