// Package commands contains the parcelgen command definitions.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/oy3o/parcel/derive"
	"github.com/oy3o/parcel/internal/config"
	"github.com/oy3o/parcel/internal/logging"
)

// app is the state shared by the subcommands of one invocation.
type app struct {
	v          *viper.Viper
	configPath string
	cfg        *config.Config
	log        *zap.Logger
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New(), log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:               "parcelgen",
		Short:             "Derive binary codecs from a type schema",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) { _ = a.log.Sync() },
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default parcelgen.yaml in . or ./configs)")
	flags.StringP("schema", "s", "", "Schema file (.yaml, .yml, .json, .jsonc)")
	flags.String("package", "", "Package clause of the generated file (default from the schema file)")
	flags.Bool("allow-opaque", false, "Encode Serializable types without a strategy as opaque CBOR")
	flags.String("instance-field", derive.DefaultInstanceField, "Static field marking a singleton")
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	bind(a.v, flags.Lookup, map[string]string{
		"schema":         "schema",
		"package":        "package",
		"allow_opaque":   "allow-opaque",
		"instance_field": "instance-field",
		"log.level":      "log-level",
	})

	registerGenerateCmd(rootCmd, a)
	registerInspectCmd(rootCmd, a)

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.v, a.configPath)
	if err != nil {
		return err
	}
	log, err := logging.Setup(cfg.Log, cmd.OutOrStdout(), cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	log.Debug("configuration loaded",
		zap.String("schema", cfg.Schema),
		zap.Bool("allow_opaque", cfg.AllowOpaque),
		zap.String("instance_field", cfg.InstanceField))
	return nil
}
