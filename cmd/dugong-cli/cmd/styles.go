package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-dugong/internal/app"
)

var stylesCmd = &cobra.Command{
	Use:   "styles",
	Short: "Manage the stylesheet",
}

var stylesBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Compile the stylesheet once",
	Long:  `Compile the configured stylesheet source to its destination and exit.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		builder, compiler, err := app.NewStylesheetBuilder(cfg, afero.NewOsFs(), logger)
		if err != nil {
			return err
		}
		defer func() { _ = compiler.Close() }()

		if err := builder.Build(cmd.Context()); err != nil {
			return fmt.Errorf("stylesheet build failed: %w", err)
		}

		_, err = fmt.Fprintf(cmd.OutOrStdout(), "Compiled %s -> %s (%s) at %s\n",
			cfg.Styles.Source, builder.Destination(), compiler.Name(),
			builder.BuiltAt().Format(time.RFC3339))
		return err
	},
}

func init() {
	rootCmd.AddCommand(stylesCmd)
	stylesCmd.AddCommand(stylesBuildCmd)
}
