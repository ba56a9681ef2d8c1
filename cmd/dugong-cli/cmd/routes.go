package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-dugong/internal/api"
	"github.com/sirosfoundation/go-dugong/internal/modes"
)

var routesVariant string

// RouteInfo is the JSON form of a route
type RouteInfo struct {
	Method  string `json:"method"`
	Path    string `json:"path"`
	Feature string `json:"feature,omitempty"`
}

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Long:  `Print the routes the server registers for the selected variant.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if routesVariant != "" {
			cfg.Variant = routesVariant
		}

		mode, err := modes.ParseMode(cfg.Variant)
		if err != nil {
			return err
		}
		features := modes.Resolve(mode, cfg.Features)

		var handlers *api.Handlers
		routes := api.EnabledRoutes(handlers.Routes(), features)

		infos := make([]RouteInfo, len(routes))
		for i, r := range routes {
			infos[i] = RouteInfo{Method: r.Method, Path: r.Path, Feature: string(r.Feature)}
		}

		if output == "json" {
			data, err := json.Marshal(infos)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		}

		rows := make([][]string, len(infos))
		for i, info := range infos {
			feature := info.Feature
			if feature == "" {
				feature = "-"
			}
			rows[i] = []string{info.Method, info.Path, feature}
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Variant: %s\n\n", mode)
		printTable(cmd.OutOrStdout(), []string{"METHOD", "PATH", "FEATURE"}, rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().StringVar(&routesVariant, "variant", "", "Variant: base, sample, demo or all (default from config)")
}
