// Package cmd contains all CLI commands for dugong-cli.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-dugong/pkg/config"
	"github.com/sirosfoundation/go-dugong/pkg/logging"
)

var (
	// Global flags
	configFile string
	envFile    string
	output     string
)

// loadConfig reads .env, the config file and the environment
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger logs to stderr so command output stays clean
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	lc := cfg.Logging
	if lc.Level == "" || lc.Level == "info" {
		lc.Level = "warn"
	}
	return logging.NewLogger(lc)
}

// printJSON formats and prints JSON output
func printJSON(w io.Writer, data []byte) error {
	var formatted bytes.Buffer
	if err := json.Indent(&formatted, data, "", "  "); err != nil {
		// If it's not valid JSON, just print as-is
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, formatted.String())
	return err
}

// printTable prints data in a simple table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	// Calculate column widths
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, h := range headers {
		_, _ = fmt.Fprintf(w, "%-*s  ", widths[i], h)
	}
	_, _ = fmt.Fprintln(w)

	for i := range headers {
		_, _ = fmt.Fprintf(w, "%s  ", strings.Repeat("-", widths[i]))
	}
	_, _ = fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				_, _ = fmt.Fprintf(w, "%-*s  ", widths[i], cell)
			}
		}
		_, _ = fmt.Fprintln(w)
	}
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "dugong-cli",
	Short: "Maintenance tool for the dugong server",
	Long: `dugong-cli runs one-off tasks against the same configuration as the
dugong server.

Examples:
  # Compile the stylesheet without starting the server
  dugong-cli styles build

  # Show the guestbook entries the server would return
  dugong-cli messages list

  # Show the routes of the sample variant
  dugong-cli routes --variant sample

Environment Variables:
  API_URL, API_KEY, SCHEMA   Data service settings
  DUGONG_*                   Any setting of the config file`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", getEnvOrDefault("DUGONG_CONFIG", "configs/config.yaml"), "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format: table, json")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
