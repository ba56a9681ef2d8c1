package cmd

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sirosfoundation/go-dugong/internal/app"
	"github.com/sirosfoundation/go-dugong/internal/domain"
	"github.com/sirosfoundation/go-dugong/internal/service"
	"github.com/sirosfoundation/go-dugong/pkg/config"
)

var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "Inspect the guestbook",
}

var messagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List guestbook entries",
	Long:  `Fetch the guestbook through the configured backend, newest first.`,
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

		// a missing data service is an error here, not a degraded mode
		cfg.CredentialsPolicy = config.CredentialsFail
		store, err := app.OpenBackend(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		guestbook := service.NewGuestbookService(store.Guestbook(), cfg, logger)
		entries, err := guestbook.Entries(cmd.Context())
		if err != nil {
			return err
		}

		if output == "json" {
			data, err := json.Marshal(entries)
			if err != nil {
				return fmt.Errorf("failed to encode entries: %w", err)
			}
			return printJSON(cmd.OutOrStdout(), data)
		}

		if len(entries) == 0 {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "No guestbook entries found.")
			return err
		}

		headers, rows := entryTable(entries)
		printTable(cmd.OutOrStdout(), headers, rows)
		return nil
	},
}

// entryTable puts the id column first and the remaining columns sorted
func entryTable(entries domain.GuestbookEntries) ([]string, [][]string) {
	seen := map[string]bool{domain.IDColumn: true}
	var columns []string
	for _, e := range entries {
		for k := range e {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	columns = append([]string{domain.IDColumn}, columns...)

	rows := make([][]string, len(entries))
	for i, e := range entries {
		row := make([]string, len(columns))
		for j, col := range columns {
			if v, ok := e[col]; ok && v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	return columns, rows
}

func init() {
	rootCmd.AddCommand(messagesCmd)
	messagesCmd.AddCommand(messagesListCmd)
}
