package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/tether"
)

var (
	listJSON    bool
	filterTitle string
)

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "List pending notifications in the spool",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		svc, err := tether.New(
			tether.WithSpoolDir(cfg.SpoolDir),
			tether.WithLogger(slog.Default()),
		)
		if err != nil {
			fmt.Printf("Error initializing tether: %v\n", err)
			os.Exit(1)
		}

		pending, err := svc.Notifications(context.Background())
		if err != nil {
			fmt.Printf("Error listing notifications: %v\n", err)
			os.Exit(1)
		}

		var filtered []tether.Notification
		for _, n := range pending {
			if filterTitle != "" && !strings.Contains(strings.ToLower(n.Title), strings.ToLower(filterTitle)) {
				continue
			}
			filtered = append(filtered, n)
		}

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(filtered); err != nil {
				fmt.Printf("Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		for _, n := range filtered {
			line := fmt.Sprintf("%d %s", n.ID, n.Title)
			if n.Body != "" {
				line += fmt.Sprintf(" - %s", firstLine(n.Body))
			}
			fmt.Println(line)
		}
	},
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func init() {
	rootCmd.AddCommand(notificationsCmd)
	notificationsCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	notificationsCmd.Flags().StringVar(&filterTitle, "title", "", "Filter notifications by title substring")
}
