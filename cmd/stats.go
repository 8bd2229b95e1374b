package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/chemstack/formulant/internal/model"
)

var statsPort int

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-compound lookup counters from a running server",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := statsPort
		if port == 0 {
			port = cfg.Server.Port
		}

		client := &http.Client{Timeout: 5 * time.Second}
		resp, err := client.Get(fmt.Sprintf("http://localhost:%d/v1/stats", port))
		if err != nil {
			return eris.Wrap(err, "stats: is the server running?")
		}
		defer resp.Body.Close() //nolint:errcheck

		if resp.StatusCode != http.StatusOK {
			return eris.Errorf("stats: unexpected status %d", resp.StatusCode)
		}

		var counters []model.UsageCounter
		if err := json.NewDecoder(resp.Body).Decode(&counters); err != nil {
			return eris.Wrap(err, "stats: decode response")
		}

		if len(counters) == 0 {
			fmt.Println("no lookups recorded yet")
			return nil
		}

		fmt.Printf("%-16s %10s  %s\n", "CAS", "LOOKUPS", "LAST")
		for _, c := range counters {
			fmt.Printf("%-16s %10d  %s\n", c.CAS, c.LookupCount, c.LastOutcome)
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().IntVar(&statsPort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(statsCmd)
}
