package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func serverFlag(cmd *cobra.Command) *string {
	return cmd.Flags().String("server", "http://localhost:8000", "base URL of a running fakeai server")
}

var httpClient = &http.Client{Timeout: 5 * time.Second}

func fetchJSON(url string, dst any) error {
	resp, err := httpClient.Get(url)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", url, resp.StatusCode, string(body))
	}
	return json.Unmarshal(body, dst)
}

// tableColor picks a bold label color when stdout is a terminal, matching
// colorizing output only when stdout is a terminal.
func tableColor() *color.Color {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		return color.New(color.Bold)
	}
	return color.New(color.Reset)
}

func printRow(label string, value any) {
	tableColor().Printf("%-28s", label)
	fmt.Printf("%v\n", value)
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the health of a running fakeai server",
	}
	base := serverFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var health map[string]any
		if err := fetchJSON(*base+"/health", &health); err != nil {
			return err
		}
		printRow("status", health["status"])
		printRow("ready", health["ready"])
		printRow("timestamp", health["timestamp"])
		return nil
	}
	return cmd
}

func newMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print tracker metrics from a running fakeai server",
	}
	base := serverFlag(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		var payload map[string]any
		if err := fetchJSON(*base+"/metrics", &payload); err != nil {
			return err
		}
		for _, key := range []string{"requests", "streaming", "models"} {
			if v, ok := payload[key]; ok {
				printRow(key, v)
			}
		}
		return nil
	}
	return cmd
}

func newCacheStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache-stats",
		Short: "Print KV-cache hit rate from a running fakeai server",
	}
	base := serverFlag(cmd)
	endpoint := cmd.Flags().String("endpoint", "", "filter to one endpoint's stats")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		url := *base + "/kv-cache/metrics"
		if *endpoint != "" {
			url += "?endpoint=" + *endpoint
		}
		var stats map[string]any
		if err := fetchJSON(url, &stats); err != nil {
			return err
		}
		printRow("endpoint", stats["Endpoint"])
		printRow("total_lookups", stats["TotalLookups"])
		printRow("total_cache_hits", stats["TotalCacheHits"])
		printRow("cache_hit_rate", stats["CacheHitRate"])
		printRow("avg_tokens_matched", stats["AvgTokensMatched"])
		printRow("ttft_speedup_avg_pct", stats["TTFTSpeedupAvgPct"])
		return nil
	}
	return cmd
}
