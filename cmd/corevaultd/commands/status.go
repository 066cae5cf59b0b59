package commands

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/mladen4o/ClovaLink/internal/cli/output"
	"github.com/mladen4o/ClovaLink/pkg/config"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check whether a running corevaultd is healthy",
	Long:  `Call the configured server's /health endpoint and print the result.`,
	RunE:  runStatus,
}

type healthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	StartedAt string `json:"started_at"`
	UptimeSec int64  `json:"uptime_sec"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	healthURL, err := healthCheckURL(cfg.HTTP.ListenAddr)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(healthURL)
	if err != nil {
		return fmt.Errorf("corevaultd is not reachable at %s: %w", healthURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("corevaultd returned HTTP %d", resp.StatusCode)
	}

	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("status: decode response: %w", err)
	}

	output.SimpleTable(cmd.OutOrStdout(), [][2]string{
		{"Status", health.Status},
		{"Service", health.Service},
		{"Started", health.StartedAt},
		{"Uptime", (time.Duration(health.UptimeSec) * time.Second).String()},
		{"Endpoint", healthURL},
	})
	return nil
}

// healthCheckURL turns a listen address like ":8080" or "0.0.0.0:8080" into
// a reachable loopback URL for a local health check.
func healthCheckURL(listenAddr string) (string, error) {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return "", fmt.Errorf("parse listen address %q: %w", listenAddr, err)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("parse listen port %q: %w", port, err)
	}
	u := url.URL{Scheme: "http", Host: net.JoinHostPort(host, port), Path: "/health"}
	return u.String(), nil
}
