package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthcheckPort int

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "One-shot liveness probe against a running gateway",
	RunE:  runHealthcheck,
}

func init() {
	healthcheckCmd.Flags().IntVar(&healthcheckPort, "port", 8080, "gateway port to probe")
}

func runHealthcheck(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", healthcheckPort)

	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("healthcheck: unexpected status %d", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("healthcheck: malformed response: %w", err)
	}
	if body["status"] != "ok" {
		return fmt.Errorf("healthcheck: status %q", body["status"])
	}

	fmt.Fprintln(os.Stdout, "ok")
	return nil
}
