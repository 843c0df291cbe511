// cmd/panelctl/update.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var updateDevice string

var updateCmd = &cobra.Command{
	Use:   "update <firmware-url>",
	Short: "Ask a device to fetch and flash new firmware",
	Long: `POST the firmware URL to the device's /ota endpoint. The device replies
immediately; progress is only visible in its log, and it restarts on
success.`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

func init() {
	updateCmd.Flags().StringVarP(&updateDevice, "device", "d", "http://192.168.2.123", "Device base URL")
	rootCmd.AddCommand(updateCmd)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	body, err := json.Marshal(struct {
		URL string `json:"url"`
	}{URL: args[0]})
	if err != nil {
		return err
	}

	reply, err := postUpdate(&http.Client{Timeout: 10 * time.Second}, updateDevice, body)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

func postUpdate(c *http.Client, device string, body []byte) (string, error) {
	endpoint := strings.TrimRight(device, "/") + "/ota"

	resp, err := c.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("update request: %w", err)
	}
	defer resp.Body.Close()

	reply, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("device refused update (HTTP %d): %s", resp.StatusCode, strings.TrimSpace(string(reply)))
	}
	return strings.TrimSpace(string(reply)), nil
}
