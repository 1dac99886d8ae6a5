package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/ytb/internal/domain"
)

const (
	serverStartTimeout = 10 * time.Second
	serverPollInterval = 200 * time.Millisecond
)

var (
	serverURL   string
	noAutoStart bool
)

var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Queue and manage runs on a ytb server",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd, args); err != nil {
			return err
		}
		if serverURL == "" {
			serverURL = fmt.Sprintf("http://%s:%d", config.Server.Host, config.Server.Port)
		}
		if noAutoStart {
			return nil
		}
		return ensureServerRunning(cmd.Context(), newRemoteClient(serverURL))
	},
}

var remoteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Queue a run on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")
		format, _ := cmd.Flags().GetString("format")
		convert, _ := cmd.Flags().GetBool("convert")
		check, _ := cmd.Flags().GetBool("check")

		action := domain.ActionDownload
		if check {
			action = domain.ActionCheck
		}

		var run domain.Run
		err := newRemoteClient(serverURL).do(cmd.Context(), http.MethodPost, "/api/v1/runs", map[string]interface{}{
			"url":     url,
			"action":  action,
			"format":  format,
			"convert": convert,
		}, &run)
		if err != nil {
			return err
		}

		fmt.Printf("Run queued successfully!\n")
		fmt.Printf("ID: %s\n", run.ID)
		fmt.Printf("Status: %s\n", run.Status)
		return nil
	},
}

var remoteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs on the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/api/v1/runs"
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			path += "?status=" + status
		}

		var runs []*domain.Run
		if err := newRemoteClient(serverURL).do(cmd.Context(), http.MethodGet, path, nil, &runs); err != nil {
			return err
		}
		printRuns(runs)
		return nil
	},
}

var remoteStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run statistics of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.RunStats
		if err := newRemoteClient(serverURL).do(cmd.Context(), http.MethodGet, "/api/v1/runs/stats", nil, &stats); err != nil {
			return err
		}
		printStats(&stats)
		return nil
	},
}

var remoteGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show run details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var run domain.Run
		if err := newRemoteClient(serverURL).do(cmd.Context(), http.MethodGet, "/api/v1/runs/"+args[0], nil, &run); err != nil {
			return err
		}
		printRun(&run)
		return nil
	},
}

var remoteCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued or running run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := newRemoteClient(serverURL).do(cmd.Context(), http.MethodPost, "/api/v1/runs/"+args[0]+"/cancel", nil, nil); err != nil {
			return err
		}
		fmt.Println("Run cancelled successfully")
		return nil
	},
}

func init() {
	remoteCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Server URL (default from server.host and server.port)")
	remoteCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	remoteAddCmd.Flags().StringP("url", "u", "", "Video URL")
	remoteAddCmd.Flags().StringP("format", "f", string(domain.KindVideo), "Media format (audio, video)")
	remoteAddCmd.Flags().BoolP("convert", "c", false, "Convert audio to mp3, or merge video with the best audio")
	remoteAddCmd.Flags().Bool("check", false, "Only list qualifying formats")
	remoteAddCmd.MarkFlagRequired("url")
	remoteListCmd.Flags().StringP("status", "s", "", "Filter by status")

	remoteCmd.AddCommand(remoteAddCmd)
	remoteCmd.AddCommand(remoteListCmd)
	remoteCmd.AddCommand(remoteStatsCmd)
	remoteCmd.AddCommand(remoteGetCmd)
	remoteCmd.AddCommand(remoteCancelCmd)
}

// remoteClient talks to the server's JSON API
type remoteClient struct {
	baseURL string
	http    *http.Client
}

func newRemoteClient(baseURL string) *remoteClient {
	return &remoteClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// do sends body as JSON and decodes the response into out when non-nil.
// Error responses are turned into errors carrying the server message.
func (c *remoteClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// isServerRunning checks if the server is responding to health checks
func (c *remoteClient) isServerRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

// ensureServerRunning starts a background server when none responds
func ensureServerRunning(ctx context.Context, c *remoteClient) error {
	if c.isServerRunning(ctx) {
		return nil
	}

	fmt.Println("Server not running, starting...")
	if _, err := startDetachedServer(); err != nil {
		return err
	}

	deadline := time.Now().Add(serverStartTimeout)
	for time.Now().Before(deadline) {
		if c.isServerRunning(ctx) {
			fmt.Println("Server started successfully")
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(serverPollInterval):
		}
	}
	return fmt.Errorf("server did not start within %v", serverStartTimeout)
}
