package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ta-signal-bot",
		Short: "Operator CLI for the technical-analysis signal bot",
		Long:  `Inspects and patches the running bot's application and strategy configuration through its admin HTTP surface.`,
	}

	apiEndpoint string
	changedBy   string
	reason      string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&apiEndpoint, "api-endpoint", "http://localhost:8080", "base URL of the running bot's admin HTTP surface")
	rootCmd.PersistentFlags().StringVar(&changedBy, "changed-by", os.Getenv("USER"), "attribution recorded on the audit trail for any write")
	rootCmd.PersistentFlags().StringVar(&reason, "reason", "", "reason recorded on the audit trail for any write")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(strategiesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var httpClient = &http.Client{Timeout: 10 * time.Second}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// adminGet issues GET path against apiEndpoint and returns the decoded
// envelope's data payload.
func adminGet(path string) (json.RawMessage, error) {
	resp, err := httpClient.Get(apiEndpoint + path)
	if err != nil {
		return nil, fmt.Errorf("request to admin surface failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

// adminPost issues method (POST/DELETE) against path with body, returning
// the decoded envelope's data payload.
func adminPost(method, path string, body interface{}) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, apiEndpoint+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to admin surface failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp)
}

func decodeEnvelope(resp *http.Response) (json.RawMessage, error) {
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("failed to decode admin surface response: %w", err)
	}
	if !env.Success {
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("admin surface returned an unsuccessful response")
	}
	return env.Data, nil
}

func printJSON(data json.RawMessage) error {
	var pretty interface{}
	if err := json.Unmarshal(data, &pretty); err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

func requireReason() error {
	if reason == "" {
		return fmt.Errorf("--reason is required for write operations")
	}
	return nil
}
