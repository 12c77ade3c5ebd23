package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bridgeboard/bridgeboard/internal/util"
)

// APIEndpoint is the daemon API base URL, set by the root command's flag.
var APIEndpoint string

var httpClient = &http.Client{Timeout: 30 * time.Second}

// retryPolicy retries transport failures on idempotent requests. POSTs hit
// the board's lifecycle operations and are never replayed.
var retryPolicy = &util.RetryConfig{
	MaxRetries: 2,
	BaseDelay:  200 * time.Millisecond,
	MaxDelay:   2 * time.Second,
	Multiplier: 2.0,
	Jitter:     0.1,
	RetryIf:    util.IsRetryable,
}

// apiCall performs a JSON request against the daemon API and decodes the
// response into out (which may be nil).
func apiCall(method, path string, body any, out any) error {
	var data []byte
	if body != nil {
		var err error
		data, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	result := util.Retry(context.Background(), retryPolicy, func() error {
		return doRequest(method, path, data, out)
	})
	return result.LastError
}

func doRequest(method, path string, data []byte, out any) error {
	var reader io.Reader
	if data != nil {
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, APIEndpoint+path, reader)
	if err != nil {
		return err
	}
	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("daemon unreachable at %s: %w", APIEndpoint, err)
		if method == http.MethodGet {
			return util.MarkRetryable(err)
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned %s", resp.Status)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// printJSON pretty-prints a response payload
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
