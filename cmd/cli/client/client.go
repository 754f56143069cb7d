// Package client is the CLI's HTTP client for the catalog API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/crucial707/geo-catalog/cmd/cli/config"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Do sends a request to path (relative to the API URL) with the saved bearer
// token. body is JSON-encoded unless it is already a json.RawMessage; out, if
// non-nil, receives the decoded response.
func Do(method, path string, body, out any) error {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case json.RawMessage:
		rdr = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, rdr)
	if err != nil {
		return err
	}
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := config.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

// errorMessage pulls the human text out of {"error": ...} or a problem body.
func errorMessage(data []byte) string {
	var body struct {
		Error  string            `json:"error"`
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return string(bytes.TrimSpace(data))
	}
	msg := body.Error
	if body.Detail != "" {
		msg = body.Detail
	}
	for k, v := range body.Fields {
		msg += fmt.Sprintf(" [%s: %s]", k, v)
	}
	return msg
}
