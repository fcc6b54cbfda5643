// Package cmd contains wallet app
package cmd

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

var url string

func init() {
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:3000", "Url of the ledger service.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple CISP wallet",
}

// Execute runs the command named on the command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// apiError is the error document returned by the service.
type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

var client = http.Client{Timeout: 10 * time.Second}

// call sends the request to the service and decodes the response into v.
func call(method string, path string, body any, v any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err != nil {
			return fmt.Errorf("%s %s: %s", method, path, resp.Status)
		}
		if len(ae.Fields) > 0 {
			return fmt.Errorf("%s: %v", ae.Error, ae.Fields)
		}
		return fmt.Errorf("%s", ae.Error)
	}

	if v == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
