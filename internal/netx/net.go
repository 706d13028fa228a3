// Package netx holds small HTTP helpers shared by the server and the CLI.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Fetch downloads url and returns at most limit bytes of the body. A limit of
// zero or less disables the cap. Any status other than 200 is an error.
func Fetch(ctx context.Context, client *http.Client, url string, limit int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch failed: %s; body: %s", resp.Status, string(b))
	}

	var body io.Reader = resp.Body
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("fetch failed: body exceeds %d bytes", limit)
	}
	return data, nil
}
