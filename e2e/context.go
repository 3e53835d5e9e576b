// Package e2e drives the adapter end to end against a running instance and
// the mockhttp service standing in for smaug, userinfo and the provider.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// TestContext holds the state shared between steps of one scenario.
type TestContext struct {
	adapterURL  string
	mockHTTPURL string
	client      *http.Client

	lastStatus int
	lastBody   []byte
}

func NewTestContext() *TestContext {
	return &TestContext{
		adapterURL:  envOr("ADAPTER_URL", "http://localhost:3000"),
		mockHTTPURL: envOr("MOCK_HTTP_URL", "http://localhost:3002"),
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// RegisterMock registers an expectation with the mockhttp service.
func (tc *TestContext) RegisterMock(request, response map[string]any) error {
	payload, err := json.Marshal(map[string]any{"request": request, "response": response})
	if err != nil {
		return err
	}
	res, err := tc.client.Post(tc.mockHTTPURL+"/", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("mock registration failed with status %d", res.StatusCode)
	}
	return nil
}

// ResetMocks drops all registered expectations.
func (tc *TestContext) ResetMocks() error {
	res, err := tc.client.Post(tc.mockHTTPURL+"/reset", "application/json", nil)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("mock reset failed with status %d", res.StatusCode)
	}
	return nil
}

// Request sends a request to the adapter and records the response.
func (tc *TestContext) Request(method, path string, headers map[string]string) error {
	req, err := http.NewRequest(method, tc.adapterURL+path, nil)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := tc.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	tc.lastStatus = res.StatusCode
	tc.lastBody = body
	return nil
}

// LastStatus returns the status code of the most recent adapter response.
func (tc *TestContext) LastStatus() int {
	return tc.lastStatus
}

// ResponseField returns a top-level field of the most recent JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(tc.lastBody, &decoded); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body: %q)", err, tc.lastBody)
	}
	value, ok := decoded[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q (body: %q)", field, tc.lastBody)
	}
	return value, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
