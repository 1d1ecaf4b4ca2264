// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package koios fetches script metadata from the Koios indexer API and turns
// its script_info records into validated ScriptInfo values.
package koios

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lcommon "github.com/blinklabs-io/gouroboros/ledger/common"
	"github.com/blinklabs-io/scriptinfo/scriptinfo"
)

// ErrUnexpectedStatus is returned when the API answers with a non-200 status
var ErrUnexpectedStatus = errors.New("unexpected status from Koios API")

// Default Koios base URLs for each supported Cardano network.
var DefaultBaseURLs = map[string]string{
	"mainnet": "https://api.koios.rest/api/v1",
	"preprod": "https://preprod.koios.rest/api/v1",
	"preview": "https://preview.koios.rest/api/v1",
	"guild":   "https://guild.koios.rest/api/v1",
}

// BaseURLForNetwork returns the default Koios base URL for the given network
// name, or an error if the network is not recognized.
func BaseURLForNetwork(network string) (string, error) {
	baseURL, ok := DefaultBaseURLs[network]
	if !ok {
		return "", fmt.Errorf(
			"no default Koios URL for network %q",
			network,
		)
	}
	return baseURL, nil
}

// maxResponseBytes limits JSON API responses to 10 MiB
const maxResponseBytes = 10 << 20

const defaultTimeout = 30 * time.Second

// Client is an HTTP client for the Koios REST API
type Client struct {
	httpClient  *http.Client
	logger      *slog.Logger
	baseURL     string
	bearerToken string
}

// ClientOption is a functional option for configuring a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom *http.Client
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout on the HTTP client configured so far
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithBearerToken sets the Koios API token sent with each request
func WithBearerToken(token string) ClientOption {
	return func(c *Client) {
		c.bearerToken = token
	}
}

// WithLogger specifies the logger object to use for logging messages
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a new Koios API client. The baseURL should include the
// API version path (e.g., "https://api.koios.rest/api/v1").
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchScriptInfo retrieves the raw script_info records for the given hex
// script hashes. Corresponds to POST /script_info.
func (c *Client) FetchScriptInfo(
	ctx context.Context,
	scriptHashes ...string,
) ([]ScriptInfoRecord, error) {
	reqBody, err := json.Marshal(
		scriptInfoRequest{ScriptHashes: scriptHashes},
	)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	body, err := c.doPost(ctx, c.baseURL+"/script_info", reqBody)
	if err != nil {
		return nil, fmt.Errorf("fetching script info: %w", err)
	}
	defer body.Close()

	var records []ScriptInfoRecord
	if err := json.NewDecoder(body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decoding script info response: %w", err)
	}
	c.logger.Debug(
		fmt.Sprintf("fetched %d script info record(s)", len(records)),
		"component", "koios",
	)
	return records, nil
}

// GetScriptInfo fetches and validates the script info for a single hash. Only
// the first record of the response is returned.
func (c *Client) GetScriptInfo(
	ctx context.Context,
	hash lcommon.Blake2b224,
) (scriptinfo.ScriptInfo, error) {
	hashStr := hash.String()
	records, err := c.FetchScriptInfo(ctx, hashStr)
	if err != nil {
		return scriptinfo.ScriptInfo{}, err
	}
	if len(records) == 0 {
		return scriptinfo.ScriptInfo{}, scriptinfo.EmptyResultError{Hash: hashStr}
	}
	if len(records) > 1 {
		c.logger.Warn(
			fmt.Sprintf(
				"script info query for %s returned %d records, using the first",
				hashStr,
				len(records),
			),
			"component", "koios",
		)
	}
	info, err := ParseFirst(records)
	if err != nil {
		return scriptinfo.ScriptInfo{}, err
	}
	if info.Hash() != hash {
		c.logger.Warn(
			fmt.Sprintf(
				"script info query for %s returned a record for %s",
				hashStr,
				info.Hash().String(),
			),
			"component", "koios",
		)
	}
	return info, nil
}

func (c *Client) doPost(
	ctx context.Context,
	reqURL string,
	reqBody []byte,
) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		reqURL,
		bytes.NewReader(reqBody),
	)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do( //nolint:gosec // URL is built from the configured base URL
		req,
	)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	if resp == nil || resp.Body == nil {
		return nil, errors.New("nil response from server")
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(
			io.LimitReader(resp.Body, 1024),
		)
		return nil, fmt.Errorf(
			"%w: %d: %s",
			ErrUnexpectedStatus,
			resp.StatusCode,
			string(bodyBytes),
		)
	}

	return &limitedReadCloser{
		Reader: io.LimitReader(resp.Body, maxResponseBytes),
		Closer: resp.Body,
	}, nil
}

// limitedReadCloser wraps a size-limited Reader with the
// underlying connection's Closer.
type limitedReadCloser struct {
	io.Reader
	io.Closer
}
