package owners

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Indexer resolves current owners for a set of token ids. Implementations
// wrap an external NFT index; results are best-effort.
type Indexer interface {
	Owners(ctx context.Context, contract string, ids []int) (map[int]Record, error)
}

// IndexerClient talks to an OpenSea-compatible HTTP index.
type IndexerClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// ClientOption applies a configuration option to the IndexerClient.
type ClientOption func(*IndexerClient)

// WithHTTPClient injects the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(ic *IndexerClient) {
		if c != nil {
			ic.client = c
		}
	}
}

// NewIndexerClient creates a client for the index at baseURL.
func NewIndexerClient(baseURL, apiKey string, opts ...ClientOption) *IndexerClient {
	ic := &IndexerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(ic)
	}
	return ic
}

type indexerAsset struct {
	TokenID string `json:"token_id"`
	Owner   struct {
		Address string `json:"address"`
		User    struct {
			Username string `json:"username"`
		} `json:"user"`
	} `json:"owner"`
}

type indexerResponse struct {
	Assets []indexerAsset `json:"assets"`
}

// Owners fetches owner records for up to one batch of token ids.
func (ic *IndexerClient) Owners(ctx context.Context, contract string, ids []int) (map[int]Record, error) {
	q := url.Values{}
	q.Set("asset_contract_address", contract)
	q.Set("limit", strconv.Itoa(len(ids)))
	for _, id := range ids {
		q.Add("token_ids", strconv.Itoa(id))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ic.baseURL+"/assets?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build indexer request: %w", err)
	}
	if ic.apiKey != "" {
		req.Header.Set("X-API-KEY", ic.apiKey)
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("indexer request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrIndexer, resp.StatusCode)
	}

	var body indexerResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode indexer response: %w", err)
	}

	out := make(map[int]Record, len(body.Assets))
	for _, asset := range body.Assets {
		id, err := strconv.Atoi(asset.TokenID)
		if err != nil {
			continue
		}
		out[id] = Record{
			Address:  strings.ToLower(asset.Owner.Address),
			Username: asset.Owner.User.Username,
		}
	}
	return out, nil
}
