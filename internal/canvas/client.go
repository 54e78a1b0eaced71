package canvas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/campus-tools/online-students-report/pkg/config"
)

// Distinguished profile conditions. Private profiles return 401 and
// deleted users 404; both are expected and map to the email sentinel.
// Every other failure is treated as fatal by the resolver.
var (
	ErrUnauthorized = errors.New("canvas: profile unauthorized")
	ErrNotFound     = errors.New("canvas: profile not found")
)

// Canvas global identifiers encode the shard in the high digits.
const shardFactor = int64(10_000_000_000_000)

// Profile is the subset of the Canvas user profile the report needs.
type Profile struct {
	PrimaryEmail string `json:"primary_email"`
}

// Client calls the Canvas REST API with a service token.
type Client struct {
	baseURL string
	token   string
	shard   int64
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a Canvas API client.
func NewClient(cfg config.CanvasConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		shard:   cfg.Shard,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// ShardID maps a warehouse-local identifier onto the Canvas global id
// space. Identifiers that already carry a shard pass through unchanged.
func (c *Client) ShardID(id int64) int64 {
	if id >= shardFactor {
		return id
	}
	return c.shard*shardFactor + id
}

// GetUserProfile fetches the profile for a candidate user.
func (c *Client) GetUserProfile(ctx context.Context, canvasID int64) (*Profile, error) {
	url := fmt.Sprintf("%s/users/%d/profile", c.baseURL, c.ShardID(canvasID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build profile request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile request for user %d: %w", canvasID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("user %d: %w", canvasID, ErrUnauthorized)
	case http.StatusNotFound:
		return nil, fmt.Errorf("user %d: %w", canvasID, ErrNotFound)
	default:
		return nil, fmt.Errorf("profile request for user %d: unexpected status %d", canvasID, resp.StatusCode)
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode profile for user %d: %w", canvasID, err)
	}
	return &profile, nil
}
