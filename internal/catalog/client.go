// Package catalog fetches recipes from the NomNom API and normalizes the
// upstream payloads, which mix PascalCase and camelCase keys depending on the
// endpoint, into a single shape the rest of the app can rely on.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fdg312/nomnom/internal/mealplan"
)

// ErrTimeout reports that the upstream API did not answer within the client
// deadline. Callers show a retry affordance instead of a generic failure.
var ErrTimeout = errors.New("catalog: request timed out")

const defaultTimeout = 12 * time.Second

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a catalog client for the given API base URL, for example
// "https://api.nomnom.app". A zero timeout selects the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// List fetches all recipes. query and category are optional server-side
// filters; pass "" to skip them.
func (c *Client) List(ctx context.Context, category, query string) ([]mealplan.RecipeRef, error) {
	u := c.baseURL + "/recipes"
	params := url.Values{}
	if category != "" {
		params.Set("category", category)
	}
	if query != "" {
		params.Set("q", query)
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		// Non-array payloads normalize to an empty catalog.
		return []mealplan.RecipeRef{}, nil
	}

	recipes := make([]mealplan.RecipeRef, 0, len(raw))
	for idx, element := range raw {
		recipes = append(recipes, normalizeRecipe(element, idx))
	}
	return recipes, nil
}

// Detail is a single recipe with its child collections.
type Detail struct {
	mealplan.RecipeRef
	VideoURL    string
	ImageURLs   []string
	Ingredients []string
	Steps       []string
}

// Get fetches one recipe by id.
func (c *Client) Get(ctx context.Context, id int64) (Detail, error) {
	body, err := c.get(ctx, c.baseURL+"/recipes/"+strconv.FormatInt(id, 10))
	if err != nil {
		return Detail{}, err
	}
	return normalizeDetail(body, id), nil
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, u)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return nil, fmt.Errorf("%w: %s", ErrTimeout, u)
		}
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("catalog: request failed with status %d", resp.StatusCode)
	}
	return body, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
