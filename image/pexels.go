package image

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const defaultPexelsBaseURL = "https://api.pexels.com/v1"

// Search-term variations appended to the destination, matching the original
// service. The variation index picks one so results differ between trips but
// stay stable per trip.
var searchTermSuffixes = []string{"travel", "tourism", "landscape", "city", "destination"}

// PexelsClient is the Pexels-backed Provider. Free tier allows 200 requests
// per hour, which is why the enrichment scheduler paces its batches.
type PexelsClient struct {
	// APIKey authenticates against the Pexels API. Empty means every fetch
	// fails with ErrMissingAPIKey.
	APIKey string
	// BaseURL points at the Pexels search endpoint; tests swap it for a
	// local server.
	BaseURL string
	// HTTPClient performs both the search and the image download.
	HTTPClient *http.Client

	logger *slog.Logger
}

// NewPexelsClient creates a client with production defaults.
func NewPexelsClient(apiKey string) *PexelsClient {
	return &PexelsClient{
		APIKey:     apiKey,
		BaseURL:    defaultPexelsBaseURL,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		logger:     slog.Default().With("component", "pexels"),
	}
}

type pexelsPhotoSource struct {
	Medium   string `json:"medium"`
	Large    string `json:"large"`
	Original string `json:"original"`
}

type pexelsPhoto struct {
	Src pexelsPhotoSource `json:"src"`
}

type pexelsSearchResponse struct {
	Photos []pexelsPhoto `json:"photos"`
}

// FetchImage searches Pexels for a landscape photo of query and downloads
// the image bytes. The variation index selects the search-term suffix, the
// result page and the photo within the page.
func (c *PexelsClient) FetchImage(ctx context.Context, query string, variation int) ([]byte, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if variation < 0 {
		variation = -variation
	}

	term := fmt.Sprintf("%s %s", query, searchTermSuffixes[variation%len(searchTermSuffixes)])
	page := variation%10 + 1

	photos, err := c.search(ctx, term, page)
	if err != nil {
		return nil, err
	}
	if len(photos) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, term)
	}

	photo := photos[variation%len(photos)]
	imageURL := photo.Src.Medium
	if imageURL == "" {
		imageURL = photo.Src.Large
	}
	if imageURL == "" {
		imageURL = photo.Src.Original
	}
	if imageURL == "" {
		return nil, fmt.Errorf("%w: photo has no usable source", ErrNoResults)
	}

	data, err := c.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("image downloaded", "query", query, "bytes", len(data))
	return data, nil
}

func (c *PexelsClient) search(ctx context.Context, term string, page int) ([]pexelsPhoto, error) {
	params := url.Values{}
	params.Set("query", term)
	params.Set("per_page", "15")
	params.Set("page", fmt.Sprintf("%d", page))
	params.Set("orientation", "landscape")
	params.Set("size", "medium")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/search?%s", c.BaseURL, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %q", ErrNoResults, term)
	default:
		return nil, fmt.Errorf("image API returned status %d", resp.StatusCode)
	}

	var decoded pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}
	return decoded.Photos, nil
}

func (c *PexelsClient) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}
