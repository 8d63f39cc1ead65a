package cards

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Face is a distinct visual identity. Each face ends up on exactly two
// deck slots.
type Face struct {
	ID  string
	URL string
}

// FaceProvider supplies the distinct faces for a new deck.
type FaceProvider interface {
	FetchFaces(ctx context.Context, category string) ([]Face, error)
}

const (
	defaultSearchURL = "https://api.pexels.com/v1/search"
	facesPerDeck     = 6
	providerTimeout  = 10 * time.Second
)

// PexelsProvider fetches card faces from the Pexels search API.
type PexelsProvider struct {
	apiKey    string
	searchURL string
	client    *http.Client
}

// NewPexelsProvider creates a provider using the given API key.
func NewPexelsProvider(apiKey string) *PexelsProvider {
	return &PexelsProvider{
		apiKey:    apiKey,
		searchURL: defaultSearchURL,
		client:    &http.Client{Timeout: providerTimeout},
	}
}

type pexelsPhoto struct {
	ID  json.Number `json:"id"`
	Src struct {
		Original string `json:"original"`
	} `json:"src"`
}

type pexelsSearchResult struct {
	Photos []pexelsPhoto `json:"photos"`
}

// FetchFaces queries Pexels for photos matching the category and maps
// them to deck faces.
func (p *PexelsProvider) FetchFaces(ctx context.Context, category string) ([]Face, error) {
	endpoint := fmt.Sprintf("%s?query=%s&per_page=%d", p.searchURL, url.QueryEscape(category), facesPerDeck)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build pexels request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch card faces: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pexels responded with status %d", resp.StatusCode)
	}

	var result pexelsSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}

	faces := make([]Face, 0, len(result.Photos))
	for _, photo := range result.Photos {
		faces = append(faces, Face{
			ID:  photo.ID.String(),
			URL: photo.Src.Original,
		})
	}

	return faces, nil
}
