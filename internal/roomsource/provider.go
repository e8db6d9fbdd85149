// Package roomsource feeds the room registry from outside the core:
// pull-style providers for the room list plus the timers that trigger
// reload and re-sort. The registry itself stays free of I/O.
package roomsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/remotehq/office/internal/domain"
)

// Provider returns the current full room list.
type Provider interface {
	Fetch(ctx context.Context) ([]domain.Room, error)
}

// New picks a provider for the configured source: http(s) URLs are
// fetched, anything else is treated as a local JSON file.
func New(source string) Provider {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return NewHTTPProvider(source)
	}
	return &FileProvider{Path: source}
}

type HTTPProvider struct {
	URL    string
	client *http.Client
}

func NewHTTPProvider(url string) *HTTPProvider {
	return &HTTPProvider{
		URL:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HTTPProvider) Fetch(ctx context.Context) ([]domain.Room, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build rooms request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch rooms: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch rooms: unexpected status %d", resp.StatusCode)
	}
	var rooms []domain.Room
	if err := json.NewDecoder(resp.Body).Decode(&rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

type FileProvider struct {
	Path string
}

func (p *FileProvider) Fetch(_ context.Context) ([]domain.Room, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("read rooms file: %w", err)
	}
	var rooms []domain.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms file: %w", err)
	}
	return rooms, nil
}
