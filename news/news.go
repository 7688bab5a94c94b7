package news

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	defaultBaseURL  = "https://newsapi.org/v2"
	defaultPageSize = 15
	defaultCacheTTL = time.Hour
)

var travelKeywords = []string{"travel", "airline", "airport", "tourism", "flight"}

// Item is one travel news headline.
type Item struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
}

// Service fetches travel headlines from NewsAPI, scoped to the caller's
// destinations. Results are cached for an hour per destination set, and any
// failure (missing key, transport error, empty result) degrades to canned
// headlines instead of an error: news is decoration, never a blocker.
type Service struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client

	clock    clockwork.Clock
	logger   *slog.Logger
	cacheTTL time.Duration

	mu       sync.Mutex
	cached   []Item
	cachedAt time.Time
	cacheKey string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the cache clock, for tests.
func WithClock(clock clockwork.Clock) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithCacheTTL overrides the cache lifetime.
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) { s.cacheTTL = ttl }
}

// NewService creates a news service. An empty apiKey is valid and yields
// fallback headlines only.
func NewService(apiKey string, opts ...ServiceOption) *Service {
	s := &Service{
		APIKey:     apiKey,
		BaseURL:    defaultBaseURL,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		cacheTTL:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TravelNews returns headlines scoped to locations (country or city names).
// It never fails: remote problems return fallback items.
func (s *Service) TravelNews(ctx context.Context, locations []string) []Item {
	key := cacheKeyFor(locations)

	s.mu.Lock()
	if s.cacheKey == key && len(s.cached) > 0 &&
		s.clock.Now().Sub(s.cachedAt) < s.cacheTTL {
		cached := append([]Item(nil), s.cached...)
		s.mu.Unlock()
		return cached
	}
	s.mu.Unlock()

	if s.APIKey == "" {
		s.logger.Debug("news api key not configured, serving fallback headlines")
		return fallbackItems(locations)
	}

	items, err := s.fetch(ctx, locations)
	if err != nil {
		s.logger.Warn("news fetch failed, serving fallback headlines", "err", err)
		return fallbackItems(locations)
	}
	if len(items) == 0 {
		return fallbackItems(locations)
	}

	s.mu.Lock()
	s.cached = items
	s.cachedAt = s.clock.Now()
	s.cacheKey = key
	s.mu.Unlock()

	return append([]Item(nil), items...)
}

type apiResponse struct {
	Articles []struct {
		Title  string `json:"title"`
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

func (s *Service) fetch(ctx context.Context, locations []string) ([]Item, error) {
	endpoint := fmt.Sprintf("%s/everything?q=%s&sortBy=publishedAt&language=en&pageSize=%d",
		s.BaseURL, url.QueryEscape(searchQuery(locations)), defaultPageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build news request: %w", err)
	}
	req.Header.Set("X-Api-Key", s.APIKey)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, fmt.Errorf("news api rejected the key")
	case http.StatusTooManyRequests:
		return nil, fmt.Errorf("news api rate limit exceeded")
	default:
		return nil, fmt.Errorf("news api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read news response: %w", err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse news response: %w", err)
	}

	items := make([]Item, 0, len(parsed.Articles))
	for _, article := range parsed.Articles {
		if article.Title == "" || article.Source.Name == "" {
			continue
		}
		// Rolling-coverage headlines are noise in a travel feed.
		lower := strings.ToLower(article.Title)
		if strings.Contains(lower, "breaking") && strings.Contains(lower, "live") {
			continue
		}

		item := Item{
			ID:     uuid.New(),
			Title:  article.Title,
			Source: article.Source.Name,
		}
		if ts, parseErr := time.Parse(time.RFC3339, article.PublishedAt); parseErr == nil {
			item.PublishedAt = &ts
		}
		items = append(items, item)
	}
	return items, nil
}

// searchQuery builds a NewsAPI query like "(Turkey OR Japan) AND travel".
// The keyword is picked by hashing the location set so the same
// destinations always produce the same query.
func searchQuery(locations []string) string {
	if len(locations) == 0 {
		return travelKeywords[0]
	}
	scoped := locations
	if len(scoped) > 3 {
		scoped = scoped[:3]
	}
	keyword := travelKeywords[hashOf(cacheKeyFor(locations))%uint32(len(travelKeywords))]
	return fmt.Sprintf("(%s) AND %s", strings.Join(scoped, " OR "), keyword)
}

func cacheKeyFor(locations []string) string {
	sorted := append([]string(nil), locations...)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func hashOf(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

// fallbackItems returns canned headlines, personalized to the first
// location when one is known.
func fallbackItems(locations []string) []Item {
	if len(locations) > 0 {
		loc := locations[0]
		return canned(
			[2]string{fmt.Sprintf("Latest travel updates and news for %s", loc), "Travel News"},
			[2]string{fmt.Sprintf("New flights and routes to %s announced", loc), "Aviation Weekly"},
			[2]string{fmt.Sprintf("Travel tips and insights for visiting %s", loc), "Travel Guide"},
			[2]string{fmt.Sprintf("Airline industry updates: Routes to %s", loc), "Flight News"},
			[2]string{fmt.Sprintf("Tourism trends and updates for %s", loc), "Travel Insights"},
		)
	}
	return canned(
		[2]string{"New direct flights connecting major travel destinations announced", "Travel News"},
		[2]string{"Airline industry sees record passenger numbers this season", "Aviation Weekly"},
		[2]string{"Top travel destinations revealed by travel experts", "Travel Guide"},
		[2]string{"Airport security updates: New streamlined process for international travelers", "Travel Security"},
		[2]string{"Sustainable travel trends: Eco-friendly hotels on the rise", "Green Travel"},
		[2]string{"Travel tech: New apps help travelers find best deals and avoid crowds", "Tech Travel"},
		[2]string{"Airlines introduce new routes to popular vacation spots", "Flight News"},
		[2]string{"Travel insurance tips: What every traveler should know before booking", "Travel Insurance"},
	)
}

func canned(entries ...[2]string) []Item {
	items := make([]Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, Item{ID: uuid.New(), Title: e[0], Source: e[1]})
	}
	return items
}
