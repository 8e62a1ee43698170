package video

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/patrickmn/go-cache"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/emmett/rewind/internal/log"
)

const watchURL = "https://www.youtube.com/watch?v="

// YouTubeSearcher looks up videos through the YouTube Data API v3.
// Results are cached per query so that repeated identifications of the
// same song do not burn through the daily API quota.
type YouTubeSearcher struct {
	config  Config
	service *youtube.Service
	cache   *cache.Cache
}

// NewYouTubeSearcher creates a searcher authenticated with the API key
// from the configuration
func NewYouTubeSearcher(ctx context.Context, cfg Config) (*YouTubeSearcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("video: API key is required (set YOUTUBE_API_KEY)")
	}
	applyDefaults(&cfg)

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("video: failed to create youtube service: %w", err)
	}

	return newYouTubeSearcher(service, cfg), nil
}

func newYouTubeSearcher(service *youtube.Service, cfg Config) *YouTubeSearcher {
	applyDefaults(&cfg)
	return &YouTubeSearcher{
		config:  cfg,
		service: service,
		cache:   cache.New(cfg.CacheTTL, cfg.CacheTTL*2),
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultConfig("").MaxResults
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig("").CacheTTL
	}
}

// Name identifies the platform
func (y *YouTubeSearcher) Name() string {
	return "youtube"
}

// Search returns up to limit videos matching the query
func (y *YouTubeSearcher) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("video: empty search query")
	}
	if limit <= 0 || limit > y.config.MaxResults {
		limit = y.config.MaxResults
	}

	key := cacheKey(query, limit)
	if cached, found := y.cache.Get(key); found {
		if videos, ok := cached.([]Video); ok {
			log.Debug("video search cache hit", "query", query)
			return videos, nil
		}
	}

	call := y.service.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		MaxResults(int64(limit)).
		Context(ctx)
	if y.config.Region != "" {
		call = call.RegionCode(y.config.Region)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("video: search failed: %w", err)
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, Video{
			ID:          item.Id.VideoId,
			Title:       html.UnescapeString(item.Snippet.Title),
			Channel:     html.UnescapeString(item.Snippet.ChannelTitle),
			URL:         watchURL + item.Id.VideoId,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}

	y.cache.Set(key, videos, cache.DefaultExpiration)
	log.Debug("video search", "query", query, "results", len(videos))
	return videos, nil
}

func cacheKey(query string, limit int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
}
