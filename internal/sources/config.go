package sources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/johnrirwin/newsfeed/internal/models"
)

const (
	DefaultHeadlinesURL   = "https://news.ycombinator.com/rss"
	DefaultHeadlinesLabel = "Hacker News"
	DefaultHeadlinesLimit = 20
)

// FeedsConfig is the feed catalog: named categories of feed URLs plus the
// headlines source.
type FeedsConfig struct {
	Categories []models.Category       `yaml:"categories"`
	Headlines  *models.HeadlinesSource `yaml:"headlines,omitempty"`
}

// LoadFeedsConfig loads the catalog from a YAML file
func LoadFeedsConfig(configPath string) (*FeedsConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var config FeedsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse feeds config: %w", err)
	}

	config.normalize()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feeds config %s: %w", configPath, err)
	}
	return &config, nil
}

// normalize trims names and URLs, drops blank URLs and fills headline defaults.
func (c *FeedsConfig) normalize() {
	for i := range c.Categories {
		cat := &c.Categories[i]
		cat.Name = strings.TrimSpace(cat.Name)

		urls := make([]string, 0, len(cat.Feeds))
		for _, u := range cat.Feeds {
			if u = strings.TrimSpace(u); u != "" {
				urls = append(urls, u)
			}
		}
		cat.Feeds = urls
	}

	if c.Headlines == nil {
		c.Headlines = &models.HeadlinesSource{}
	}
	if c.Headlines.URL == "" {
		c.Headlines.URL = DefaultHeadlinesURL
	}
	if c.Headlines.Label == "" {
		c.Headlines.Label = DefaultHeadlinesLabel
	}
	if c.Headlines.Limit <= 0 {
		c.Headlines.Limit = DefaultHeadlinesLimit
	}
}

// Validate rejects unnamed categories, the reserved headlines name and names
// that reduce to the same slug ("Tech News" and "tech-news").
func (c *FeedsConfig) Validate() error {
	seen := make(map[string]string, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		slug := models.CategorySlug(cat.Name)
		switch {
		case slug == "":
			return fmt.Errorf("category %q has no letters or digits", cat.Name)
		case slug == models.HeadlinesSlug:
			return fmt.Errorf("category name %q is reserved for headlines", cat.Name)
		}
		if prev, ok := seen[slug]; ok {
			return fmt.Errorf("duplicate category %q (same key as %q)", cat.Name, prev)
		}
		seen[slug] = cat.Name
	}
	if len(c.Categories) == 0 {
		return errors.New("no categories defined")
	}
	return nil
}

// Category looks up a category by case-insensitive name.
func (c *FeedsConfig) Category(name string) (models.Category, bool) {
	for _, cat := range c.Categories {
		if strings.EqualFold(cat.Name, name) {
			return cat, true
		}
	}
	return models.Category{}, false
}

// FindFeedsConfig searches for feeds.yaml in common locations
func FindFeedsConfig() string {
	// Check common locations in order of priority
	locations := []string{
		"feeds.yaml",        // Current directory
		"feeds.yml",         // Alternate extension
		"../feeds.yaml",     // Parent directory (for running from cmd/server)
		"/app/feeds.yaml",   // Docker container path
		"config/feeds.yaml", // Config subdirectory
	}

	// Also check FEEDS_CONFIG_PATH environment variable
	if envPath := os.Getenv("FEEDS_CONFIG_PATH"); envPath != "" {
		locations = append([]string{envPath}, locations...)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			absPath, _ := filepath.Abs(loc)
			return absPath
		}
	}

	return ""
}

// DefaultFeedsConfig returns the catalog used when no config file is found
func DefaultFeedsConfig() *FeedsConfig {
	config := &FeedsConfig{
		Categories: []models.Category{
			{Name: "Tech", Feeds: []string{
				"https://feeds.arstechnica.com/arstechnica/index",
				"https://www.theverge.com/rss/index.xml",
				"https://github.blog/feed/",
			}},
			{Name: "News", Feeds: []string{
				"https://www.theguardian.com/world/rss",
				"https://feeds.bbci.co.uk/news/world/rss.xml",
			}},
			{Name: "Ball", Feeds: []string{
				"https://www.espn.com/espn/rss/nba/news",
			}},
		},
	}
	config.normalize()
	return config
}
