package ingest

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anil-gorti/wone-india-race-registry-builder/internal/models"
)

//go:embed config/platforms.yaml
var platformsYAML embed.FS

// Registry holds the configuration for all timing platforms, in the
// fixed order ingestion and aggregation must follow.
type Registry struct {
	Platforms []PlatformConfig `yaml:"platforms"`
}

// FetchConfig defines HTTP fetching configuration for a platform.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 3
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 1.0
}

// ProbeConfig configures slug-enumeration probing for platforms that
// expose no queryable listing API.
type ProbeConfig struct {
	URLTemplate string   `yaml:"url_template"` // e.g. "https://mysamay.in/event/%s-%d"
	Slugs       []string `yaml:"slugs"`
	Parallelism int      `yaml:"parallelism,omitempty"` // Default: 4
	MaxAttempts int      `yaml:"max_attempts,omitempty"` // Default: 3
}

// FieldKeys is the ordered fallback-key table for one platform: for each
// canonical field, the first present non-empty key wins.
type FieldKeys struct {
	RaceName         []string `yaml:"race_name,omitempty"`
	RaceDate         []string `yaml:"race_date,omitempty"`
	City             []string `yaml:"city,omitempty"`
	Distances        []string `yaml:"distances,omitempty"`
	ParticipantCount []string `yaml:"participant_count,omitempty"`
	EventID          []string `yaml:"event_id,omitempty"`
}

// PlatformConfig defines a single timing platform for ingestion.
type PlatformConfig struct {
	ID           models.PlatformTag `yaml:"id"`
	Name         string             `yaml:"name"`
	Strategy     string             `yaml:"strategy"` // "api_json", "dom_options", "browser", "probe"
	EventsAPI    string             `yaml:"events_api,omitempty"`
	YearParam    string             `yaml:"year_param,omitempty"` // Default: "year"
	AuthHeader   string             `yaml:"auth_header,omitempty"`
	DiscoverURLs []string           `yaml:"discover_urls,omitempty"`

	Fetch  FetchConfig `yaml:"fetch,omitempty"`
	Probe  ProbeConfig `yaml:"probe,omitempty"`
	Fields FieldKeys   `yaml:"fields,omitempty"`
}

// LoadRegistry reads the embedded platforms.yaml. The path parameter is
// a filesystem fallback for local development overrides.
func LoadRegistry(path string) (*Registry, error) {
	data, err := platformsYAML.ReadFile("config/platforms.yaml")
	if err != nil {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}

	// Expand environment variables within the YAML content (e.g. ${STS_EVENTS_API})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, err
	}

	for _, cfg := range reg.Platforms {
		if _, ok := models.ParsePlatform(string(cfg.ID)); !ok {
			return nil, fmt.Errorf("unknown platform tag %q in registry", cfg.ID)
		}
	}

	return &reg, nil
}

// Domains lists the hosts this platform is fetched from, for wiring
// per-domain fetch limits.
func (c *PlatformConfig) Domains() []string {
	var domains []string
	add := func(raw string) {
		if raw == "" {
			return
		}
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			domains = appendUnique(domains, u.Host)
		}
	}
	add(c.EventsAPI)
	for _, d := range c.DiscoverURLs {
		add(d)
	}
	// The probe template's format verbs are not valid URL escapes, so
	// substitute placeholders before parsing out the host.
	add(strings.NewReplacer("%s", "slug", "%d", "2024").Replace(c.Probe.URLTemplate))
	return domains
}

// Get returns the configuration for one platform.
func (r *Registry) Get(tag models.PlatformTag) (*PlatformConfig, error) {
	for i := range r.Platforms {
		if r.Platforms[i].ID == tag {
			return &r.Platforms[i], nil
		}
	}
	return nil, fmt.Errorf("platform %q not found in registry", tag)
}
