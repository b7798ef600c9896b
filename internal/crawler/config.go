// Package crawler implements the alkoteka catalog crawl on top of the Colly
// fetch engine: city resolution, category fan-out, pagination and the
// detail-to-item hand-off.
package crawler

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob that influences a crawl run. All values
// originate from Viper so the crawler can be configured via files, env vars
// or CLI flags.
type Config struct {
	APIBase        string
	SiteBase       string
	CityName       string
	PerPage        int
	Proxy          string
	CitiesFile     string
	CategoriesFile string
	UserAgentsFile string
	ProxiesFile    string
	UserAgent      string
	Parallelism    int
	Delay          time.Duration
	RandomDelay    time.Duration
	RequestTimeout time.Duration
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		APIBase:        v.GetString("crawler.api_base"),
		SiteBase:       v.GetString("crawler.site_base"),
		CityName:       v.GetString("crawler.city"),
		PerPage:        v.GetInt("crawler.per_page"),
		Proxy:          v.GetString("crawler.proxy"),
		CitiesFile:     v.GetString("crawler.cities_file"),
		CategoriesFile: v.GetString("crawler.categories_file"),
		UserAgentsFile: v.GetString("crawler.user_agents_file"),
		ProxiesFile:    v.GetString("crawler.proxies_file"),
		UserAgent:      v.GetString("crawler.user_agent"),
		Parallelism:    v.GetInt("crawler.parallelism"),
		Delay:          v.GetDuration("crawler.delay"),
		RandomDelay:    v.GetDuration("crawler.random_delay"),
		RequestTimeout: v.GetDuration("crawler.request_timeout"),
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 40
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("crawler.api_base must be set")
	}
	if c.SiteBase == "" {
		return fmt.Errorf("crawler.site_base must be set")
	}
	if c.CategoriesFile == "" {
		return fmt.Errorf("crawler.categories_file must be set")
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("crawler.parallelism must be > 0")
	}
	if c.Delay < 0 {
		return fmt.Errorf("crawler.delay must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("crawler.request_timeout must be > 0")
	}
	return nil
}
