package crawler

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/config"
)

// Rotation holds the optional user-agent and proxy pools. Both are chosen
// once per run: the whole crawl shares one sticky session identity.
type Rotation struct {
	userAgents []string
	proxies    []string
}

// LoadRotation reads the optional rotation files. Missing files are fine;
// the crawl falls back to the configured defaults.
func LoadRotation(userAgentsFile, proxiesFile string, logger *zap.Logger) Rotation {
	var r Rotation
	if userAgentsFile != "" {
		uas, err := config.LoadLines(userAgentsFile)
		if err != nil {
			logger.Debug("No user agent list", zap.String("path", userAgentsFile), zap.Error(err))
		} else {
			r.userAgents = uas
		}
	}
	if proxiesFile != "" {
		proxies, err := config.LoadLines(proxiesFile)
		if err != nil {
			logger.Debug("No proxy list", zap.String("path", proxiesFile), zap.Error(err))
		} else {
			r.proxies = proxies
		}
	}
	return r
}

// UserAgent picks a random pool entry, or the fallback when the pool is empty.
func (r Rotation) UserAgent(fallback string) string {
	if len(r.userAgents) == 0 {
		return fallback
	}
	return r.userAgents[rand.Intn(len(r.userAgents))]
}

// Proxy returns the sticky proxy for the run. An explicit override wins;
// otherwise a random pool entry is used, or "" when neither is set.
func (r Rotation) Proxy(override string) string {
	if override != "" {
		return override
	}
	if len(r.proxies) == 0 {
		return ""
	}
	return r.proxies[rand.Intn(len(r.proxies))]
}
