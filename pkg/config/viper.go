// Package config is responsible for initializing the application's
// configuration. It uses the Viper library to read settings from a config
// file and environment variables, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/alkoparse/alkoteka-crawler/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. Designed to be called once at startup.
func InitConfig() {
	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/alkoparse/")
	viper.AddConfigPath("$HOME/.alkoparse")

	// Crawl targets and session.
	viper.SetDefault("crawler.api_base", "https://alkoteka.com/web-api/v1")
	viper.SetDefault("crawler.site_base", "https://alkoteka.com")
	viper.SetDefault("crawler.city", "")
	viper.SetDefault("crawler.per_page", 40)
	viper.SetDefault("crawler.proxy", "")
	viper.SetDefault("crawler.cities_file", "cities.json")
	viper.SetDefault("crawler.categories_file", "categories.txt")
	viper.SetDefault("crawler.user_agents_file", "user_agents.txt")
	viper.SetDefault("crawler.proxies_file", "proxies.txt")
	viper.SetDefault("crawler.user_agent", "alkoparse/1.0 (+https://github.com/alkoparse/alkoteka-crawler)")

	// Politeness knobs of the fetch engine.
	viper.SetDefault("crawler.parallelism", 2)
	viper.SetDefault("crawler.delay", "500ms")
	viper.SetDefault("crawler.random_delay", "500ms")
	viper.SetDefault("crawler.request_timeout", "15s")

	// Item sinks.
	viper.SetDefault("sink.provider", "jsonl")
	viper.SetDefault("sink.jsonl.path", "data/items.jsonl")
	viper.SetDefault("sink.postgres.dsn", "")
	viper.SetDefault("sink.postgres.table", "items")
	viper.SetDefault("sink.pubsub.project", "")
	viper.SetDefault("sink.pubsub.topic", "alkoparse-items")

	// Ops surface.
	viper.SetDefault("ops.enabled", false)
	viper.SetDefault("ops.listen", ":9090")

	viper.SetDefault("logging.development", false)

	viper.SetEnvPrefix("ALKOPARSE") // e.g. ALKOPARSE_CRAWLER_CITY=Сочи
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
