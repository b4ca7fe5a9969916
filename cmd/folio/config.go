package main

import (
	"errors"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/folio-cms/folio"
)

// loadConfig reads folio.yaml (or the file named by --config) and FOLIO_*
// environment variables, after loading .env when present. Environment wins
// over the file.
func loadConfig(cfgFile string) (folio.SiteConfig, error) {
	_ = godotenv.Load() // .env is optional

	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("folio")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("FOLIO")
	v.AutomaticEnv()
	// The Cloudinary SDK convention is an unprefixed CLOUDINARY_URL.
	if err := v.BindEnv("cloudinary_url", "FOLIO_CLOUDINARY_URL", "CLOUDINARY_URL"); err != nil {
		return folio.SiteConfig{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return folio.SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	return folio.SiteConfig{
		Name:          v.GetString("site_name"),
		URL:           v.GetString("site_url"),
		Description:   v.GetString("site_description"),
		Addr:          v.GetString("addr"),
		Env:           v.GetString("env"),
		DatabaseURL:   v.GetString("database_url"),
		SessionSecret: v.GetString("session_secret"),
		CookieSecure:  v.GetBool("cookie_secure"),
		CDNCloud:      v.GetString("cdn_cloud"),
		CDNFolder:     v.GetString("cdn_folder"),
		CloudinaryURL: v.GetString("cloudinary_url"),
		RedisURL:      v.GetString("redis_url"),
		CacheTTL:      v.GetDuration("cache_ttl"),
		LoginDelay:    v.GetDuration("login_delay"),
	}, nil
}
