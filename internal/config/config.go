package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "GG_"

type (
	Config struct {
		TelegramAPIToken string `env:"TOKEN,required"`
		DefaultLanguage  string `env:"LANG,default=en"`
		LogLevel         int    `env:"LOG_LEVEL,default=4"`
		DotPath          string `env:"DOT_PATH,default=~/.groupguard"`
		Moderation       Moderation
		Journal          Journal
		Metrics          Metrics
		Translate        Translate
	}

	Moderation struct {
		AdminCacheSize     int           `env:"ADMIN_CACHE_SIZE,default=10000"`
		PurgeCleanupDelay  time.Duration `env:"PURGE_CLEANUP_DELAY,default=5s"`
		PurgeBatchSize     int           `env:"PURGE_BATCH_SIZE,default=100"`
		WarnLimit          int           `env:"WARN_LIMIT,default=3"`
		WarnMuteDuration   time.Duration `env:"WARN_MUTE_DURATION,default=24h"`
		MuteDefaultMinutes int           `env:"MUTE_DEFAULT_MINUTES,default=60"`
		KickBanDuration    time.Duration `env:"KICK_BAN_DURATION,default=30s"`
	}

	Journal struct {
		Enabled       bool          `env:"JOURNAL_ENABLED,default=true"`
		File          string        `env:"JOURNAL_FILE,default=journal.db"`
		Retention     time.Duration `env:"JOURNAL_RETENTION,default=720h"`
		PruneSchedule string        `env:"JOURNAL_PRUNE_SCHEDULE,default=@daily"`
	}

	Metrics struct {
		Addr string `env:"METRICS_ADDR,default=:2112"`
	}

	// Translate configures the /translate command. An empty APIKey disables it.
	Translate struct {
		APIKey  string `env:"TRANSLATE_API_KEY"`
		Model   string `env:"TRANSLATE_API_MODEL,default=gpt-4o-mini"`
		BaseURL string `env:"TRANSLATE_API_URL,default=https://api.openai.com/v1"`
		Type    string `env:"TRANSLATE_API_TYPE,default=openai"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

// Load reads an optional .env file, then the GG_ prefixed environment. It runs once per process.
func Load() (Config, error) {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.WithField("error", err.Error()).Warn("cant read .env file")
		}
		cfg, err := Parse(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

// Parse builds a Config from lookuper, applying the GG_ prefix.
func Parse(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	return cfg, nil
}

func Get() Config {
	cfg, err := Load()
	if err != nil {
		log.WithField("error", err.Error()).Error("cant load config")
	}
	return cfg
}

// Level is the logrus level for LogLevel, clamped so fatal errors are always printed.
func (c Config) Level() log.Level {
	level := log.Level(c.LogLevel)
	switch {
	case c.LogLevel < int(log.FatalLevel):
		return log.FatalLevel
	case level > log.TraceLevel:
		return log.TraceLevel
	}
	return level
}
