package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/livescore.db"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Public broadcasts are debounced per match; websocket clients are
	// pinged at this interval and dropped when unresponsive.
	BroadcastDebounce time.Duration `env:"BROADCAST_DEBOUNCE" envDefault:"250ms"`
	WSPingInterval    time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`

	// Sport thresholds. Defaults match standard competition rules.
	TennisGamesPerSet    int `env:"TENNIS_GAMES_PER_SET" envDefault:"6"`
	TennisTiebreakAt     int `env:"TENNIS_TIEBREAK_AT" envDefault:"6"`
	TennisTiebreakPoints int `env:"TENNIS_TIEBREAK_POINTS" envDefault:"7"`
	TennisSetsToWin      int `env:"TENNIS_SETS_TO_WIN" envDefault:"2"`
	RallyTargetPoints    int `env:"RALLY_TARGET_POINTS" envDefault:"11"`
	RallyWinBy           int `env:"RALLY_WIN_BY" envDefault:"2"`
	RallySetsToWin       int `env:"RALLY_SETS_TO_WIN" envDefault:"2"`
	TechnicalLimit       int `env:"TECHNICAL_LIMIT" envDefault:"3"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
