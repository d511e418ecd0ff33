// Package internal holds process-level configuration and the debug
// inspector. Nothing here belongs to the delivery core.
package internal

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Host           string `env:"HOST,required=true"`
	Port           int    `env:"PORT,required=true"`
	DebugPort      int    `env:"DEBUG_PORT,required=true"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS,required=true"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	BufferSize       int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout      time.Duration `env:"SINK_TIMEOUT,required=true"`
	MetricInterval   time.Duration `env:"METRIC_INTERVAL,required=true"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,required=true"`
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT,required=true"`

	CharReplacement  string `env:"CHARACTER_REPLACEMENT,required=true"`
	MaxContentLength int    `env:"MAX_CONTENT_LENGTH,required=true"`
	SearchLimit      int    `env:"SEARCH_LIMIT,required=true"`
	LimitMessages    *int   `env:"LIMIT_MESSAGES"`
}

// Origins splits the comma-separated allowed origins list.
func (c Config) Origins() []string {
	parts := strings.Split(c.AllowedOrigins, ",")
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			res = append(res, trimmed)
		}
	}
	return res
}

// CharacterRune validates that the replacement setting is exactly one
// character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
