package internal

import (
	"time"
)

type Config struct {
	HTTPPort  int `env:"HTTP_PORT,required=true"`
	DebugPort int `env:"DEBUG_PORT"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	BufferSize        int           `env:"BUFFER_SIZE,required=true"`
	SinkTimeout       time.Duration `env:"SINK_TIMEOUT,required=true"`
	SpecialistTimeout time.Duration `env:"SPECIALIST_TIMEOUT,required=true"`
	MetricInterval    time.Duration `env:"METRIC_INTERVAL,required=true"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL,required=true"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,required=true"`

	LatencyThreshold     time.Duration `env:"LATENCY_THRESHOLD,required=true"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,required=true"`

	AuthTokenSecret   string        `env:"AUTH_TOKEN_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`

	// LimitMessages caps a history page when the client sends no limit.
	LimitMessages *int `env:"LIMIT_MESSAGES"`

	// Anthropic-backed specialists are enabled when an API key is set;
	// without one the deterministic builtin handlers answer.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	Model           string `env:"MODEL"`
}
