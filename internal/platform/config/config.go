package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config groups every deployment tunable so main stays lean. Values come from
// environment variables; defaults suit a single-kiosk development setup.
type Config struct {
	Addr     string
	Pipeline Pipeline
	Redis    Redis
	Postgres Postgres
	Kafka    Kafka
	Auth     Auth
}

// Pipeline holds the verification thresholds and windows. All of these are
// deployment-tunable on purpose: none of them may be hard-coded at call sites.
type Pipeline struct {
	// RecognitionThreshold is the minimum cosine similarity (0..1) for a match.
	// The boundary is inclusive: a score exactly at the threshold is accepted.
	RecognitionThreshold float64
	// TieEpsilon rejects ambiguous identity: when the two best candidates score
	// within this margin of each other the match is treated as no-match.
	TieEpsilon float64
	// EmbeddingDim is the expected embedding vector length.
	EmbeddingDim int
	// ModelVersion tags which embedding model enrollments were produced with.
	ModelVersion string
	// MinBlinks is how many blinks within LivenessWindow prove liveness.
	MinBlinks int
	// LivenessWindow bounds the liveness capture phase.
	LivenessWindow time.Duration
	// SessionTimeout bounds the whole attempt, not individual frames.
	SessionTimeout time.Duration
	// RetryLimit caps recognition attempts per session.
	RetryLimit int
	// SweepInterval is how often the background sweep expires stale sessions.
	SweepInterval time.Duration
	// Timezone decides the calendar-day boundary for attendance records:
	// the local deployment day, not UTC midnight.
	Timezone string
}

// Location resolves the configured timezone.
func (p Pipeline) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", p.Timezone, err)
	}
	return loc, nil
}

type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Postgres struct {
	URL string
}

type Kafka struct {
	Brokers string
	Topic   string
}

type Auth struct {
	JWTSigningKey string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr: envString("FACEGATE_ADDR", ":8080"),
		Pipeline: Pipeline{
			RecognitionThreshold: envFloat("FACEGATE_RECOGNITION_THRESHOLD", 0.7),
			TieEpsilon:           envFloat("FACEGATE_TIE_EPSILON", 0.02),
			EmbeddingDim:         envInt("FACEGATE_EMBEDDING_DIM", 128),
			ModelVersion:         envString("FACEGATE_MODEL_VERSION", "facenet-v1"),
			MinBlinks:            envInt("FACEGATE_MIN_BLINKS", 3),
			LivenessWindow:       envDuration("FACEGATE_LIVENESS_WINDOW", 5*time.Second),
			SessionTimeout:       envDuration("FACEGATE_SESSION_TIMEOUT", 60*time.Second),
			RetryLimit:           envInt("FACEGATE_RETRY_LIMIT", 3),
			SweepInterval:        envDuration("FACEGATE_SWEEP_INTERVAL", 10*time.Second),
			Timezone:             envString("FACEGATE_TIMEZONE", "Local"),
		},
		Redis: Redis{
			URL:          os.Getenv("FACEGATE_REDIS_URL"),
			PoolSize:     envInt("FACEGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("FACEGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("FACEGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("FACEGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("FACEGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("FACEGATE_POSTGRES_URL"),
		},
		Kafka: Kafka{
			Brokers: os.Getenv("FACEGATE_KAFKA_BROKERS"),
			Topic:   envString("FACEGATE_KAFKA_TOPIC", "facegate.audit"),
		},
		Auth: Auth{
			// Development default; override in production.
			JWTSigningKey: envString("FACEGATE_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		},
	}
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}
