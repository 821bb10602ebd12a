package global

import (
	"os"
	"strconv"
	"strings"
	"time"

	"CommLink/tools/ids"
	"CommLink/tools/security"
)

// AppConfig is the process configuration, env-driven with dev defaults.
type AppConfig struct {
	HTTPAddr string
	NodeID   string

	JWTSecret []byte

	RedisAddr     string // empty disables the presence mirror
	RedisPassword string
	RedisDB       int
	PresenceTTL   time.Duration

	MongoURI      string // empty disables persistence
	MongoDatabase string

	NatsServers []string // empty means direct in-process dispatch
}

func Load() *AppConfig {
	cfg := &AppConfig{
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		NodeID:        envOr("NODE_ID", "comm_gw-1"),
		JWTSecret:     []byte(envOr("JWT_SECRET", "mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o=")),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		PresenceTTL:   10 * time.Minute,
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDatabase: envOr("MONGO_DATABASE", "commlink"),
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			cfg.RedisDB = n
		}
	}
	if ttl := os.Getenv("PRESENCE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.PresenceTTL = d
		}
	}
	if servers := os.Getenv("NATS_SERVERS"); servers != "" {
		cfg.NatsServers = strings.Split(servers, ",")
	}
	return cfg
}

func (c *AppConfig) JWT() security.Options {
	return security.DefaultOptions(c.JWTSecret)
}

// ConfigIds seeds the snowflake node from NODE_NUM (default 1).
func ConfigIds() {
	node := int64(1)
	if v := os.Getenv("NODE_NUM"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			node = n
		}
	}
	ids.SetNodeID(node)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
