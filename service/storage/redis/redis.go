package redis

import (
	"context"
	"sync"

	redislib "github.com/redis/go-redis/v9"

	"CommLink/tools/errs"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

var (
	mu  sync.RWMutex
	rdb *redislib.Client
)

// Init connects the shared client and pings it once.
func Init(c Config) error {
	cli := redislib.NewClient(&redislib.Options{Addr: c.Addr, Password: c.Password, DB: c.DB})
	if err := cli.Ping(context.Background()).Err(); err != nil {
		return errs.WrapMsg(err, "redis ping", "addr", c.Addr)
	}
	mu.Lock()
	rdb = cli
	mu.Unlock()
	return nil
}

// Client returns the shared client, nil before Init.
func Client() *redislib.Client {
	mu.RLock()
	defer mu.RUnlock()
	return rdb
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if rdb != nil {
		_ = rdb.Close()
		rdb = nil
	}
}
