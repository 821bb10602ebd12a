package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	redislib "github.com/redis/go-redis/v9"

	"CommLink/logger"
	redisc "CommLink/service/storage/redis"
)

// presence key: im:presence:<user>
// value: node id; TTL bounds how long a crashed node's entries linger
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline marks the user online on nodeID and renews the TTL.
func PresenceOnline(ctx context.Context, user, nodeID string, ttl time.Duration) error {
	rdb := redisc.Client()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Set(ctx, presenceKey(user), nodeID, ttl).Err()
}

// PresenceOffline deletes the user's presence key.
func PresenceOffline(ctx context.Context, user string) error {
	rdb := redisc.Client()
	if rdb == nil {
		return errors.New("redis not initialized")
	}
	return rdb.Del(ctx, presenceKey(user)).Err()
}

// PresenceLookup reports which node, if any, the user is connected to.
func PresenceLookup(ctx context.Context, user string) (nodeID string, online bool, err error) {
	rdb := redisc.Client()
	if rdb == nil {
		return "", false, errors.New("redis not initialized")
	}
	val, err := rdb.Get(ctx, presenceKey(user)).Result()
	if errors.Is(err, redislib.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Mirror adapts the presence keys to the registry's PresenceMirror
// hook. Mirror writes are best effort: a Redis hiccup must never stall
// a connect or disconnect.
type Mirror struct {
	NodeID string
	TTL    time.Duration
}

func NewMirror(nodeID string, ttl time.Duration) *Mirror {
	return &Mirror{NodeID: nodeID, TTL: ttl}
}

func (m *Mirror) Online(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := PresenceOnline(ctx, userID, m.NodeID, m.TTL); err != nil {
		logger.Warnf("[presence] mirror online failed user=%s err=%v", userID, err)
	}
}

func (m *Mirror) Offline(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := PresenceOffline(ctx, userID); err != nil {
		logger.Warnf("[presence] mirror offline failed user=%s err=%v", userID, err)
	}
}
