package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	usermodel "CommLink/module/user/model"
	jwtlib "CommLink/tools/security"
)

// LoginParams carries the inputs of a session issue.
type LoginParams struct {
	SessionID  string // snowflake; caller generates
	UserID     string // required
	DeviceType string // web/ios/android/pc...
	DeviceID   string
	Scopes     []string
	TTL        time.Duration // overrides opts.TTL when > 0
	Now        time.Time     // injectable clock; zero means time.Now()
}

// Login issues a JWT and builds the session record. No password check
// happens here: identity verification lives in the account service,
// this one only mints the realtime/messaging session.
func Login(opts jwtlib.Options, in LoginParams) (usermodel.UserSession, string, error) {
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	ttl := in.TTL
	if ttl <= 0 {
		ttl = opts.TTL
	}
	opts.TTL = ttl

	token, hash, exp, err := jwtlib.Generate(opts, in.UserID, in.Scopes)
	if err != nil {
		return usermodel.UserSession{}, "", err
	}

	rec := usermodel.UserSession{
		SessionID:       in.SessionID,
		UserID:          in.UserID,
		DeviceType:      in.DeviceType,
		DeviceID:        in.DeviceID,
		AccessTokenHash: hash,

		IsValid:    true,
		Status:     "online",
		LoginTime:  now,
		LastActive: now,
		ExpireAt:   exp,

		CreateTime: now,
		UpdateTime: now,
	}
	return rec, token, nil
}

func Verify(opts jwtlib.Options, token string, expectedHash string) (*jwtlib.JWTClaims, error) {
	return jwtlib.Verify(opts, token, expectedHash)
}

// SaveSession upserts the session record per (user, device).
func SaveSession(ctx context.Context, db *mongo.Database, rec usermodel.UserSession) error {
	if db == nil {
		return nil // session persistence is optional in single-node dev setups
	}
	coll := db.Collection("sessions")
	rec.UpdateTime = time.Now()
	_, err := coll.ReplaceOne(ctx,
		bson.M{"user_id": rec.UserID, "device_type": rec.DeviceType, "device_id": rec.DeviceID},
		rec,
		options.Replace().SetUpsert(true),
	)
	return err
}
