package message

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"CommLink/tools/errs"
	"CommLink/tools/ids"
)

const collMessages = "messages"

// MongoStore persists messages and answers the history/receipt queries
// the realtime core refuses to own.
type MongoStore struct {
	coll *mongo.Collection
	now  func() int64 // millis; injectable for tests
}

func NewMongoStore(db *mongo.Database, nowMillis func() int64) *MongoStore {
	return &MongoStore{coll: db.Collection(collMessages), now: nowMillis}
}

// Insert assigns the durable identity (snowflake ID, create time,
// initial status) and stores the message.
func (s *MongoStore) Insert(ctx context.Context, m *Message) error {
	if m.SenderID == "" || m.ReceiverID == "" {
		return errs.ErrArgs.WrapMsg("sender/receiver required")
	}
	if m.Text == "" && m.Image == "" {
		return errs.ErrArgs.WrapMsg("empty message body")
	}
	m.ID = ids.GenerateString()
	m.CreateTime = s.now()
	m.Status = StatusSent
	if _, err := s.coll.InsertOne(ctx, m); err != nil {
		return errs.WrapMsg(err, "insert message", "id", m.ID)
	}
	return nil
}

// UpdateMessageStatus flips the stored status and returns the original
// sender (the read-receipt target). Implements chat.MessageStatusStore.
func (s *MongoStore) UpdateMessageStatus(ctx context.Context, messageID, status string) (string, error) {
	var doc Message
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": messageID},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.Before),
	).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return "", errs.ErrRecordNotFound.WrapMsg("message not found", "id", messageID)
	}
	if err != nil {
		return "", errs.WrapMsg(err, "update message status", "id", messageID)
	}
	return doc.SenderID, nil
}

// History returns the conversation between a and b, oldest first.
// This query is the only catch-up path for events the realtime side
// dropped while the receiver was offline.
func (s *MongoStore) History(ctx context.Context, a, b string, limit int64) ([]*Message, error) {
	if limit <= 0 {
		limit = 200
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": a, "receiver_id": b},
		bson.M{"sender_id": b, "receiver_id": a},
	}}
	opts := options.Find().SetSort(bson.M{"create_time": 1}).SetLimit(limit)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "find history", "a", a, "b", b)
	}
	defer func() { _ = cur.Close(ctx) }()

	var out []*Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.WrapMsg(err, "decode history")
	}
	return out, nil
}
