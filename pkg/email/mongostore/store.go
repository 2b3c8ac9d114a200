package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/mailkit/pkg/email"
)

// DefaultCollection holds email logs unless another collection is passed to New.
const DefaultCollection = "email_logs"

// logDocument is the stored shape of email.Log.
type logDocument struct {
	ID         string    `bson:"_id"`
	Type       string    `bson:"type"`
	Action     string    `bson:"action"`
	MessageID  string    `bson:"message_id,omitempty"`
	Campaign   string    `bson:"campaign"`
	From       string    `bson:"from"`
	To         string    `bson:"to"`
	Subject    string    `bson:"subject"`
	SendStatus string    `bson:"send_status"`
	SendError  string    `bson:"send_error,omitempty"`
	SendTS     time.Time `bson:"send_ts"`
	IP         string    `bson:"ip,omitempty"`
	SessionID  string    `bson:"session_id,omitempty"`
}

func toDocument(l *email.Log) logDocument {
	return logDocument{
		ID:         l.ID.String(),
		Type:       l.Type,
		Action:     l.Action,
		MessageID:  l.MessageID,
		Campaign:   l.Campaign,
		From:       l.From,
		To:         l.To,
		Subject:    l.Subject,
		SendStatus: string(l.SendStatus),
		SendError:  l.SendError,
		SendTS:     l.SendTS,
		IP:         l.IP,
		SessionID:  l.SessionID,
	}
}

func (d logDocument) log() email.Log {
	id, _ := uuid.Parse(d.ID)
	return email.Log{
		ID:         id,
		Type:       d.Type,
		Action:     d.Action,
		MessageID:  d.MessageID,
		Campaign:   d.Campaign,
		From:       d.From,
		To:         d.To,
		Subject:    d.Subject,
		SendStatus: email.SendStatus(d.SendStatus),
		SendError:  d.SendError,
		SendTS:     d.SendTS,
		IP:         d.IP,
		SessionID:  d.SessionID,
	}
}

// LogStore writes email logs to a MongoDB collection.
type LogStore struct {
	coll *mongo.Collection
}

// New returns a store over coll. Use db.Collection(DefaultCollection) unless
// logs live elsewhere.
func New(coll *mongo.Collection) *LogStore {
	return &LogStore{coll: coll}
}

// NewFromDatabase returns a store over the default collection of db.
func NewFromDatabase(db *mongo.Database) *LogStore {
	return New(db.Collection(DefaultCollection))
}

// EnsureIndexes creates the campaign and recipient lookup indexes.
func (s *LogStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "campaign", Value: 1}, {Key: "send_ts", Value: 1}},
			Options: options.Index().SetName("campaign_send_ts"),
		},
		{
			Keys:    bson.D{{Key: "to", Value: 1}, {Key: "send_ts", Value: -1}},
			Options: options.Index().SetName("to_send_ts"),
		},
	})
	if err != nil {
		return fmt.Errorf("mongostore: create indexes: %w", err)
	}
	return nil
}

// CreateLog inserts log, assigning ID when unset.
func (s *LogStore) CreateLog(ctx context.Context, log *email.Log) error {
	if log == nil {
		return fmt.Errorf("%w: nil log", email.ErrInvalidInput)
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if _, err := s.coll.InsertOne(ctx, toDocument(log)); err != nil {
		return fmt.Errorf("mongostore: insert log: %w", err)
	}
	return nil
}

// ListByCampaign returns the logs of a campaign, oldest first. A limit of zero returns all.
func (s *LogStore) ListByCampaign(ctx context.Context, campaign string, limit int64) ([]email.Log, error) {
	opts := options.Find().SetSort(bson.D{{Key: "send_ts", Value: 1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, bson.M{"campaign": campaign}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongostore: find logs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []logDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongostore: decode logs: %w", err)
	}

	logs := make([]email.Log, 0, len(docs))
	for _, d := range docs {
		logs = append(logs, d.log())
	}
	return logs, nil
}

// CountFailures returns how many attempts of a campaign failed.
func (s *LogStore) CountFailures(ctx context.Context, campaign string) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{
		"campaign":    campaign,
		"send_status": string(email.SendStatusFailure),
	})
	if err != nil {
		return 0, fmt.Errorf("mongostore: count failures: %w", err)
	}
	return n, nil
}

var _ email.LogRepository = (*LogStore)(nil)
