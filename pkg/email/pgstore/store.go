package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dmitrymomot/mailkit/pkg/email"
	"github.com/dmitrymomot/mailkit/pkg/pg"
)

// ErrQueueItemExists is returned when a queue item id is already taken.
var ErrQueueItemExists = errors.New("email.pgstore.queue_item_exists")

// DBTX is the subset of pgxpool.Pool, pgx.Conn and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists queue items and logs in PostgreSQL.
// Claims are leases kept in the claimed_until column.
type Store struct {
	db  DBTX
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source used for leases and default timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func New(db DBTX, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const insertQueueItem = `
INSERT INTO email_queue_items (
    id, to_email, to_name, from_email, from_name, subject, html, text, campaign,
    attachments, processed, processed_at, processing_date, queue_group_id, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

// CreateQueueItem inserts item, assigning ID and CreatedAt when unset.
func (s *Store) CreateQueueItem(ctx context.Context, item *email.QueueItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil queue item", email.ErrInvalidInput)
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now()
	}
	attachments := item.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	_, err := s.db.Exec(ctx, insertQueueItem,
		pgUUID(item.ID),
		item.To.Email, item.To.Name,
		item.From.Email, item.From.Name,
		item.Subject, item.HTML, item.Text, item.Campaign,
		attachments,
		item.Processed, item.ProcessedAt, item.ProcessingDate,
		item.QueueGroupID, item.CreatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", ErrQueueItemExists, item.ID)
	}
	if err != nil {
		return fmt.Errorf("pgstore: insert queue item: %w", err)
	}
	return nil
}

// MarkProcessed flags the item processed and clears its lease.
func (s *Store) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, `
UPDATE email_queue_items
   SET processed = TRUE, processed_at = $2, claimed_until = NULL
 WHERE id = $1`, pgUUID(id), at)
	if err != nil {
		return fmt.Errorf("pgstore: mark processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", email.ErrQueueItemNotFound, id)
	}
	return nil
}

const selectDue = `
SELECT id, to_email, to_name, from_email, from_name, subject, html, text, campaign,
       attachments, processed, processed_at, processing_date, queue_group_id, created_at
  FROM email_queue_items
 WHERE processed = FALSE
   AND (processing_date IS NULL OR processing_date <= $1)
   AND (claimed_until IS NULL OR claimed_until <= $1)
 ORDER BY created_at, id
 LIMIT NULLIF($2::int, 0)`

// ListDue returns pending, unleased items whose processing date has passed,
// oldest first. A limit of zero returns every due item.
func (s *Store) ListDue(ctx context.Context, now time.Time, limit int) ([]*email.QueueItem, error) {
	rows, err := s.db.Query(ctx, selectDue, now, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("pgstore: list due: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanQueueItem)
	if err != nil {
		return nil, fmt.Errorf("pgstore: list due: %w", err)
	}
	return items, nil
}

func scanQueueItem(row pgx.CollectableRow) (*email.QueueItem, error) {
	var (
		item email.QueueItem
		id   pgtype.UUID
	)
	err := row.Scan(
		&id,
		&item.To.Email, &item.To.Name,
		&item.From.Email, &item.From.Name,
		&item.Subject, &item.HTML, &item.Text, &item.Campaign,
		&item.Attachments,
		&item.Processed, &item.ProcessedAt, &item.ProcessingDate,
		&item.QueueGroupID, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.ID = uuid.UUID(id.Bytes)
	if len(item.Attachments) == 0 {
		item.Attachments = nil
	}
	return &item, nil
}

// Claim leases a pending item until now+ttl with a conditional update, so only
// one caller wins while the lease is live.
func (s *Store) Claim(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	now := s.now()
	tag, err := s.db.Exec(ctx, `
UPDATE email_queue_items
   SET claimed_until = $2
 WHERE id = $1
   AND processed = FALSE
   AND (claimed_until IS NULL OR claimed_until <= $3)`, pgUUID(id), now.Add(ttl), now)
	if pg.IsRetryable(err) {
		// a concurrent claim on the same row won
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pgstore: claim: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}

	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM email_queue_items WHERE id = $1)`, pgUUID(id),
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("pgstore: claim: %w", err)
	}
	if !exists {
		return false, fmt.Errorf("%w: %s", email.ErrQueueItemNotFound, id)
	}
	return false, nil
}

// Release drops the lease so the item can be picked up again.
func (s *Store) Release(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.Exec(ctx,
		`UPDATE email_queue_items SET claimed_until = NULL WHERE id = $1 AND processed = FALSE`, pgUUID(id),
	); err != nil {
		return fmt.Errorf("pgstore: release: %w", err)
	}
	return nil
}

const insertLog = `
INSERT INTO email_logs (
    id, type, action, message_id, campaign, from_addr, to_addr, subject,
    send_status, send_error, send_ts, ip, session_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// CreateLog appends a delivery log, assigning ID when unset.
func (s *Store) CreateLog(ctx context.Context, log *email.Log) error {
	if log == nil {
		return fmt.Errorf("%w: nil log", email.ErrInvalidInput)
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	_, err := s.db.Exec(ctx, insertLog,
		pgUUID(log.ID), log.Type, log.Action, log.MessageID, log.Campaign,
		log.From, log.To, log.Subject,
		string(log.SendStatus), log.SendError, log.SendTS, log.IP, log.SessionID,
	)
	if err != nil {
		return fmt.Errorf("pgstore: insert log: %w", err)
	}
	return nil
}

// QueueGroup returns every item of a queue group in creation order.
func (s *Store) QueueGroup(ctx context.Context, groupID string) ([]*email.QueueItem, error) {
	rows, err := s.db.Query(ctx, `
SELECT id, to_email, to_name, from_email, from_name, subject, html, text, campaign,
       attachments, processed, processed_at, processing_date, queue_group_id, created_at
  FROM email_queue_items
 WHERE queue_group_id = $1
 ORDER BY created_at, id`, groupID)
	if err != nil {
		return nil, fmt.Errorf("pgstore: queue group: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanQueueItem)
	if err != nil {
		return nil, fmt.Errorf("pgstore: queue group: %w", err)
	}
	return items, nil
}

// DeleteProcessedBefore removes processed items older than t and returns how many were removed.
func (s *Store) DeleteProcessedBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM email_queue_items WHERE processed = TRUE AND processed_at < $1`, t)
	if err != nil {
		return 0, fmt.Errorf("pgstore: delete processed: %w", err)
	}
	return tag.RowsAffected(), nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

var (
	_ email.QueueRepository = (*Store)(nil)
	_ email.DueLister       = (*Store)(nil)
	_ email.Claimer         = (*Store)(nil)
	_ email.LogRepository   = (*Store)(nil)
)
