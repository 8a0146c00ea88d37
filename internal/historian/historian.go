// internal/historian/historian.go
//
// The historian drains the session action feed queue from Redis and persists
// the rows to Postgres in batches. It also tracks per-session activity and
// marks sessions that have gone quiet as ended.
package historian

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/calebheinzman/tabletop-arcade/internal/cache"
	"github.com/calebheinzman/tabletop-arcade/internal/database"
)

// Config tunes the batching and inactivity behavior.
type Config struct {
	Queue      string
	BatchSize  int
	FlushDelay time.Duration
	Inactivity time.Duration
}

// Service encapsulates the queue reader, the write batch and the inactivity
// sweep. persistFn and abandonFn are swappable so tests can run without a
// live database.
type Service struct {
	rdb *redis.Client
	cfg Config
	log *logrus.Entry

	lastActivity sync.Map // map[uuid.UUID]time.Time per session

	batchMu sync.Mutex
	batch   []cache.ActionRecord

	persistFn func(ctx context.Context, records []cache.ActionRecord) error
	abandonFn func(ctx context.Context, sessionID uuid.UUID) error
}

// New builds a historian over an already-connected Redis client. Zero config
// fields fall back to defaults.
func New(rdb *redis.Client, cfg Config) *Service {
	if cfg.Queue == "" {
		cfg.Queue = cache.DefaultQueueName
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = 500 * time.Millisecond
	}
	if cfg.Inactivity <= 0 {
		cfg.Inactivity = 10 * time.Minute
	}
	return &Service{
		rdb:       rdb,
		cfg:       cfg,
		log:       logrus.WithField("component", "historian"),
		batch:     make([]cache.ActionRecord, 0, cfg.BatchSize),
		persistFn: persistBatch,
		abandonFn: database.MarkSessionEnded,
	}
}

// Run blocks until the context is canceled, reading the queue and sweeping
// for inactive sessions in the background. Pending rows are flushed on exit.
func (s *Service) Run(ctx context.Context) {
	go s.readQueueLoop(ctx)
	go s.inactivityLoop(ctx)

	s.log.Infof("historian started on queue %q", s.cfg.Queue)
	<-ctx.Done()
	s.flush(context.Background())
	s.log.Info("historian stopped")
}

// readQueueLoop pops action records with BLPop so cancellation is checked at
// least every few seconds, and flushes the batch on a timer as well as on
// size.
func (s *Service) readQueueLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.FlushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.flush(ctx)
		default:
			res, err := s.rdb.BLPop(ctx, 3*time.Second, s.cfg.Queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
					continue
				}
				s.log.Warnf("BLPop: %v", err)
				continue
			}
			if len(res) < 2 {
				continue
			}
			var rec cache.ActionRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				s.log.Warnf("invalid action record: %v", err)
				continue
			}
			s.Ingest(ctx, rec)
		}
	}
}

// Ingest tracks the session's activity and appends the record to the write
// batch, flushing when the batch is full.
func (s *Service) Ingest(ctx context.Context, rec cache.ActionRecord) {
	s.lastActivity.Store(rec.SessionID, time.Now())

	s.batchMu.Lock()
	s.batch = append(s.batch, rec)
	full := len(s.batch) >= s.cfg.BatchSize
	s.batchMu.Unlock()

	if full {
		s.flush(ctx)
	}
}

// flush persists and clears the current batch. A failed flush re-queues
// nothing: the action log tolerates loss, the session snapshot is the
// authoritative record.
func (s *Service) flush(ctx context.Context) {
	s.batchMu.Lock()
	if len(s.batch) == 0 {
		s.batchMu.Unlock()
		return
	}
	pending := make([]cache.ActionRecord, len(s.batch))
	copy(pending, s.batch)
	s.batch = s.batch[:0]
	s.batchMu.Unlock()

	if err := s.persistFn(ctx, pending); err != nil {
		s.log.Errorf("flush of %d action records failed: %v", len(pending), err)
		return
	}
	s.log.Debugf("flushed %d action records", len(pending))
}

// inactivityLoop marks sessions ended when no action has arrived within the
// configured window.
func (s *Service) inactivityLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepInactive(ctx, time.Now())
		}
	}
}

// sweepInactive is the body of one inactivity pass, split out for tests.
func (s *Service) sweepInactive(ctx context.Context, now time.Time) {
	s.lastActivity.Range(func(key, val interface{}) bool {
		sessionID, ok1 := key.(uuid.UUID)
		last, ok2 := val.(time.Time)
		if !ok1 || !ok2 || now.Sub(last) <= s.cfg.Inactivity {
			return true
		}
		if err := s.abandonFn(ctx, sessionID); err != nil {
			s.log.Warnf("failed to mark session %s ended: %v", sessionID, err)
			return true
		}
		s.lastActivity.Delete(sessionID)
		s.log.Infof("marked session %s ended after inactivity", sessionID)
		return true
	})
}

// persistBatch writes one batch in a single transaction. Duplicate
// (session, action) pairs are ignored so at-least-once queue delivery is
// safe.
func persistBatch(ctx context.Context, records []cache.ActionRecord) error {
	return pgx.BeginTxFunc(ctx, database.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		q := `
			INSERT INTO session_actions (session_id, action_id, player_id, description, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (session_id, action_id) DO NOTHING
		`
		for _, rec := range records {
			var playerID interface{}
			if rec.PlayerID != uuid.Nil {
				playerID = rec.PlayerID
			}
			createdAt := time.UnixMilli(rec.Timestamp)
			if _, err := tx.Exec(ctx, q, rec.SessionID, rec.ActionID, playerID, rec.Description, createdAt); err != nil {
				return err
			}
		}
		return nil
	})
}
