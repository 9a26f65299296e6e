// Package scheduler runs recurrence generation on demand: when a user's
// session starts and after a rule is created. It never polls.
package scheduler

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/hray3182/lifeledger/internal/models"
	"github.com/hray3182/lifeledger/internal/recurrence"
)

const defaultQueueSize = 64

type Runner interface {
	Run(ctx context.Context, userID int64, today time.Time) recurrence.Result
}

// ResultHandler receives the result of every queued run.
type ResultHandler func(recurrence.Result)

type Trigger struct {
	runner   Runner
	group    singleflight.Group
	notifyCh chan int64
	now      func() time.Time
	loc      *time.Location
	log      zerolog.Logger
	onResult ResultHandler
}

type Option func(*Trigger)

func WithClock(now func() time.Time) Option {
	return func(t *Trigger) { t.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(t *Trigger) { t.loc = loc }
}

func WithLogger(log zerolog.Logger) Option {
	return func(t *Trigger) { t.log = log }
}

func WithQueueSize(n int) Option {
	return func(t *Trigger) {
		if n > 0 {
			t.notifyCh = make(chan int64, n)
		}
	}
}

func WithResultHandler(h ResultHandler) Option {
	return func(t *Trigger) { t.onResult = h }
}

func New(runner Runner, opts ...Option) *Trigger {
	t := &Trigger{
		runner:   runner,
		notifyCh: make(chan int64, defaultQueueSize),
		now:      time.Now,
		loc:      time.Local,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Today is the current calendar day in the trigger's location.
func (t *Trigger) Today() time.Time {
	return models.Today(t.now(), t.loc)
}

// SessionStart runs generation for userID and returns its result. Callers
// that arrive while a run for the same user is in flight share that run.
func (t *Trigger) SessionStart(ctx context.Context, userID int64) recurrence.Result {
	v, _, shared := t.group.Do(strconv.FormatInt(userID, 10), func() (any, error) {
		return t.runner.Run(ctx, userID, t.Today()), nil
	})
	if shared {
		t.log.Debug().Int64("user_id", userID).Msg("joined in-flight recurrence run")
	}
	return v.(recurrence.Result)
}

// Notify queues a background run for userID. It never blocks; when the queue
// is full the request is dropped and the next session start catches up.
func (t *Trigger) Notify(userID int64) bool {
	select {
	case t.notifyCh <- userID:
		return true
	default:
		t.log.Warn().Int64("user_id", userID).Msg("recurrence queue full, dropping request")
		return false
	}
}

// Start drains queued runs until ctx is done.
func (t *Trigger) Start(ctx context.Context) {
	t.log.Info().Msg("recurrence trigger started")
	for {
		select {
		case <-ctx.Done():
			t.log.Info().Msg("recurrence trigger stopped")
			return
		case userID := <-t.notifyCh:
			res := t.SessionStart(ctx, userID)
			if t.onResult != nil {
				t.onResult(res)
			}
		}
	}
}
