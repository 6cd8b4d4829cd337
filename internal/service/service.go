// Package service implements the marketplace use cases on top of the
// store interfaces: accounts, listing search and administration,
// bookings with availability checks, and reviews with eligibility
// checks.  Each check-then-write sequence runs under a lock.Locker key so
// that two requests in one deployment cannot both pass the check.
package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/staybook/internal/events"
	"github.com/iliyamo/staybook/internal/lock"
	"github.com/iliyamo/staybook/internal/model"
	"github.com/iliyamo/staybook/internal/platform/metrics"
	"github.com/iliyamo/staybook/internal/store"
)

// Options configures New.  Only Stores is required.
type Options struct {
	Stores     store.Stores
	Locker     lock.Locker
	Events     events.Publisher
	Metrics    *metrics.Metrics
	Log        *zap.Logger
	BcryptCost int
	Now        func() time.Time
	// PublishTimeout bounds each event publish.  Defaults to 3s.
	PublishTimeout time.Duration
}

type Service struct {
	stores  store.Stores
	locker  lock.Locker
	events  events.Publisher
	metrics *metrics.Metrics
	log     *zap.Logger
	cost    int
	now     func() time.Time

	publishTimeout time.Duration
}

func New(o Options) *Service {
	s := &Service{
		stores:  o.Stores,
		locker:  o.Locker,
		events:  o.Events,
		metrics: o.Metrics,
		log:     o.Log,
		cost:    o.BcryptCost,
		now:     o.Now,

		publishTimeout: o.PublishTimeout,
	}
	if s.locker == nil {
		s.locker = lock.NewLocalLocker()
	}
	if s.events == nil {
		s.events = events.Noop{}
	}
	if s.metrics == nil {
		s.metrics = metrics.New("staybook")
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.cost == 0 {
		s.cost = bcrypt.DefaultCost
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = 3 * time.Second
	}
	return s
}

// Users exposes the user store for the session holder.
func (s *Service) Users() store.UserStore { return s.stores.Users }

func (s *Service) today() model.Date { return model.DateOf(s.now()) }

func (s *Service) stamp() string { return s.now().UTC().Format(time.RFC3339) }

// publish never fails the caller; the event is best effort.  It runs on a
// context detached from the request and bounded by publishTimeout, and
// must be called after any lock.Locker key has been released.
func (s *Service) publish(ctx context.Context, queue string, ev any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, queue, ev); err != nil {
		s.log.Warn("publish event failed", zap.String("queue", queue), zap.Error(err))
	}
}

// releaseOnce makes unlock safe to call early and again from a defer.
func releaseOnce(unlock func()) func() {
	var once sync.Once
	return func() { once.Do(unlock) }
}

func requireUser(u *model.User) error {
	if u == nil || u.ID == 0 {
		return ErrLoginRequired
	}
	return nil
}

func requireAdmin(u *model.User) error {
	if err := requireUser(u); err != nil {
		return err
	}
	if !u.IsAdmin {
		return ErrForbidden
	}
	return nil
}
