package sessions

import (
	"context"
	"sync"
	"time"

	"github.com/mmdatafocus/retail_ledger/invoicing"
	"github.com/sirupsen/logrus"
)

// Registry holds the open invoice sessions of this process, one per till.
type Registry struct {
	store  invoicing.Store
	logger *logrus.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *invoicing.Session
	lastUsed time.Time
}

func NewRegistry(store invoicing.Store, logger *logrus.Logger) *Registry {
	return &Registry{
		store:    store,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
}

func (r *Registry) Create(ctx context.Context) (*invoicing.Session, error) {
	s, err := invoicing.NewSession(ctx, "", r.store, r.logger)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.sessions[s.ID()] = &entry{session: s, lastUsed: r.now()}
	r.mu.Unlock()
	return s, nil
}

// Get returns the session and marks it used.
func (r *Registry) Get(id string) (*invoicing.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastUsed = r.now()
	return e.session, true
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, e := range r.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(maxIdle); n > 0 {
				r.logger.WithField("removed", n).Info("idle invoice sessions dropped")
			}
		}
	}
}
