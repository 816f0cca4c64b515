// Package schedule provides the auto-refresh timer used by the data
// controllers: a single repeating job that can be retargeted or torn
// down whenever the interval or enablement changes.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Refresher owns at most one repeating job. Set replaces the previous
// schedule; Stop tears everything down.
type Refresher struct {
	cron *cron.Cron

	mu     sync.Mutex
	entry  cron.EntryID
	active bool
}

// New creates a started Refresher with no job scheduled.
func New() *Refresher {
	c := cron.New()
	c.Start()
	return &Refresher{cron: c}
}

// Set schedules fn to run every interval, removing any previous job
// first. An interval <= 0 or nil fn just disables the schedule.
func (r *Refresher) Set(interval time.Duration, fn func()) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.cron.Remove(r.entry)
		r.active = false
	}
	if interval <= 0 || fn == nil {
		return nil
	}
	id, err := r.cron.AddFunc(fmt.Sprintf("@every %s", interval), fn)
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	r.entry = id
	r.active = true
	return nil
}

// Stop removes the job and halts the underlying scheduler. A running
// callback finishes; no new runs start.
func (r *Refresher) Stop() {
	r.mu.Lock()
	if r.active {
		r.cron.Remove(r.entry)
		r.active = false
	}
	r.mu.Unlock()
	r.cron.Stop()
}
