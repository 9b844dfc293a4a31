package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/addisride/addisride-backend/internal/services"
	"github.com/addisride/addisride-backend/internal/storage"
	"github.com/addisride/addisride-backend/internal/ttlstore"
)

const (
	// checkInterval is how often the reminder loop wakes up.
	checkInterval = 6 * time.Hour
	// expiryHorizon is how far ahead the insurance check looks.
	expiryHorizon = 14 * 24 * time.Hour
	// reminderDedupTTL suppresses repeat reminders to the same driver.
	reminderDedupTTL = 7 * 24 * time.Hour
)

// ReminderJob periodically notifies drivers whose insurance is about to
// expire and sweeps the TTL store. One reminder per driver per week; the
// dedup guard lives in the TTL store so a restart at most repeats it once.
type ReminderJob struct {
	store    storage.Store
	notifier services.Notifier
	dedup    ttlstore.Store
	stop     chan struct{}
	done     chan struct{}
}

// NewReminderJob creates the job. Call Start to begin the loop.
func NewReminderJob(store storage.Store, notifier services.Notifier, dedup ttlstore.Store) *ReminderJob {
	return &ReminderJob{
		store:    store,
		notifier: notifier,
		dedup:    dedup,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. The first pass runs immediately.
func (j *ReminderJob) Start() {
	go func() {
		defer close(j.done)
		log.Printf("[REMINDERS] started, interval=%s", checkInterval)
		j.runOnce()
		ticker := time.NewTicker(checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				j.runOnce()
			case <-j.stop:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for the current pass to finish.
func (j *ReminderJob) Stop() {
	close(j.stop)
	<-j.done
	log.Printf("[REMINDERS] stopped")
}

func (j *ReminderJob) runOnce() {
	if removed := j.dedup.Sweep(); removed > 0 {
		log.Printf("[REMINDERS] swept %d expired cache entries", removed)
	}

	horizon := time.Now().Add(expiryHorizon)
	drivers, err := j.store.GetDriversWithInsuranceExpiring(horizon)
	if err != nil {
		log.Printf("[REMINDERS] driver query failed: %v", err)
		return
	}

	for _, d := range drivers {
		if d.InsuranceExpiry == nil || d.Phone == "" {
			continue
		}
		key := fmt.Sprintf("reminder:insurance:%d", d.ID)
		if !j.dedup.SetIfAbsent(key, true, reminderDedupTTL) {
			continue
		}

		days := int(time.Until(*d.InsuranceExpiry).Hours() / 24)
		msg := fmt.Sprintf("AddisRide: Hi %s, your vehicle insurance expires in %d days (%s). Please renew to keep accepting bookings.",
			d.Name, days, d.InsuranceExpiry.Format("2006-01-02"))

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := j.notifier.Send(ctx, d.Phone, msg); err != nil {
			log.Printf("[REMINDERS] send to driver %d failed: %v", d.ID, err)
			// Allow a retry on the next pass.
			j.dedup.Delete(key)
		}
		cancel()
	}
}
