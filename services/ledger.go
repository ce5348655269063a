package services

import (
	"context"
	"log"
	"sync"

	"parel-engagement-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LedgerDispatcher writes ActionLog and Notification rows off the critical
// path. Reward transactions enqueue after their commit; a worker goroutine
// drains the queue. A failed write lands in the dead-letter log line and is
// dropped — it never surfaces to the caller.
type LedgerDispatcher struct {
	db      *gorm.DB
	queue   chan ledgerEntry
	dropped int64
	mu      sync.Mutex
	wg      sync.WaitGroup
}

type ledgerEntry struct {
	action       *models.ActionLog
	notification *models.Notification
}

func NewLedgerDispatcher(db *gorm.DB) *LedgerDispatcher {
	return &LedgerDispatcher{
		db:    db,
		queue: make(chan ledgerEntry, 256),
	}
}

// Start drains the queue until ctx is cancelled, then flushes what is left.
func (d *LedgerDispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case entry := <-d.queue:
				d.write(entry)
			case <-ctx.Done():
				for {
					select {
					case entry := <-d.queue:
						d.write(entry)
					default:
						log.Println("⏹️ Ledger dispatcher stopped")
						return
					}
				}
			}
		}
	}()
}

// Wait blocks until the worker has exited (after ctx cancellation).
func (d *LedgerDispatcher) Wait() {
	d.wg.Wait()
}

// LogAction enqueues an audit row. Never blocks: if the queue is full the
// entry is counted and dropped.
func (d *LedgerDispatcher) LogAction(entry models.ActionLog) {
	d.enqueue(ledgerEntry{action: &entry})
}

// Notify enqueues a feed notification. Same non-blocking contract.
func (d *LedgerDispatcher) Notify(userID, notifType, title, body string) {
	d.enqueue(ledgerEntry{notification: &models.Notification{
		UserID: userID,
		Type:   notifType,
		Title:  title,
		Body:   body,
	}})
}

func (d *LedgerDispatcher) enqueue(entry ledgerEntry) {
	select {
	case d.queue <- entry:
	default:
		d.mu.Lock()
		d.dropped++
		n := d.dropped
		d.mu.Unlock()
		log.Printf("⚠️ [LEDGER] queue full, entry dropped (total dropped: %d)", n)
	}
}

// Dropped reports how many entries were discarded because the queue was full.
func (d *LedgerDispatcher) Dropped() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

func (d *LedgerDispatcher) write(entry ledgerEntry) {
	if entry.action != nil {
		if entry.action.ID == "" {
			entry.action.ID = uuid.NewString()
		}
		if err := d.db.Create(entry.action).Error; err != nil {
			log.Printf("☠️ [LEDGER:DEAD] action_log user=%s action=%s: %v",
				entry.action.UserID, entry.action.Action, err)
		}
	}
	if entry.notification != nil {
		if entry.notification.ID == "" {
			entry.notification.ID = uuid.NewString()
		}
		if err := d.db.Create(entry.notification).Error; err != nil {
			log.Printf("☠️ [LEDGER:DEAD] notification user=%s type=%s: %v",
				entry.notification.UserID, entry.notification.Type, err)
		}
	}
}
