package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/table-order/repository"
	"github.com/yeremiapane/table-order/utils"
)

// SessionSweeper periodically closes guest sessions whose refresh credential
// expired, so their tables become Available again, and purges expired staff
// refresh tokens.
type SessionSweeper struct {
	Sessions *SessionService
	Store    *repository.Store
	Interval time.Duration
	StopChan chan struct{}

	stopOnce sync.Once
}

func NewSessionSweeper(sessions *SessionService, store *repository.Store, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{
		Sessions: sessions,
		Store:    store,
		Interval: interval,
		StopChan: make(chan struct{}),
	}
}

func (sw *SessionSweeper) Start() {
	go func() {
		ticker := time.NewTicker(sw.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				sw.Sweep(context.Background())
			case <-sw.StopChan:
				return
			}
		}
	}()
}

func (sw *SessionSweeper) Stop() {
	sw.stopOnce.Do(func() {
		close(sw.StopChan)
	})
}

// Sweep runs one pass and returns the number of guest sessions closed.
func (sw *SessionSweeper) Sweep(ctx context.Context) int {
	closed, err := sw.Sessions.CloseExpired(ctx)
	if err != nil {
		utils.ErrorLogger.Errorf("Error sweeping expired guest sessions: %v", err)
	}
	if closed > 0 {
		utils.InfoLogger.Printf("Closed %d expired guest sessions", closed)
	}

	purged, err := sw.Store.RefreshTokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		utils.ErrorLogger.Errorf("Error purging expired refresh tokens: %v", err)
	} else if purged > 0 {
		utils.InfoLogger.Printf("Purged %d expired refresh tokens", purged)
	}
	return closed
}
