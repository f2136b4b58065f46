package worker

import (
	"context"
	"log"
	"time"

	"github.com/zlnvch/homegate/service"
)

// Sweeper periodically deletes expired sessions, app sessions, and
// handshakes. It is an optimization pass only; the lazy expiry checks on
// the read paths hold regardless of sweep timing.
type Sweeper struct {
	svc      *service.Service
	interval time.Duration
}

func NewSweeper(svc *service.Service, interval time.Duration) *Sweeper {
	return &Sweeper{svc: svc, interval: interval}
}

func (s *Sweeper) Run(shutdownCtx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdownCtx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if err := s.svc.SweepExpired(ctx); err != nil {
				log.Printf("Sweep failed: %v", err)
			}
			cancel()
		}
	}
}
