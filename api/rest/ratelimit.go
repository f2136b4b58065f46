package rest

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"
)

const (
	authRequestsPerSecond = 1
	authBurstLimit        = 5

	// Limiters are keyed by client address; reset the map past this size
	// rather than tracking idle entries.
	maxTrackedClients = 10000
)

// clientLimiter throttles credential endpoints per client address.
type clientLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newClientLimiter() *clientLimiter {
	return &clientLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (cl *clientLimiter) allow(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if len(cl.limiters) > maxTrackedClients {
		cl.limiters = make(map[string]*rate.Limiter)
	}

	limiter, ok := cl.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(authRequestsPerSecond), authBurstLimit)
		cl.limiters[host] = limiter
	}
	return limiter.Allow()
}
