package crm

import (
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker refuses a request because the
// CRM backend has been failing.
var ErrCircuitOpen = errors.New("crm circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

// Breaker is a failure-ratio circuit breaker guarding the CRM backend.
// After the cool-off period a single probe request is let through; its
// outcome decides whether the circuit closes again.
type Breaker struct {
	mu          sync.Mutex
	state       breakerState
	failures    int
	successes   int
	minRequests int
	ratio       float64
	openedAt    time.Time
	openFor     time.Duration
}

// NewBreaker constructs a breaker that opens once the failure ratio exceeds
// the threshold over at least minRequests observations.
func NewBreaker(minRequests int, ratio float64, openFor time.Duration) *Breaker {
	if minRequests <= 0 {
		minRequests = 5
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 0.5
	}
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	return &Breaker{minRequests: minRequests, ratio: ratio, openFor: openFor}
}

// Allow reports whether a request may proceed in the current state.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == stateOpen {
		if time.Since(b.openedAt) >= b.openFor {
			b.state = stateHalfOpen
			return true
		}
		return false
	}
	return true
}

// Report records a request outcome and advances the state machine.
func (b *Breaker) Report(ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case stateOpen:
		return
	case stateHalfOpen:
		if ok {
			b.reset(stateClosed)
		} else {
			b.reset(stateOpen)
		}
		return
	}
	if ok {
		b.successes++
	} else {
		b.failures++
	}
	total := b.failures + b.successes
	if total < b.minRequests {
		return
	}
	if float64(b.failures)/float64(total) >= b.ratio {
		b.reset(stateOpen)
	} else if total > b.minRequests*2 {
		b.failures /= 2
		b.successes /= 2
	}
}

func (b *Breaker) reset(next breakerState) {
	b.state = next
	b.failures = 0
	b.successes = 0
	if next == stateOpen {
		b.openedAt = time.Now()
	} else {
		b.openedAt = time.Time{}
	}
}

// retryBackoff returns the exponential delay before the given attempt, with
// up to 20% jitter so concurrent retries spread out.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt < 1 {
		attempt = 1
	}
	d := base * time.Duration(1<<uint(attempt-1))
	jitter := float64(d) * 0.2 * (rand.Float64()*2 - 1)
	return d + time.Duration(jitter)
}

// doIdempotent runs a bodyless request with retries and breaker accounting.
// Only transport failures and 5xx responses count against the breaker and
// trigger retries; rejections mean the backend is healthy.
func (c *Client) doIdempotent(req *http.Request, wantStatus int, out any) error {
	attempts := c.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.Breaker != nil && !c.Breaker.Allow() {
			return errors.Join(ErrUnavailable, ErrCircuitOpen)
		}
		err := c.do(req.Clone(req.Context()), wantStatus, out)
		if err == nil || !errors.Is(err, ErrUnavailable) {
			if c.Breaker != nil {
				c.Breaker.Report(true)
			}
			return err
		}
		if c.Breaker != nil {
			c.Breaker.Report(false)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(retryBackoff(c.RetryBase, attempt))
		select {
		case <-req.Context().Done():
			timer.Stop()
			return req.Context().Err()
		case <-timer.C:
		}
	}
	return lastErr
}
