package core

// Spreadsheets are held in memory while they are decoded and validated, so a
// burst of large uploads queues on the UploadLimiter instead of running side
// by side.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySubmissions is returned when no slot frees up within the wait time.
var ErrTooManySubmissions = errors.New("too many concurrent submissions, please try again later")

// Limiter defaults, used when the configured values are not positive.
const (
	DefaultMaxConcurrentSubmissions = 5
	DefaultMaxWaitTime              = 10 * time.Second
)

// UploadLimiter is a semaphore over submission processing.
type UploadLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu       sync.Mutex
	active   int
	idle     chan struct{} // closed when active drops to zero
	onChange func(active int)
}

// NewUploadLimiter allows at most maxConcurrent submissions at a time.
// onChange, if non-nil, is called with the new active count after every
// acquire and release.
func NewUploadLimiter(maxConcurrent int, maxWait time.Duration, onChange func(active int)) *UploadLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSubmissions
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &UploadLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		idle:      idle,
		onChange:  onChange,
	}
}

// Acquire waits for a slot. The caller must Release it when done.
func (l *UploadLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.semaphore <- struct{}{}:
		l.adjust(1)
		return nil
	case <-timer.C:
		return ErrTooManySubmissions
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (l *UploadLimiter) Release() {
	l.adjust(-1)
	<-l.semaphore
}

func (l *UploadLimiter) adjust(delta int) {
	l.mu.Lock()
	if l.active == 0 && delta > 0 {
		l.idle = make(chan struct{})
	}
	l.active += delta
	if l.active == 0 {
		close(l.idle)
	}
	active := l.active
	l.mu.Unlock()

	if l.onChange != nil {
		l.onChange(active)
	}
}

// ActiveCount returns the number of submissions holding a slot.
func (l *UploadLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// WaitForDrain blocks until no submission holds a slot or ctx ends.
func (l *UploadLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UploadLimiterStatus is a point-in-time view of the limiter.
type UploadLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"maxConcurrent"`
}

// Status reports current limiter usage for the health endpoint.
func (l *UploadLimiter) Status() UploadLimiterStatus {
	return UploadLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     cap(l.semaphore) - len(l.semaphore),
		MaxConcurrent: cap(l.semaphore),
	}
}
