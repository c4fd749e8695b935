// Package gochanconfig holds the plain struct-with-defaults
// configuration for this module's surrounding stack (the async pool
// and the select blocking-wait timeout). channel and selectx take no
// configuration beyond a channel's capacity: neither consults an
// environment variable or config file.
package gochanconfig

import (
	"runtime"
	"time"
)

// PoolConfig configures an asyncpool.Pool.
type PoolConfig struct {
	// Workers is the number of goroutines in the pool. <= 0 defaults
	// to runtime.NumCPU().
	Workers int
	// QueueSize is the number of pending tasks the pool buffers
	// before Submit falls back to an unbounded background send. <= 0
	// defaults to Workers * 8.
	QueueSize int
}

// NewDefaultPoolConfig sizes workers off the host's CPU count.
func NewDefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:   runtime.NumCPU(),
		QueueSize: runtime.NumCPU() * 8,
	}
}

// SelectConfig configures a default RunBlocking timeout for callers
// that want one without threading a time.Duration through every call
// site.
type SelectConfig struct {
	// DefaultTimeout is used by callers that want a default blocking
	// wait bound. Zero means "wait indefinitely", matching
	// selectx.Select.RunBlocking's own zero-timeout semantics.
	DefaultTimeout time.Duration
}

// NewDefaultSelectConfig returns a SelectConfig with no timeout.
func NewDefaultSelectConfig() *SelectConfig {
	return &SelectConfig{DefaultTimeout: 0}
}
