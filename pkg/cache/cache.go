// Package cache provides the byte-level cache used to reuse simulated
// baselines across analyses.
//
// A Monte Carlo baseline is expensive (sim_run_num full layouts) and, for a
// fixed seed, a pure function of the input cells and the analysis options.
// The pipeline stores it under a key derived from both so a repeated run over
// the same file skips the simulation entirely.
//
// Backends:
//   - [FileCache]: one JSON file per entry under the user cache directory
//   - [RedisCache]: a shared Redis instance
//   - [NullCache]: caching disabled
package cache

import (
	"context"
	"time"
)

// Default time-to-live values for cached entries.
const (
	// TTLBaseline is how long a simulated baseline stays valid. Baselines are
	// deterministic for a fixed seed, so the TTL only bounds disk usage.
	TTLBaseline = 30 * 24 * time.Hour
)

// Cache is a key/value store for serialized pipeline outputs.
type Cache interface {
	// Get returns the data for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// BaselineKeyOpts holds every option that changes a simulated baseline.
type BaselineKeyOpts struct {
	TypeA        int     `json:"a"`
	TypeB        int     `json:"b"`
	LayerNum     int     `json:"layers"`
	Stratified   bool    `json:"stratified"`
	ExcludeDist  float64 `json:"exclude"`
	AnalysisDist int     `json:"distance"`
	IntervalNum  int     `json:"intervals"`
	Runs         int     `json:"runs"`
	Seed         uint64  `json:"seed"`
}

// Keyer derives cache keys.
type Keyer interface {
	// BaselineKey returns the key for the baseline of a cell set, identified
	// by the hash of its canonical encoding.
	BaselineKey(cellsHash string, opts BaselineKeyOpts) string
}

// DefaultKeyer hashes key components into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// BaselineKey implements Keyer.
func (DefaultKeyer) BaselineKey(cellsHash string, opts BaselineKeyOpts) string {
	return hashKey("baseline", cellsHash, opts)
}
