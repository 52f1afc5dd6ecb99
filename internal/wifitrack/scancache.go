package wifitrack

import (
	"fmt"
	"sort"
	"sync"
)

// ScanObservation is one BSSID sighting with RSSI and capabilities.
// Identity is Bssid; the value is immutable after creation — callers
// receive copies, never a pointer into cache-owned storage.
type ScanObservation struct {
	Bssid           string
	Ssid            string
	SecurityCaps    SecurityFamily
	LevelDbm        int32
	FrequencyMhz    int32
	TimestampMS     int64
	RadioChainCount int32
}

// ScanCache is a deduplicated, age-bounded store of scan observations,
// keyed by bssid. It decouples "what the radio last reported" from "what
// entries currently exist," which is what lets the entry catalog absorb a
// single failed scan without flickering (see Tracker.OnScanResultsAvailable).
type ScanCache struct {
	mu       sync.RWMutex
	clock    Clock
	maxAgeMS int64
	entries  map[string]ScanObservation
}

// NewScanCache constructs an empty ScanCache with the given max age.
func NewScanCache(clock Clock, maxAgeMS int64) *ScanCache {
	return &ScanCache{
		clock:    clock,
		maxAgeMS: maxAgeMS,
		entries:  make(map[string]ScanObservation),
	}
}

// Update inserts each incoming observation if absent, or replaces the
// existing one iff the incoming timestamp is strictly greater. Never
// lowers a stored timestamp, and never removes an entry based on its
// absence from this batch — eviction happens only by age, in Get.
func (c *ScanCache) Update(observations []ScanObservation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, o := range observations {
		existing, ok := c.entries[o.Bssid]
		if !ok || o.TimestampMS > existing.TimestampMS {
			c.entries[o.Bssid] = o
		}
	}
}

// Get returns observations no older than the effective age window,
// sorted by bssid ascending; the order in which observations were
// inserted is not kept.
// ageWindowMS of zero uses the cache's configured max age. A non-zero
// window larger than the configured max age fails with
// ErrInvalidAgeWindow — the constructor-provided bound is a hard upper
// limit, not merely a default.
func (c *ScanCache) Get(nowMS int64, ageWindowMS int64) ([]ScanObservation, error) {
	if ageWindowMS > c.maxAgeMS {
		return nil, fmt.Errorf("window %dms exceeds max age %dms: %w", ageWindowMS, c.maxAgeMS, ErrInvalidAgeWindow)
	}

	effective := ageWindowMS
	if effective == 0 {
		effective = c.maxAgeMS
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ScanObservation, 0, len(c.entries))
	for _, o := range c.entries {
		if nowMS-o.TimestampMS <= effective {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bssid < out[j].Bssid })

	return out, nil
}

// GetWidened is Get with an effective window widened beyond the
// configured max age — the anti-flicker path used when a scan cycle
// fails (§4.F). It bypasses the InvalidAgeWindow guard because the
// caller, not a test, is deliberately asking for a wider-than-normal
// window.
func (c *ScanCache) GetWidened(nowMS int64, widenedMaxMS int64) []ScanObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]ScanObservation, 0, len(c.entries))
	for _, o := range c.entries {
		if nowMS-o.TimestampMS <= widenedMaxMS {
			out = append(out, o)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bssid < out[j].Bssid })

	return out
}

// Size returns the number of observations currently stored, regardless
// of age.
func (c *ScanCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Clear empties the cache. Reserved for engine-stop: the cache is never
// cleared mid-run, only drained by age.
func (c *ScanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ScanObservation)
}

// MaxAgeMS returns the cache's configured maximum age.
func (c *ScanCache) MaxAgeMS() int64 {
	return c.maxAgeMS
}
