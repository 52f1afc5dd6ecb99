package wifitrack

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// EntryCache holds three per-kind maps keyed by entry key and
// reconciles scans, saved configurations, and connection state into
// them. Touched only from the Tracker's worker goroutine — the RWMutex
// exists purely to let Views read a consistent snapshot from arbitrary
// consumer threads, not to allow concurrent writers (invariant 3 of
// §5: all worker-side mutation is single-threaded).
type EntryCache struct {
	mu sync.RWMutex

	standard  map[string]*Entry
	passpoint map[string]*Entry
	osu       map[string]*Entry

	// savedConfigSnapshot mirrors the platform's configured-networks
	// list, keyed by the Standard entry key it would produce.
	savedConfigSnapshot map[string]Configuration

	connInfo ConnectionInfo
	netInfo  NetworkInfo

	platform Platform
	logger   *slog.Logger
}

// NewEntryCache constructs an empty EntryCache.
func NewEntryCache(platform Platform, logger *slog.Logger) *EntryCache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &EntryCache{
		standard:            make(map[string]*Entry),
		passpoint:           make(map[string]*Entry),
		osu:                 make(map[string]*Entry),
		savedConfigSnapshot: make(map[string]Configuration),
		platform:            platform,
		logger:              logger.With(slog.String("component", "entrycache")),
	}
}

// isActiveConnectionEntry reports whether key identifies the entry the
// cache currently believes is the active connection, used by every
// eviction rule in this file (lifecycle rule: "not the currently
// connected/connecting entry").
func (ec *EntryCache) isActiveConnectionEntry(key string) bool {
	if e, ok := ec.standard[key]; ok {
		return e.ConnectionInfoMatches(ec.connInfo)
	}
	if e, ok := ec.passpoint[key]; ok {
		return e.ConnectionInfoMatches(ec.connInfo)
	}
	return false
}

// partitionByStandardKey groups scans by (ssid, security), dropping
// empty SSIDs (step 1 of update_standard_from_scans).
func partitionByStandardKey(scans []ScanObservation) map[string][]ScanObservation {
	groups := make(map[string][]ScanObservation)
	for _, o := range scans {
		if o.Ssid == "" {
			continue
		}
		key := StandardEntryKey(o.Ssid, o.SecurityCaps)
		groups[key] = append(groups[key], o)
	}
	return groups
}

// UpdateStandardFromScans is the update_standard_from_scans
// reconciliation pass (§4.E).
func (ec *EntryCache) UpdateStandardFromScans(scans []ScanObservation) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	groups := partitionByStandardKey(scans)

	var errs []error

	// Step 2: replace each existing entry's group with its partition
	// (possibly empty).
	for key, entry := range ec.standard {
		if err := entry.UpdateScan(groups[key], ec.platform); err != nil {
			errs = append(errs, fmt.Errorf("update_standard_from_scans %s: %w", key, err))
			continue
		}
		delete(groups, key)
	}

	// Step 3: prune entries now unreachable, unsaved, and not active.
	for key, entry := range ec.standard {
		if entry.Level() == UNREACHABLE && !entry.Saved() && !ec.isActiveConnectionEntry(key) {
			delete(ec.standard, key)
			ec.logger.Debug("pruned unreachable standard entry", slog.String("key", key))
		}
	}

	// Step 4: create entries for leftover partitions.
	for key, group := range groups {
		ssid := group[0].Ssid
		sec := group[0].SecurityCaps
		var cfg *Configuration
		if c, ok := ec.savedConfigSnapshot[key]; ok {
			cfg = &c
		}
		entry, err := NewStandardEntry(ssid, sec, group, cfg, ec.platform)
		if err != nil {
			errs = append(errs, fmt.Errorf("create standard entry %s: %w", key, err))
			continue
		}
		ec.standard[key] = entry
	}

	return errors.Join(errs...)
}

// UpdateStandardFromConfigs is the update_standard_from_configs
// reconciliation pass (§4.E). reason governs whether new entries are
// created for configs with no existing match.
func (ec *EntryCache) UpdateStandardFromConfigs(configs []Configuration, reason ConfigChangeReason) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	// Step 1: refresh the saved-config snapshot.
	newSnapshot := make(map[string]Configuration, len(configs))
	for _, cfg := range configs {
		key := StandardEntryKey(cfg.SsidQuoted, cfg.SecurityType)
		// A user-saved config wins over a suggestion sharing its key.
		if prev, ok := newSnapshot[key]; ok && !prev.FromSuggestion && cfg.FromSuggestion {
			continue
		}
		newSnapshot[key] = cfg
	}
	ec.savedConfigSnapshot = newSnapshot

	var errs []error

	// Step 2: push the snapshot (or nil) into every cached entry.
	for key, entry := range ec.standard {
		cfg, ok := newSnapshot[key]
		if ok {
			cfgCopy := cfg
			if err := entry.UpdateConfig(&cfgCopy); err != nil {
				errs = append(errs, fmt.Errorf("update_standard_from_configs %s: %w", key, err))
			}
		} else if err := entry.UpdateConfig(nil); err != nil {
			errs = append(errs, fmt.Errorf("update_standard_from_configs %s: %w", key, err))
		}
	}

	// Step 3: delete entries now unsaved, unreachable, and not active.
	for key, entry := range ec.standard {
		if !entry.Saved() && entry.Level() == UNREACHABLE && !ec.isActiveConnectionEntry(key) {
			delete(ec.standard, key)
		}
	}

	// Step 4: on ADDED/CONFIG_CHANGE, attempt to create entries for
	// snapshot keys with no existing entry. No scan group is passed here,
	// so NewStandardEntry always fails and this step creates no entry; a
	// saved network gets its entry from UpdateStandardFromScans or
	// ConditionallyCreateConnectedEntry.
	if reason == ConfigReasonAdded || reason == ConfigReasonConfigChange {
		for key, cfg := range newSnapshot {
			if _, exists := ec.standard[key]; exists {
				continue
			}
			cfgCopy := cfg
			entry, err := NewStandardEntry(cfg.SsidQuoted, cfg.SecurityType, nil, &cfgCopy, ec.platform)
			if err != nil {
				// An empty-scan construction legitimately fails
				// (NullDependency) when no scan has seen this SSID
				// yet; the entry is created once a scan group arrives.
				continue
			}
			ec.standard[key] = entry
		}
	}

	return errors.Join(errs...)
}

// UpdatePasspointFromScans is the update_passpoint_from_scans pass
// (§4.E): queries the platform for subscription matches and reconciles
// entries keyed by subscription unique id.
func (ec *EntryCache) UpdatePasspointFromScans(scans []ScanObservation) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	matches := ec.platform.MatchScansToPasspoint(scans)

	var errs []error
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		key := PasspointEntryKey(m.UniqueID)
		seen[key] = struct{}{}

		entry, ok := ec.passpoint[key]
		if !ok {
			continue // created only via saved-subscription snapshot, not bare scan matches.
		}

		combined := append(append([]ScanObservation{}, m.HomeScans...), m.RoamingScan...)
		if err := entry.UpdateScan(combined, ec.platform); err != nil {
			errs = append(errs, fmt.Errorf("update_passpoint_from_scans %s: %w", key, err))
			continue
		}
		entry.level = quantizeLevel(ec.platform, combined)
		entry.isRoaming = len(m.HomeScans) == 0 && len(m.RoamingScan) > 0
	}

	for key, entry := range ec.passpoint {
		if _, ok := seen[key]; !ok {
			entry.level = UNREACHABLE
		}
	}

	return errors.Join(errs...)
}

// UpdateOSUFromScans is the update_osu_from_scans pass (§4.E): creates
// entries for new OSU providers and drops entries for providers now
// already-provisioned.
func (ec *EntryCache) UpdateOSUFromScans(scans []ScanObservation) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	matches := ec.platform.MatchScansToOSU(scans)

	var errs []error
	seen := make(map[string]struct{}, len(matches))

	for _, m := range matches {
		key := OSUEntryKey(m.FriendlyName, m.ServerURI)
		seen[key] = struct{}{}

		if m.AlreadyProvision {
			delete(ec.osu, key)
			continue
		}

		if entry, ok := ec.osu[key]; ok {
			_ = entry.UpdateScan(m.Scans, ec.platform)
			continue
		}

		entry, err := NewOSUEntry(m.FriendlyName, m.ServerURI, m.Scans, ec.platform)
		if err != nil {
			errs = append(errs, fmt.Errorf("create osu entry %s: %w", key, err))
			continue
		}
		ec.osu[key] = entry
	}

	for key := range ec.osu {
		if _, ok := seen[key]; !ok {
			delete(ec.osu, key)
		}
	}

	return errors.Join(errs...)
}

// ConditionallyCreateConnectedEntry implements
// conditionally_create_connected_entry (§4.E): if Wi-Fi is connected and
// no cached entry matches info, fabricate one from the matching saved
// configuration (if any), preventing a gap before the first scan after
// association.
func (ec *EntryCache) ConditionallyCreateConnectedEntry(info ConnectionInfo, net NetworkInfo) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.connInfo = info
	ec.netInfo = net

	if net.DetailedState.ToConnectedState() != StateConnected {
		return nil
	}

	for _, e := range ec.standard {
		if e.ConnectionInfoMatches(info) {
			e.UpdateConnectionInfo(info, net)
			return nil
		}
	}
	for _, e := range ec.passpoint {
		if e.ConnectionInfoMatches(info) {
			e.UpdateConnectionInfo(info, net)
			return nil
		}
	}

	if info.HasNetworkID {
		for key, cfg := range ec.savedConfigSnapshot {
			if cfg.NetworkID != info.NetworkID {
				continue
			}
			cfgCopy := cfg
			entry, err := NewStandardEntry(cfg.SsidQuoted, cfg.SecurityType, nil, &cfgCopy, ec.platform)
			if err != nil {
				entry = &Entry{
					kind:        KindStandard,
					key:         key,
					title:       cfg.SsidQuoted,
					ssid:        cfg.SsidQuoted,
					securityFam: cfg.SecurityType,
					standardCfg: &cfgCopy,
					saved:       true,
					level:       UNREACHABLE,
				}
			}
			entry.UpdateConnectionInfo(info, net)
			ec.standard[key] = entry
			break
		}
	}

	return nil
}

// ApplyConnectionInfo updates every cached entry's connected-state from
// the latest connection info (the "connection_info" step of the
// canonical ordering, after ConditionallyCreateConnectedEntry has had a
// chance to fabricate a missing entry).
func (ec *EntryCache) ApplyConnectionInfo(info ConnectionInfo, net NetworkInfo) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	ec.connInfo = info
	ec.netInfo = net

	for _, e := range ec.standard {
		e.UpdateConnectionInfo(info, net)
	}
	for _, e := range ec.passpoint {
		e.UpdateConnectionInfo(info, net)
	}
}

// UpsertPasspointSubscription creates or refreshes a Passpoint entry
// from a saved subscription snapshot.
func (ec *EntryCache) UpsertPasspointSubscription(cfg PasspointConfiguration) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	key := PasspointEntryKey(cfg.UniqueID)
	if entry, ok := ec.passpoint[key]; ok {
		return entry.UpdatePasspointConfig(&cfg)
	}

	entry, err := NewPasspointEntry(cfg.UniqueID, &cfg)
	if err != nil {
		return err
	}
	ec.passpoint[key] = entry
	return nil
}

// RemovePasspointSubscription drops a Passpoint entry whose backing
// subscription was removed.
func (ec *EntryCache) RemovePasspointSubscription(uniqueID string) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	delete(ec.passpoint, PasspointEntryKey(uniqueID))
}

// snapshot returns copies of the three kind maps' values, for Views to
// consume under their own lock without holding ec.mu.
func (ec *EntryCache) snapshot() (standard, passpoint, osu []*Entry) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()

	standard = make([]*Entry, 0, len(ec.standard))
	for _, e := range ec.standard {
		standard = append(standard, e)
	}
	passpoint = make([]*Entry, 0, len(ec.passpoint))
	for _, e := range ec.passpoint {
		passpoint = append(passpoint, e)
	}
	osu = make([]*Entry, 0, len(ec.osu))
	for _, e := range ec.osu {
		osu = append(osu, e)
	}
	return standard, passpoint, osu
}

// Get returns the single cached entry for key, if any.
func (ec *EntryCache) Get(key string) (*Entry, bool) {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	if e, ok := ec.standard[key]; ok {
		return e, true
	}
	if e, ok := ec.passpoint[key]; ok {
		return e, true
	}
	if e, ok := ec.osu[key]; ok {
		return e, true
	}
	return nil, false
}

// NumSaved returns the count of saved Standard entries, used for
// num_saved_changed notifications and single-saved-network schedule
// selection (§4.C).
func (ec *EntryCache) NumSaved() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	n := 0
	for _, e := range ec.standard {
		if e.Saved() {
			n++
		}
	}
	return n
}

// NumSavedSubscriptions returns the count of tracked Passpoint entries.
func (ec *EntryCache) NumSavedSubscriptions() int {
	ec.mu.RLock()
	defer ec.mu.RUnlock()
	return len(ec.passpoint)
}
