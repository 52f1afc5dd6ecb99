package wifitrack

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// SecurityFamily is the security_family component of a Standard entry's
// key. The integer values are load-bearing: they appear verbatim in the
// key format (§6) and must not be renumbered once assigned.
type SecurityFamily int

const (
	SecurityNone SecurityFamily = iota
	SecurityWEP
	SecurityPSK
	SecurityEAP
	SecuritySAE
	SecurityOWE
	SecurityEAPSuiteB192
)

// Kind identifies which Entry variant a value holds.
type Kind int

const (
	KindStandard Kind = iota
	KindPasspoint
	KindOSU
)

// ConnectedState is the entry connected-state sub-machine (§4.D):
// Disconnected -> Connecting -> Connected -> Disconnected.
type ConnectedState int

const (
	StateDisconnected ConnectedState = iota
	StateConnecting
	StateConnected
)

// MeteredOverride mirrors the platform's per-network metered choice.
type MeteredOverride int

const (
	MeteredAuto MeteredOverride = iota
	MeteredOverrideMetered
	MeteredOverrideUnmetered
)

// UNREACHABLE is the signal level reported when an entry has no
// currently associated observation.
const UNREACHABLE = -1

// Configuration is an opaque handle to a persisted network config. The
// core holds only a snapshot value per reconciliation; lifecycle is
// owned externally.
type Configuration struct {
	NetworkID       int
	SsidQuoted      string
	SecurityType    SecurityFamily
	MeteredOverride MeteredOverride
	AutoJoin        bool
	Fqdn            string
	CreatorUID      int
	FromSuggestion  bool
}

// PasspointConfiguration is the Passpoint-specific analog of
// Configuration.
type PasspointConfiguration struct {
	UniqueID      string
	FriendlyName  string
	Fqdn          string
	ExpirationMS  int64
	Metered       MeteredOverride
	AutoJoin      bool
}

// ConnectionInfo is the last observed active connection (§3).
type ConnectionInfo struct {
	Bssid         string
	Ssid          string
	NetworkID     int
	PasspointFqdn string
	IsPasspointAP bool
	IsOSUAP       bool
	RssiDbm       int32
	HasRssi       bool
	HasNetworkID  bool
}

// Entry is a tagged variant over the three kinds named in §3. Per-kind
// data lives in the fields prefixed by its kind; the shared surface
// (Key, Title, Level, ConnectedState, Saved, capability flags) is common
// to all three. Kind-specific behavior is selected by a switch on kind
// inside each method rather than through an interface or an inheritance
// hierarchy, per the design note in §9.
type Entry struct {
	kind           Kind
	key            string
	title          string
	level          int
	connectedState ConnectedState
	saved          bool

	// Standard-only identity.
	ssid         string
	securityFam  SecurityFamily
	standardCfg  *Configuration
	scanGroup    []ScanObservation

	// Passpoint-only identity.
	uniqueID      string
	passpointCfg  *PasspointConfiguration
	isRoaming     bool

	// OSU-only identity.
	friendlyName string
	serverURI    string
	provisioned  bool
}

// StandardEntryKey builds the bit-exact key format for a Standard entry.
func StandardEntryKey(ssid string, security SecurityFamily) string {
	return "StandardWifiEntry:" + ssid + "," + strconv.Itoa(int(security))
}

// PasspointEntryKey builds the bit-exact key format for a Passpoint entry.
func PasspointEntryKey(uniqueID string) string {
	return "PasspointWifiEntry:" + uniqueID
}

// OSUEntryKey builds the bit-exact key format for an OSU entry.
func OSUEntryKey(friendlyName, serverURI string) string {
	return "OsuWifiEntry:" + friendlyName + "," + serverURI
}

// NewStandardEntry constructs a Standard entry from its first scan
// group. An empty scan list fails with ErrNullDependency (boundary
// scenario 1, §8). platform quantizes the group's best observation into
// the entry's level (§3: level is the 0..4 platform bucket, never a raw
// dBm reading).
func NewStandardEntry(ssid string, security SecurityFamily, scans []ScanObservation, cfg *Configuration, platform Platform) (*Entry, error) {
	if len(scans) == 0 {
		return nil, fmt.Errorf("standard entry %q: %w", ssid, ErrNullDependency)
	}
	e := &Entry{
		kind:        KindStandard,
		key:         StandardEntryKey(ssid, security),
		title:       ssid,
		ssid:        ssid,
		securityFam: security,
		standardCfg: cfg,
		saved:       cfg != nil,
	}
	if err := e.applyStandardScanGroup(scans, platform); err != nil {
		return nil, err
	}
	return e, nil
}

// NewPasspointEntry constructs a Passpoint entry. A nil configuration
// fails with ErrNullDependency.
func NewPasspointEntry(uniqueID string, cfg *PasspointConfiguration) (*Entry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("passpoint entry %q: %w", uniqueID, ErrNullDependency)
	}
	e := &Entry{
		kind:         KindPasspoint,
		key:          PasspointEntryKey(uniqueID),
		title:        cfg.FriendlyName,
		uniqueID:     uniqueID,
		passpointCfg: cfg,
		saved:        true,
		level:        UNREACHABLE,
	}
	return e, nil
}

// NewOSUEntry constructs an OSU entry from its advertising scans.
func NewOSUEntry(friendlyName, serverURI string, scans []ScanObservation, platform Platform) (*Entry, error) {
	if len(scans) == 0 {
		return nil, fmt.Errorf("osu entry %q: %w", friendlyName, ErrNullDependency)
	}
	e := &Entry{
		kind:         KindOSU,
		key:          OSUEntryKey(friendlyName, serverURI),
		title:        friendlyName,
		friendlyName: friendlyName,
		serverURI:    serverURI,
	}
	e.level = quantizeLevel(platform, scans)
	e.scanGroup = scans
	return e, nil
}

// Key returns the entry's stable identity string. Never changes after
// construction (invariant 1).
func (e *Entry) Key() string { return e.key }

// Kind returns which variant this entry holds.
func (e *Entry) Kind() Kind { return e.kind }

// Title returns the user-facing title.
func (e *Entry) Title() string { return e.title }

// Level returns the entry's signal level, or UNREACHABLE.
func (e *Entry) Level() int { return e.level }

// ConnectedState returns the entry's connected-state sub-machine value.
func (e *Entry) ConnectedState() ConnectedState { return e.connectedState }

// Saved reports whether a persisted configuration currently backs this
// entry.
func (e *Entry) Saved() bool { return e.saved }

// bestLevelDbm returns the raw dBm of the best (max RSSI) observation in
// the group. ok is false for an empty group.
func bestLevelDbm(scans []ScanObservation) (dbm int32, ok bool) {
	if len(scans) == 0 {
		return 0, false
	}
	best := scans[0].LevelDbm
	for _, s := range scans[1:] {
		if s.LevelDbm > best {
			best = s.LevelDbm
		}
	}
	return best, true
}

// quantizeLevel converts a scan group's best observation into the
// platform-quantized 0..4 signal level, or UNREACHABLE for an empty
// group (§3, invariant 4). Raw dBm never reaches Entry.level directly;
// quantization is always delegated to Platform.CalculateSignalLevel.
func quantizeLevel(platform Platform, scans []ScanObservation) int {
	dbm, ok := bestLevelDbm(scans)
	if !ok {
		return UNREACHABLE
	}
	return platform.CalculateSignalLevel(dbm)
}

// applyStandardScanGroup validates every observation's ssid/security
// against the entry's key and stores the group, recomputing level from
// the best observation via platform (invariant 3, invariant 4).
func (e *Entry) applyStandardScanGroup(scans []ScanObservation, platform Platform) error {
	for _, o := range scans {
		if o.Ssid != e.ssid || o.SecurityCaps != e.securityFam {
			return fmt.Errorf("entry %s: observation ssid=%q sec=%d: %w", e.key, o.Ssid, o.SecurityCaps, ErrMismatch)
		}
	}
	e.scanGroup = scans
	e.level = quantizeLevel(platform, scans)
	return nil
}

// UpdateScan implements the worker-thread-only update_scan operation
// (§4.D). For Standard entries, a mismatched observation fails the
// entire update and leaves the entry unchanged (boundary scenario 2).
// platform quantizes the recomputed level; see quantizeLevel.
func (e *Entry) UpdateScan(group []ScanObservation, platform Platform) error {
	switch e.kind {
	case KindStandard:
		return e.applyStandardScanGroup(group, platform)
	case KindOSU:
		e.scanGroup = group
		e.level = quantizeLevel(platform, group)
		return nil
	default:
		// Passpoint level comes from update_connection_info / the combined
		// home and roaming scans applied in entrycache.go, not from here.
		return nil
	}
}

// UpdateConfig implements update_config (§4.D). A nil configuration
// marks the entry unsaved without touching its identity.
func (e *Entry) UpdateConfig(cfg *Configuration) error {
	if e.kind != KindStandard {
		return fmt.Errorf("update_config on kind %d: %w", e.kind, ErrNotSupported)
	}
	if cfg != nil {
		if cfg.SsidQuoted != e.ssid || cfg.SecurityType != e.securityFam {
			return fmt.Errorf("entry %s: config ssid=%q sec=%d: %w", e.key, cfg.SsidQuoted, cfg.SecurityType, ErrMismatch)
		}
	}
	e.standardCfg = cfg
	e.saved = cfg != nil
	return nil
}

// UpdatePasspointConfig implements update_passpoint_config (§4.D):
// refreshes friendly name, expiration, and metered override.
func (e *Entry) UpdatePasspointConfig(cfg *PasspointConfiguration) error {
	if e.kind != KindPasspoint {
		return fmt.Errorf("update_passpoint_config on kind %d: %w", e.kind, ErrNotSupported)
	}
	if cfg == nil {
		return fmt.Errorf("entry %s: %w", e.key, ErrNullDependency)
	}
	e.passpointCfg = cfg
	e.title = cfg.FriendlyName
	return nil
}

// UpdateConnectionInfo implements update_connection_info (§4.D): if the
// active connection matches this entry, transitions connected-state per
// the DetailedState mapping and updates level from the RSSI when valid;
// otherwise transitions to Disconnected.
func (e *Entry) UpdateConnectionInfo(info ConnectionInfo, net NetworkInfo) {
	if !e.ConnectionInfoMatches(info) {
		e.connectedState = StateDisconnected
		return
	}
	e.connectedState = net.DetailedState.ToConnectedState()
	if info.HasRssi {
		e.level = int(info.RssiDbm)
	}
}

// ConnectionInfoMatches implements connection_info_matches per kind.
func (e *Entry) ConnectionInfoMatches(info ConnectionInfo) bool {
	switch e.kind {
	case KindStandard:
		return e.saved && e.standardCfg != nil && info.HasNetworkID && info.NetworkID == e.standardCfg.NetworkID
	case KindPasspoint:
		return info.IsPasspointAP && e.passpointCfg != nil && info.PasspointFqdn == e.passpointCfg.Fqdn
	default:
		return false
	}
}

// CanConnect implements can_connect per kind.
func (e *Entry) CanConnect() bool {
	switch e.kind {
	case KindStandard:
		return e.level != UNREACHABLE && e.connectedState == StateDisconnected
	case KindPasspoint:
		return e.level != UNREACHABLE && e.connectedState == StateDisconnected && e.passpointCfg != nil
	default:
		return false
	}
}

// Connect implements connect per kind. Standard: if saved, request by
// network_id; otherwise request a generated open/OWE config, or signal
// NoPassword. Passpoint: request by stored config. OSU: not supported.
func (e *Entry) Connect(ctx context.Context, platform Platform, cb ConnectCallback) error {
	switch e.kind {
	case KindStandard:
		if e.saved && e.standardCfg != nil {
			platform.Connect(ctx, e.standardCfg.NetworkID, cb)
			return nil
		}
		if e.securityFam == SecurityNone || e.securityFam == SecurityOWE {
			platform.Connect(ctx, generatedOpenConfig{Ssid: e.ssid, Security: e.securityFam}, cb)
			return nil
		}
		return fmt.Errorf("entry %s: no password available: %w", e.key, ErrConnectFailed)
	case KindPasspoint:
		if e.passpointCfg == nil {
			return fmt.Errorf("entry %s: %w", e.key, ErrNullDependency)
		}
		platform.Connect(ctx, e.passpointCfg, cb)
		return nil
	default:
		return fmt.Errorf("entry %s: %w", e.key, ErrNotSupported)
	}
}

// generatedOpenConfig is the ephemeral config handed to Platform.Connect
// for an unsaved open/OWE network.
type generatedOpenConfig struct {
	Ssid     string
	Security SecurityFamily
}

// disconnectWatchdog is the §5 / §4.D 10s watchdog: if no platform event
// lands before the deadline, deliver fires with ErrUnknownFailure.
// deliver is Disconnect's once-guarded callback, so the caller's
// callback fires at most once whichever side reports first.
func disconnectWatchdog(ctx context.Context, deliver ConnectCallback, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	<-ctx.Done()
	deliver(ConnectResult{Err: fmt.Errorf("entry disconnect: %w", ErrUnknownFailure)})
}

// Disconnect implements disconnect per kind: allowed iff Connected,
// schedules the 10s watchdog described above.
func (e *Entry) Disconnect(ctx context.Context, platform Platform, cb ConnectCallback) error {
	if e.kind == KindOSU {
		return fmt.Errorf("entry %s: %w", e.key, ErrNotSupported)
	}
	if e.connectedState != StateConnected {
		return fmt.Errorf("entry %s: not connected: %w", e.key, ErrDisconnectFailed)
	}

	var once sync.Once
	wrapped := func(r ConnectResult) {
		once.Do(func() { cb(r) })
	}

	go disconnectWatchdog(ctx, wrapped, 10*time.Second)
	platform.Disconnect(ctx, wrapped)

	if e.kind == KindPasspoint && e.passpointCfg != nil {
		platform.AllowAutojoinPasspoint(ctx, e.passpointCfg.Fqdn, false)
	}
	return nil
}

// Forget implements forget per kind: allowed iff saved.
func (e *Entry) Forget(ctx context.Context, platform Platform, cb ConnectCallback) error {
	switch e.kind {
	case KindStandard:
		if !e.saved {
			return fmt.Errorf("entry %s: not saved: %w", e.key, ErrForgetFailed)
		}
		// Standard forget is a configuration-store operation out of
		// scope for this module (§1); the config snapshot path in
		// entrycache.go removes it from the cache on the next
		// CONFIGURED_NETWORKS_CHANGED(REMOVED).
		cb(ConnectResult{})
		return nil
	case KindPasspoint:
		if e.passpointCfg == nil {
			return fmt.Errorf("entry %s: %w", e.key, ErrNullDependency)
		}
		platform.RemovePasspoint(ctx, e.passpointCfg.Fqdn, cb)
		return nil
	default:
		return fmt.Errorf("entry %s: %w", e.key, ErrNotSupported)
	}
}

// GetMeteredChoice implements get_metered_choice per kind.
func (e *Entry) GetMeteredChoice() MeteredOverride {
	switch e.kind {
	case KindStandard:
		if e.standardCfg != nil {
			return e.standardCfg.MeteredOverride
		}
		return MeteredAuto
	case KindPasspoint:
		if e.passpointCfg != nil {
			return e.passpointCfg.Metered
		}
		return MeteredAuto
	default:
		return MeteredAuto
	}
}

// SetAutoJoinEnabled implements set_auto_join_enabled per kind.
func (e *Entry) SetAutoJoinEnabled(ctx context.Context, platform Platform, enabled bool) error {
	switch e.kind {
	case KindStandard:
		if e.standardCfg == nil {
			return fmt.Errorf("entry %s: %w", e.key, ErrNullDependency)
		}
		platform.AllowAutojoinNetwork(ctx, e.standardCfg.NetworkID, enabled)
		return nil
	case KindPasspoint:
		if e.passpointCfg == nil {
			return fmt.Errorf("entry %s: %w", e.key, ErrNullDependency)
		}
		platform.AllowAutojoinPasspoint(ctx, e.passpointCfg.Fqdn, enabled)
		return nil
	default:
		return fmt.Errorf("entry %s: %w", e.key, ErrNotSupported)
	}
}

// IsExpired implements is_expired per kind.
func (e *Entry) IsExpired(nowMS int64) bool {
	if e.kind != KindPasspoint || e.passpointCfg == nil {
		return false
	}
	return e.passpointCfg.ExpirationMS > 0 && nowMS >= e.passpointCfg.ExpirationMS
}

// IsRoaming reports whether a Passpoint entry's home scan set is empty
// while its roaming set is non-empty (§4.E).
func (e *Entry) IsRoaming() bool { return e.isRoaming }
