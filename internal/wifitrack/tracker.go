package wifitrack

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Config is the set of options recognized by the engine constructor
// (§6). Every field here is carried unchanged from spec.md's
// "Configuration options" list.
type Config struct {
	MaxScanAgeMS                 int64
	ScanIntervalMS               int64
	ConnectedSchedule            []time.Duration
	DisconnectedSchedule         []time.Duration
	SingleSavedConnectedSchedule []time.Duration
	ScanRetryMax                 int
	DisconnectWatchdogMS         int64
	AutoJoinEnabledExternal      bool
	RateLimitMaxConnections      int
	RateLimitInterval            time.Duration
}

// DefaultConfig returns sane defaults for every optional field; the two
// required fields (MaxScanAgeMS, ScanIntervalMS) are left zero and must
// be set by the caller.
func DefaultConfig() Config {
	return Config{
		ScanRetryMax:            maxScanRetries,
		DisconnectWatchdogMS:    10_000,
		RateLimitMaxConnections: 5,
		RateLimitInterval:       time.Minute,
	}
}

// MetricsReporter receives tracker engine telemetry. Implementations
// must be safe for concurrent use from the worker goroutine. A nil
// MetricsReporter is replaced by a no-op implementation.
type MetricsReporter interface {
	SetEntriesTracked(kind string, count int)
	IncReconciliations()
	IncScanAttempts()
	IncScanFailures()
	IncConnectRequests(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) SetEntriesTracked(string, int) {}
func (noopMetrics) IncReconciliations()           {}
func (noopMetrics) IncScanAttempts()              {}
func (noopMetrics) IncScanFailures()              {}
func (noopMetrics) IncConnectRequests(string)     {}

// Option customizes a Tracker at construction time.
type Option func(*Tracker)

// WithMetrics attaches a MetricsReporter to the tracker. If mr is nil,
// a no-op reporter is used.
func WithMetrics(mr MetricsReporter) Option {
	return func(t *Tracker) {
		if mr != nil {
			t.metrics = mr
		}
	}
}

// trackerEventKind tags the single coroutine-style event queue that
// drives the worker goroutine — the literal channel-of-events design
// the spec's coroutine/async mapping note calls for.
type trackerEventKind int

const (
	evtWifiStateChanged trackerEventKind = iota
	evtScanResultsAvailable
	evtConfiguredNetworksChanged
	evtNetworkStateChanged
	evtLinkPropertiesChanged
	evtNetworkCapabilitiesChanged
)

type trackerEvent struct {
	payload kindPayload
}

// kindPayload is a small tagged union of the broadcast payloads listed
// in §6. Only the field matching Kind is meaningful.
type kindPayload struct {
	Kind                 trackerEventKind
	ScanResultsUpdated   bool
	ConfigChangeReason   ConfigChangeReason
	Config               *Configuration
	NetworkInfo          NetworkInfo
}

// Tracker is the dual-threaded orchestrator described in §4.F. The
// worker goroutine owns the entry caches, scan cache, configuration
// snapshots, and scanner state; Start/Stop are the only methods meant
// to be called from the "main" side.
type Tracker struct {
	cfg      Config
	platform Platform
	clock    Clock
	logger   *slog.Logger

	scanCache   *ScanCache
	entryCache  *EntryCache
	views       *Views
	scanner     *Scanner
	dispatcher  *Dispatcher
	rateLimiter *ConnectRateLimiter
	metrics     MetricsReporter

	eventCh chan trackerEvent

	mu               sync.Mutex
	wifiState        WifiState
	mobility         MobilityState
	firmwareRoaming  bool
	singleSavedCurr  bool
	stopped          bool

	group      *errgroup.Group
	groupCtx   context.Context
	cancelFunc context.CancelFunc
}

// New constructs a Tracker. platform must not be nil; clock defaults to
// SystemClock if nil.
func New(cfg Config, platform Platform, clock Clock, logger *slog.Logger, opts ...Option) (*Tracker, error) {
	if platform == nil {
		return nil, ErrNullDependency
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	t := &Tracker{
		cfg:         cfg,
		platform:    platform,
		clock:       clock,
		logger:      logger.With(slog.String("component", "tracker")),
		scanCache:   NewScanCache(clock, cfg.MaxScanAgeMS),
		entryCache:  NewEntryCache(platform, logger),
		views:       NewViews(""),
		dispatcher:  NewDispatcher(logger),
		rateLimiter: NewConnectRateLimiter(cfg.RateLimitMaxConnections, cfg.RateLimitInterval),
		metrics:     noopMetrics{},
		eventCh:     make(chan trackerEvent),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.scanner = NewScanner(clock, t.activeSchedule, t.requestScan, logger)
	if cfg.ScanRetryMax > 0 {
		t.scanner.maxRetries = cfg.ScanRetryMax
	}
	return t, nil
}

// activeSchedule implements the §4.C schedule selection rules.
func (t *Tracker) activeSchedule() Schedule {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.wifiState != WifiStateEnabled:
		return NewSchedule(t.cfg.DisconnectedSchedule)
	case t.singleSavedCurr && t.firmwareRoaming:
		return NewSchedule(t.cfg.SingleSavedConnectedSchedule)
	default:
		return NewSchedule(t.cfg.ConnectedSchedule)
	}
}

// requestScan is the Scanner's submit-a-scan callback: platform.StartScan.
func (t *Tracker) requestScan(ctx context.Context) bool {
	ok := t.platform.StartScan(ctx)
	if ok {
		t.metrics.IncScanAttempts()
	} else {
		t.metrics.IncScanFailures()
	}
	return ok
}

// Start performs the §4.F on_start sequence. Although invoked from the
// "main" side, steps 1-5 run on the worker goroutine, matching the
// spec's "called on the main thread" / "(worker)" split: Start merely
// triggers and waits for that first pass before returning.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	t.stopped = false
	t.mu.Unlock()

	groupCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(groupCtx)
	t.group = group
	t.groupCtx = groupCtx
	t.cancelFunc = cancel

	ready := make(chan struct{})
	group.Go(func() error {
		t.runWorker(groupCtx, ready)
		return nil
	})

	select {
	case <-ready:
	case <-groupCtx.Done():
	}
	return nil
}

// Stop performs the §4.F on_stop sequence: stop the scanner, stop
// accepting new events, and stop the dispatcher so no further listener
// calls are posted (testable property 5).
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.mu.Unlock()

	t.scanner.Stop()
	if t.cancelFunc != nil {
		t.cancelFunc()
	}
	if t.group != nil {
		_ = t.group.Wait()
	}
	t.dispatcher.Stop()
	t.scanCache.Clear()
}

// Stopped reports whether Stop has been called — in-flight worker calls
// must no-op rather than process against torn-down state.
func (t *Tracker) Stopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// Views exposes the materialized projections (§4.G).
func (t *Tracker) Views() *Views { return t.views }

// Dispatcher exposes the notification channel (§4.H).
func (t *Tracker) Dispatcher() *Dispatcher { return t.dispatcher }

// runWorker is the single worker goroutine: initial snapshot, then the
// event-processing select loop. Modeled on Session.runLoop. ready is
// closed once the initial snapshot is done.
func (t *Tracker) runWorker(ctx context.Context, ready chan<- struct{}) {
	t.initialSnapshot(ctx)
	close(ready)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-t.eventCh:
			t.process(ctx, ev)
		}
	}
}

// initialSnapshot implements on_start steps 1-5.
func (t *Tracker) initialSnapshot(ctx context.Context) {
	SetVerboseLogging(false)

	configs := t.platform.GetConfiguredNetworks()
	_ = t.entryCache.UpdateStandardFromConfigs(configs, ConfigReasonAdded)

	for _, pc := range t.platform.GetPasspointConfigurations() {
		_ = t.entryCache.UpsertPasspointSubscription(pc)
	}

	connInfo := t.platform.GetConnectionInfo()
	netInfo := t.platform.GetActiveNetworkInfo()

	scans := t.platform.GetScanResults()
	t.scanCache.Update(scans)
	t.runReconciliation(ctx, connInfo, netInfo, false)

	state := t.platform.GetWifiState()
	t.mu.Lock()
	t.wifiState = state
	t.mu.Unlock()

	if state == WifiStateEnabled {
		t.scanner.Start(ctx)
	}

	t.dispatcher.Post(Notification{Kind: NotifyWifiStateChanged, WifiState: state})
	// NotifyEntriesChanged was already posted by runReconciliation above.
	t.dispatcher.Post(Notification{Kind: NotifyNumSavedChanged, NumSaved: t.entryCache.NumSaved()})
	t.dispatcher.Post(Notification{Kind: NotifyNumSavedSubscriptionsChanged, NumSavedSubscriptions: t.entryCache.NumSavedSubscriptions()})
}

// process dispatches a single broadcast event. Single-threaded, so all
// processing of one event commits before the next begins (§5 ordering
// guarantee).
func (t *Tracker) process(ctx context.Context, ev trackerEvent) {
	switch ev.payload.Kind {
	case evtWifiStateChanged:
		t.handleWifiStateChanged(ctx)
	case evtScanResultsAvailable:
		t.handleScanResultsAvailable(ctx, ev.payload.ScanResultsUpdated)
	case evtConfiguredNetworksChanged:
		t.handleConfiguredNetworksChanged(ctx, ev.payload.ConfigChangeReason, ev.payload.Config)
	case evtNetworkStateChanged:
		t.handleNetworkStateChanged(ctx, ev.payload.NetworkInfo)
	case evtLinkPropertiesChanged, evtNetworkCapabilitiesChanged:
		// No core-engine effect beyond what NetworkStateChanged already
		// captures; these exist so external callers have a place to
		// route the broadcasts without the engine special-casing them.
	}
}

// send enqueues ev on the worker channel, blocking until it is
// accepted — this is what gives "all worker-side processing of a
// single broadcast completes before the next begins."
func (t *Tracker) send(ctx context.Context, ev trackerEvent) {
	if t.Stopped() {
		return
	}
	select {
	case t.eventCh <- ev:
	case <-ctx.Done():
	}
}

// OnWifiStateChanged is the WIFI_STATE_CHANGED broadcast handler.
func (t *Tracker) OnWifiStateChanged(ctx context.Context) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtWifiStateChanged}})
}

func (t *Tracker) handleWifiStateChanged(ctx context.Context) {
	state := t.platform.GetWifiState()

	t.mu.Lock()
	t.wifiState = state
	t.mu.Unlock()

	if state == WifiStateEnabled {
		t.scanner.Start(ctx)
	} else {
		t.scanner.Stop()
		// §7 WifiDisabled: treat scan input as empty; entries become
		// unreachable naturally and get pruned on the next pass.
		_ = t.entryCache.UpdateStandardFromScans(nil)
		t.views.Rebuild(t.entryCache)
	}

	t.dispatcher.Post(Notification{Kind: NotifyWifiStateChanged, WifiState: state})
}

// OnScanResultsAvailable is the SCAN_RESULTS_AVAILABLE broadcast
// handler. lastScanSucceeded carries the broadcast's results_updated
// flag.
func (t *Tracker) OnScanResultsAvailable(ctx context.Context, lastScanSucceeded bool) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtScanResultsAvailable, ScanResultsUpdated: lastScanSucceeded}})
}

func (t *Tracker) handleScanResultsAvailable(ctx context.Context, succeeded bool) {
	now := t.clock.NowMS()

	if succeeded {
		scans := t.platform.GetScanResults()
		t.scanCache.Update(scans)
	}
	// On failure, deliberately do not clear the cache (anti-flicker
	// contract, boundary scenario 5): the widened window is applied
	// inside runReconciliation via the widenAge flag.

	connInfo := t.platform.GetConnectionInfo()
	netInfo := t.platform.GetActiveNetworkInfo()
	t.runReconciliationAt(ctx, now, connInfo, netInfo, !succeeded)
}

// runReconciliation runs the canonical ordering (§4.E) using the
// current wall clock time.
func (t *Tracker) runReconciliation(ctx context.Context, connInfo ConnectionInfo, netInfo NetworkInfo, widenAge bool) {
	t.runReconciliationAt(ctx, t.clock.NowMS(), connInfo, netInfo, widenAge)
}

// runReconciliationAt implements the canonical order:
// scans -> standard_configs -> passpoint_configs ->
// standard_entries_scan_update -> passpoint_entries_scan_update ->
// osu_entries_scan_update -> connection_info -> views.
//
// Configs are refreshed ahead of this function via
// UpdateStandardFromConfigs/UpsertPasspointSubscription when their own
// broadcasts arrive; here the "scans" and "*_entries_scan_update" steps
// pull from the (possibly widened) scan cache, and "connection_info" is
// applied last before the views step.
func (t *Tracker) runReconciliationAt(ctx context.Context, nowMS int64, connInfo ConnectionInfo, netInfo NetworkInfo, widenAge bool) {
	var scans []ScanObservation
	if widenAge {
		widened := t.scanCache.MaxAgeMS() + t.cfg.ScanIntervalMS
		scans = t.scanCache.GetWidened(nowMS, widened)
	} else {
		got, err := t.scanCache.Get(nowMS, 0)
		if err != nil {
			t.logger.Warn("scan cache get failed", slog.String("error", err.Error()))
		}
		scans = got
	}

	if err := t.entryCache.UpdateStandardFromScans(scans); err != nil {
		t.logger.Warn("update_standard_from_scans", slog.String("error", err.Error()))
	}
	if err := t.entryCache.UpdatePasspointFromScans(scans); err != nil {
		t.logger.Warn("update_passpoint_from_scans", slog.String("error", err.Error()))
	}
	if err := t.entryCache.UpdateOSUFromScans(scans); err != nil {
		t.logger.Warn("update_osu_from_scans", slog.String("error", err.Error()))
	}

	if err := t.entryCache.ConditionallyCreateConnectedEntry(connInfo, netInfo); err != nil {
		t.logger.Warn("conditionally_create_connected_entry", slog.String("error", err.Error()))
	}
	t.entryCache.ApplyConnectionInfo(connInfo, netInfo)

	t.mu.Lock()
	t.singleSavedCurr = t.entryCache.NumSaved() == 1
	t.mu.Unlock()

	t.views.Rebuild(t.entryCache)
	t.dispatcher.Post(Notification{Kind: NotifyEntriesChanged})

	standard, passpoint, osu := t.entryCache.snapshot()
	t.metrics.SetEntriesTracked("standard", len(standard))
	t.metrics.SetEntriesTracked("passpoint", len(passpoint))
	t.metrics.SetEntriesTracked("osu", len(osu))
	t.metrics.IncReconciliations()

	_ = ctx
}

// OnConfiguredNetworksChanged is the CONFIGURED_NETWORKS_CHANGED
// broadcast handler.
func (t *Tracker) OnConfiguredNetworksChanged(ctx context.Context, reason ConfigChangeReason, cfg *Configuration) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtConfiguredNetworksChanged, ConfigChangeReason: reason, Config: cfg}})
}

func (t *Tracker) handleConfiguredNetworksChanged(ctx context.Context, reason ConfigChangeReason, cfg *Configuration) {
	var configs []Configuration
	if cfg == nil {
		// null config: full snapshot refresh.
		configs = t.platform.GetConfiguredNetworks()
	} else {
		configs = t.platform.GetConfiguredNetworks()
	}

	if err := t.entryCache.UpdateStandardFromConfigs(configs, reason); err != nil {
		t.logger.Warn("update_standard_from_configs", slog.String("error", err.Error()))
	}

	connInfo := t.platform.GetConnectionInfo()
	netInfo := t.platform.GetActiveNetworkInfo()
	t.runReconciliation(ctx, connInfo, netInfo, false)

	t.dispatcher.Post(Notification{Kind: NotifyNumSavedChanged, NumSaved: t.entryCache.NumSaved()})
}

// OnNetworkStateChanged is the NETWORK_STATE_CHANGED broadcast handler.
func (t *Tracker) OnNetworkStateChanged(ctx context.Context, info NetworkInfo) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtNetworkStateChanged, NetworkInfo: info}})
}

func (t *Tracker) handleNetworkStateChanged(ctx context.Context, info NetworkInfo) {
	connInfo := t.platform.GetConnectionInfo()
	t.runReconciliation(ctx, connInfo, info, false)
}

// OnLinkPropertiesChanged is the LINK_PROPERTIES_CHANGED broadcast
// handler — no core-engine effect; retained so callers have a stable
// dispatch surface matching §6's broadcast list.
func (t *Tracker) OnLinkPropertiesChanged(ctx context.Context) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtLinkPropertiesChanged}})
}

// OnNetworkCapabilitiesChanged is the NETWORK_CAPABILITIES_CHANGED
// broadcast handler.
func (t *Tracker) OnNetworkCapabilitiesChanged(ctx context.Context) {
	t.send(ctx, trackerEvent{payload: kindPayload{Kind: evtNetworkCapabilitiesChanged}})
}

// SetMobilityState records the device mobility state (§4.C). The
// scanner is restarted only if the resulting period differs; schedule
// selection in activeScheduleLocked does not read the mobility state,
// so the period never differs and this call does not restart the
// scanner.
func (t *Tracker) SetMobilityState(state MobilityState) {
	t.mu.Lock()
	prev := t.activeScheduleLocked()
	t.mobility = state
	next := t.activeScheduleLocked()
	t.mu.Unlock()

	if prev.At(0) != next.At(0) {
		t.scanner.RequestRestart()
	}
}

// activeScheduleLocked is activeSchedule's body without acquiring
// t.mu — callers must already hold it.
func (t *Tracker) activeScheduleLocked() Schedule {
	switch {
	case t.wifiState != WifiStateEnabled:
		return NewSchedule(t.cfg.DisconnectedSchedule)
	case t.singleSavedCurr && t.firmwareRoaming:
		return NewSchedule(t.cfg.SingleSavedConnectedSchedule)
	default:
		return NewSchedule(t.cfg.ConnectedSchedule)
	}
}

// SetFirmwareRoamingSupported records whether the platform supports
// firmware roaming, part of the single-saved-network schedule gate.
func (t *Tracker) SetFirmwareRoamingSupported(supported bool) {
	t.mu.Lock()
	t.firmwareRoaming = supported
	t.mu.Unlock()
}

// Connect forwards to the named entry's Connect operation, subject to
// the §5 rate limiter when forced is false.
func (t *Tracker) Connect(ctx context.Context, key string, forced bool, cb ConnectCallback) error {
	if !forced && !t.rateLimiter.Allow() {
		t.metrics.IncConnectRequests("rate_limited")
		return nil // silently dropped, per §5.
	}
	if forced {
		t.rateLimiter.ForceAllow()
	}

	entry, ok := t.entryCache.Get(key)
	if !ok {
		t.metrics.IncConnectRequests("failure")
		return ErrMalformedKey
	}
	err := entry.Connect(ctx, t.platform, cb)
	t.recordConnectOutcome(err)
	return err
}

// Disconnect forwards to the named entry's Disconnect operation.
func (t *Tracker) Disconnect(ctx context.Context, key string, cb ConnectCallback) error {
	entry, ok := t.entryCache.Get(key)
	if !ok {
		t.metrics.IncConnectRequests("failure")
		return ErrMalformedKey
	}
	err := entry.Disconnect(ctx, t.platform, cb)
	t.recordConnectOutcome(err)
	return err
}

// Forget forwards to the named entry's Forget operation.
func (t *Tracker) Forget(ctx context.Context, key string, cb ConnectCallback) error {
	entry, ok := t.entryCache.Get(key)
	if !ok {
		t.metrics.IncConnectRequests("failure")
		return ErrMalformedKey
	}
	err := entry.Forget(ctx, t.platform, cb)
	t.recordConnectOutcome(err)
	return err
}

// recordConnectOutcome records a connect/disconnect/forget request's
// synchronous outcome. The asynchronous platform callback result is not
// separately counted here; the request was at least accepted for
// dispatch.
func (t *Tracker) recordConnectOutcome(err error) {
	if err != nil {
		t.metrics.IncConnectRequests("failure")
		return
	}
	t.metrics.IncConnectRequests("success")
}
