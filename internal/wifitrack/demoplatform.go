package wifitrack

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DemoPlatform is an in-memory, simulated Platform implementation. It
// exists so cmd/wifitrackerd and cmd/wifitrackerctl have a concrete,
// runnable collaborator to drive the engine against without a real
// OS-level Wi-Fi manager, which stays out of scope for this module.
// Nothing here simulates RF behavior; it seeds a fixed set of scan
// observations and answers connect/disconnect requests after a short
// simulated delay.
type DemoPlatform struct {
	mu sync.Mutex

	logger *slog.Logger

	wifiState WifiState
	configs   []Configuration
	passpoint []PasspointConfiguration
	scans     []ScanObservation
	connInfo  ConnectionInfo
	netInfo   NetworkInfo

	nextNetworkID int
}

// NewDemoPlatform constructs a DemoPlatform seeded with a small fixed
// set of visible networks and one saved configuration, so a freshly
// started daemon or CLI session has something to show immediately.
func NewDemoPlatform(logger *slog.Logger) *DemoPlatform {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	p := &DemoPlatform{
		logger:        logger.With(slog.String("component", "demoplatform")),
		wifiState:     WifiStateEnabled,
		nextNetworkID: 1,
	}

	p.configs = []Configuration{
		{NetworkID: p.nextNetworkID, SsidQuoted: "home-network", SecurityType: SecurityPSK, AutoJoin: true},
	}
	p.nextNetworkID++

	p.scans = []ScanObservation{
		{Bssid: "aa:bb:cc:00:00:01", Ssid: "home-network", SecurityCaps: SecurityPSK, LevelDbm: -48, FrequencyMhz: 5180},
		{Bssid: "aa:bb:cc:00:00:02", Ssid: "coffee-shop", SecurityCaps: SecurityNone, LevelDbm: -62, FrequencyMhz: 2437},
		{Bssid: "aa:bb:cc:00:00:03", Ssid: "neighbor-5g", SecurityCaps: SecuritySAE, LevelDbm: -79, FrequencyMhz: 5805},
	}
	seededAt := time.Now().UnixMilli()
	for i := range p.scans {
		p.scans[i].TimestampMS = seededAt
	}
	p.netInfo = NetworkInfo{DetailedState: DetailedDisconnected}

	return p
}

// -------------------------------------------------------------------------
// Snapshots
// -------------------------------------------------------------------------

func (p *DemoPlatform) GetWifiState() WifiState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.wifiState
}

// SetWifiState lets the CLI/daemon simulate the user toggling Wi-Fi.
func (p *DemoPlatform) SetWifiState(state WifiState) {
	p.mu.Lock()
	p.wifiState = state
	p.mu.Unlock()
}

func (p *DemoPlatform) GetScanResults() []ScanObservation {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ScanObservation, len(p.scans))
	copy(out, p.scans)
	return out
}

func (p *DemoPlatform) GetConfiguredNetworks() []Configuration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Configuration, len(p.configs))
	copy(out, p.configs)
	return out
}

func (p *DemoPlatform) GetPasspointConfigurations() []PasspointConfiguration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PasspointConfiguration, len(p.passpoint))
	copy(out, p.passpoint)
	return out
}

func (p *DemoPlatform) GetConnectionInfo() ConnectionInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connInfo
}

func (p *DemoPlatform) GetActiveNetworkInfo() NetworkInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.netInfo
}

// CalculateSignalLevel buckets an RSSI reading into a 0-4 signal level,
// the same five-bucket granularity Android's Wi-Fi framework exposes to
// UIs.
func (p *DemoPlatform) CalculateSignalLevel(rssiDbm int32) int {
	switch {
	case rssiDbm >= -50:
		return 4
	case rssiDbm >= -60:
		return 3
	case rssiDbm >= -67:
		return 2
	case rssiDbm >= -75:
		return 1
	default:
		return 0
	}
}

// -------------------------------------------------------------------------
// Scanning
// -------------------------------------------------------------------------

// StartScan always succeeds; the seeded scan set does not change between
// cycles since nothing drives real RF visibility here.
func (p *DemoPlatform) StartScan(ctx context.Context) bool {
	p.mu.Lock()
	for i := range p.scans {
		p.scans[i].TimestampMS = time.Now().UnixMilli()
	}
	p.mu.Unlock()
	return true
}

// -------------------------------------------------------------------------
// Connect / Disconnect / Forget
// -------------------------------------------------------------------------

const demoConnectDelay = 200 * time.Millisecond

// Connect simulates an asynchronous connect attempt: the connection info
// and active network state transition through Connecting then Connected
// after demoConnectDelay, then cb fires.
func (p *DemoPlatform) Connect(ctx context.Context, netIDOrConfig any, cb ConnectCallback) {
	p.mu.Lock()
	switch v := netIDOrConfig.(type) {
	case int:
		p.connInfo = ConnectionInfo{NetworkID: v, HasNetworkID: true}
		for _, c := range p.configs {
			if c.NetworkID == v {
				p.connInfo.Ssid = c.SsidQuoted
			}
		}
	case generatedOpenConfig:
		p.connInfo = ConnectionInfo{Ssid: v.Ssid}
	case *PasspointConfiguration:
		p.connInfo = ConnectionInfo{PasspointFqdn: v.Fqdn, IsPasspointAP: true}
	default:
		p.logger.Warn("demo connect with unrecognized target", slog.Any("target", netIDOrConfig))
	}
	p.netInfo = NetworkInfo{DetailedState: DetailedObtainingIP}
	p.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			cb(ConnectResult{Err: ctx.Err()})
			return
		case <-time.After(demoConnectDelay):
		}
		p.mu.Lock()
		p.netInfo = NetworkInfo{DetailedState: DetailedConnected}
		p.connInfo.HasRssi = true
		p.connInfo.RssiDbm = -50
		p.mu.Unlock()
		cb(ConnectResult{})
	}()
}

// Disconnect simulates tearing down the active connection.
func (p *DemoPlatform) Disconnect(ctx context.Context, cb ConnectCallback) {
	go func() {
		select {
		case <-ctx.Done():
			cb(ConnectResult{Err: ctx.Err()})
			return
		case <-time.After(demoConnectDelay):
		}
		p.mu.Lock()
		p.netInfo = NetworkInfo{DetailedState: DetailedDisconnected}
		p.connInfo = ConnectionInfo{}
		p.mu.Unlock()
		cb(ConnectResult{})
	}()
}

// RemovePasspoint drops a subscription from the seeded set.
func (p *DemoPlatform) RemovePasspoint(ctx context.Context, fqdn string, cb ConnectCallback) {
	p.mu.Lock()
	filtered := p.passpoint[:0]
	found := false
	for _, sub := range p.passpoint {
		if sub.Fqdn == fqdn {
			found = true
			continue
		}
		filtered = append(filtered, sub)
	}
	p.passpoint = filtered
	p.mu.Unlock()

	if !found {
		cb(ConnectResult{Err: fmt.Errorf("demoplatform: no passpoint subscription for %q", fqdn)})
		return
	}
	cb(ConnectResult{})
}

// SetPasspointMeteredOverride updates the metered choice on a seeded
// subscription, a no-op if the fqdn is unknown.
func (p *DemoPlatform) SetPasspointMeteredOverride(ctx context.Context, fqdn string, value MeteredOverride) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.passpoint {
		if p.passpoint[i].Fqdn == fqdn {
			p.passpoint[i].Metered = value
			return
		}
	}
}

// AllowAutojoinPasspoint updates the auto-join flag on a seeded
// subscription, a no-op if the fqdn is unknown.
func (p *DemoPlatform) AllowAutojoinPasspoint(ctx context.Context, fqdn string, allow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.passpoint {
		if p.passpoint[i].Fqdn == fqdn {
			p.passpoint[i].AutoJoin = allow
			return
		}
	}
}

// AllowAutojoinNetwork updates the auto-join flag on a saved standard
// network, a no-op if the network id is unknown.
func (p *DemoPlatform) AllowAutojoinNetwork(ctx context.Context, networkID int, allow bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.configs {
		if p.configs[i].NetworkID == networkID {
			p.configs[i].AutoJoin = allow
			return
		}
	}
}

// -------------------------------------------------------------------------
// Passpoint / OSU Matching
// -------------------------------------------------------------------------

// MatchScansToPasspoint reports no matches: the demo seeds no Passpoint
// subscriptions by default.
func (p *DemoPlatform) MatchScansToPasspoint(scans []ScanObservation) []PasspointScanMatch {
	return nil
}

// MatchScansToOSU reports no matches, for the same reason.
func (p *DemoPlatform) MatchScansToOSU(scans []ScanObservation) []OSUScanMatch {
	return nil
}
