package wifitrack_test

import (
	"context"
	"sync"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

// fakePlatform is a fully in-memory Platform used across the package's
// tests. Every field is read/written under mu so concurrent worker and
// test-goroutine access (synctest tests advance goroutines cooperatively,
// but real time.Sleep-based tests do not) stays race-free.
type fakePlatform struct {
	mu sync.Mutex

	wifiState    wifitrack.WifiState
	scanResults  []wifitrack.ScanObservation
	configs      []wifitrack.Configuration
	passpoint    []wifitrack.PasspointConfiguration
	connInfo     wifitrack.ConnectionInfo
	netInfo      wifitrack.NetworkInfo

	startScanResult bool
	startScanCalls  int

	connectCalls    []any
	disconnectCalls int
	removeCalls     []string

	passpointMatches []wifitrack.PasspointScanMatch
	osuMatches       []wifitrack.OSUScanMatch
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{startScanResult: true}
}

func (f *fakePlatform) GetWifiState() wifitrack.WifiState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.wifiState
}

func (f *fakePlatform) setWifiState(s wifitrack.WifiState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.wifiState = s
}

func (f *fakePlatform) GetScanResults() []wifitrack.ScanObservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wifitrack.ScanObservation(nil), f.scanResults...)
}

func (f *fakePlatform) setScanResults(o []wifitrack.ScanObservation) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scanResults = o
}

func (f *fakePlatform) GetConfiguredNetworks() []wifitrack.Configuration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wifitrack.Configuration(nil), f.configs...)
}

func (f *fakePlatform) setConfigs(c []wifitrack.Configuration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configs = c
}

func (f *fakePlatform) GetPasspointConfigurations() []wifitrack.PasspointConfiguration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wifitrack.PasspointConfiguration(nil), f.passpoint...)
}

func (f *fakePlatform) GetConnectionInfo() wifitrack.ConnectionInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connInfo
}

func (f *fakePlatform) setConnectionInfo(info wifitrack.ConnectionInfo, net wifitrack.NetworkInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connInfo = info
	f.netInfo = net
}

func (f *fakePlatform) GetActiveNetworkInfo() wifitrack.NetworkInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.netInfo
}

func (f *fakePlatform) CalculateSignalLevel(rssiDbm int32) int {
	return int(rssiDbm)
}

func (f *fakePlatform) StartScan(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startScanCalls++
	return f.startScanResult
}

func (f *fakePlatform) Connect(_ context.Context, netIDOrConfig any, cb wifitrack.ConnectCallback) {
	f.mu.Lock()
	f.connectCalls = append(f.connectCalls, netIDOrConfig)
	f.mu.Unlock()
	cb(wifitrack.ConnectResult{})
}

func (f *fakePlatform) Disconnect(_ context.Context, cb wifitrack.ConnectCallback) {
	f.mu.Lock()
	f.disconnectCalls++
	f.mu.Unlock()
	cb(wifitrack.ConnectResult{})
}

func (f *fakePlatform) RemovePasspoint(_ context.Context, fqdn string, cb wifitrack.ConnectCallback) {
	f.mu.Lock()
	f.removeCalls = append(f.removeCalls, fqdn)
	f.mu.Unlock()
	cb(wifitrack.ConnectResult{})
}

func (f *fakePlatform) SetPasspointMeteredOverride(_ context.Context, _ string, _ wifitrack.MeteredOverride) {
}

func (f *fakePlatform) AllowAutojoinPasspoint(_ context.Context, _ string, _ bool) {}

func (f *fakePlatform) AllowAutojoinNetwork(_ context.Context, _ int, _ bool) {}

func (f *fakePlatform) MatchScansToPasspoint(_ []wifitrack.ScanObservation) []wifitrack.PasspointScanMatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passpointMatches
}

func (f *fakePlatform) MatchScansToOSU(_ []wifitrack.ScanObservation) []wifitrack.OSUScanMatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.osuMatches
}

// fakePlatformStub implements every Platform method as a no-op/zero
// value, so a test can embed it and override only the one method it
// cares about.
type fakePlatformStub struct{}

func (fakePlatformStub) GetWifiState() wifitrack.WifiState                    { return wifitrack.WifiStateEnabled }
func (fakePlatformStub) GetScanResults() []wifitrack.ScanObservation          { return nil }
func (fakePlatformStub) GetConfiguredNetworks() []wifitrack.Configuration     { return nil }
func (fakePlatformStub) GetPasspointConfigurations() []wifitrack.PasspointConfiguration {
	return nil
}
func (fakePlatformStub) GetConnectionInfo() wifitrack.ConnectionInfo { return wifitrack.ConnectionInfo{} }
func (fakePlatformStub) GetActiveNetworkInfo() wifitrack.NetworkInfo { return wifitrack.NetworkInfo{} }
func (fakePlatformStub) CalculateSignalLevel(rssiDbm int32) int     { return int(rssiDbm) }
func (fakePlatformStub) StartScan(context.Context) bool              { return true }
func (fakePlatformStub) Connect(context.Context, any, wifitrack.ConnectCallback) {}
func (fakePlatformStub) Disconnect(context.Context, wifitrack.ConnectCallback)  {}
func (fakePlatformStub) RemovePasspoint(context.Context, string, wifitrack.ConnectCallback) {}
func (fakePlatformStub) SetPasspointMeteredOverride(context.Context, string, wifitrack.MeteredOverride) {
}
func (fakePlatformStub) AllowAutojoinPasspoint(context.Context, string, bool) {}
func (fakePlatformStub) AllowAutojoinNetwork(context.Context, int, bool)      {}
func (fakePlatformStub) MatchScansToPasspoint(_ []wifitrack.ScanObservation) []wifitrack.PasspointScanMatch {
	return nil
}
func (fakePlatformStub) MatchScansToOSU(_ []wifitrack.ScanObservation) []wifitrack.OSUScanMatch {
	return nil
}
