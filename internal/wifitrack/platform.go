package wifitrack

import "context"

// WifiState mirrors the platform's Wi-Fi radio state.
type WifiState int

const (
	WifiStateUnknown WifiState = iota
	WifiStateDisabled
	WifiStateEnabling
	WifiStateEnabled
	WifiStateDisabling
)

// MobilityState is the device mobility input recorded by
// Tracker.SetMobilityState (§4.C). The tracker's scan schedule selection
// does not depend on it.
type MobilityState int

const (
	MobilityStationary MobilityState = iota
	MobilityLowMovement
	MobilityHighMovement
)

// ConfigChangeReason is carried by CONFIGURED_NETWORKS_CHANGED (§6).
type ConfigChangeReason int

const (
	ConfigReasonAdded ConfigChangeReason = iota
	ConfigReasonRemoved
	ConfigReasonConfigChange
)

// NetworkInfo is a minimal view of NETWORK_STATE_CHANGED's payload —
// enough detail to drive the connected-state sub-machine (§4.D).
type NetworkInfo struct {
	DetailedState DetailedState
}

// DetailedState is the platform's fine-grained connection state. Per
// §4.D, {Scanning, Authenticating, ObtainingIp, VerifyingPoorLink,
// CaptivePortalCheck} all map to Connecting; Connected maps to
// Connected; anything else maps to Disconnected.
type DetailedState int

const (
	DetailedIdle DetailedState = iota
	DetailedScanning
	DetailedAuthenticating
	DetailedObtainingIP
	DetailedVerifyingPoorLink
	DetailedCaptivePortalCheck
	DetailedConnected
	DetailedDisconnected
	DetailedFailed
)

// ToConnectedState applies the §4.D mapping.
func (d DetailedState) ToConnectedState() ConnectedState {
	switch d {
	case DetailedScanning, DetailedAuthenticating, DetailedObtainingIP,
		DetailedVerifyingPoorLink, DetailedCaptivePortalCheck:
		return StateConnecting
	case DetailedConnected:
		return StateConnected
	default:
		return StateDisconnected
	}
}

// ConnectResult is delivered at most once per connect/disconnect/forget
// request (§5: "at most one success or one failure is delivered per
// request").
type ConnectResult struct {
	Err error
}

// ConnectCallback receives the single result of a connect/disconnect/
// forget request.
type ConnectCallback func(ConnectResult)

// Platform is the abstract collaborator the engine talks to. A real
// implementation lives outside this module — out of scope per the
// purpose statement — so production code always passes one in, and
// tests pass a fake. Every method is expected to be a fast, non-blocking
// RPC; Platform implementations must not block the worker goroutine.
type Platform interface {
	GetWifiState() WifiState
	GetScanResults() []ScanObservation
	GetConfiguredNetworks() []Configuration
	GetPasspointConfigurations() []PasspointConfiguration
	GetConnectionInfo() ConnectionInfo
	GetActiveNetworkInfo() NetworkInfo
	CalculateSignalLevel(rssiDbm int32) int

	StartScan(ctx context.Context) bool

	Connect(ctx context.Context, netIDOrConfig any, cb ConnectCallback)
	Disconnect(ctx context.Context, cb ConnectCallback)
	RemovePasspoint(ctx context.Context, fqdn string, cb ConnectCallback)
	SetPasspointMeteredOverride(ctx context.Context, fqdn string, value MeteredOverride)
	AllowAutojoinPasspoint(ctx context.Context, fqdn string, allow bool)
	// AllowAutojoinNetwork is the standard-network counterpart to
	// AllowAutojoinPasspoint, keyed by the saved network's id rather
	// than a Passpoint fqdn (§4.D set_auto_join_enabled, Standard case).
	AllowAutojoinNetwork(ctx context.Context, networkID int, allow bool)

	// MatchScansToPasspoint answers "which of these scans match which
	// subscription?" for update_passpoint_from_scans (§4.E).
	MatchScansToPasspoint(scans []ScanObservation) []PasspointScanMatch
	// MatchScansToOSU answers the equivalent question for OSU providers.
	MatchScansToOSU(scans []ScanObservation) []OSUScanMatch
}

// PasspointScanMatch associates a subscription's unique id with the
// scans it matches, split into home vs. roaming subsets per §4.E.
type PasspointScanMatch struct {
	UniqueID    string
	HomeScans   []ScanObservation
	RoamingScan []ScanObservation
}

// OSUScanMatch associates an OSU provider identity with the scans
// advertising it, and whether the provider is already provisioned.
type OSUScanMatch struct {
	FriendlyName     string
	ServerURI        string
	Scans            []ScanObservation
	AlreadyProvision bool
}
