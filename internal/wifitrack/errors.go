package wifitrack

import "errors"

// Error taxonomy. All are recoverable unless otherwise noted in the
// reconciliation pass that produces them — see entrycache.go and entry.go.
var (
	// ErrMismatch indicates an incoming observation or configuration's
	// SSID/security family differs from the entry's key. The update is
	// rejected; the entry is left unchanged.
	ErrMismatch = errors.New("wifitrack: ssid or security mismatch with entry key")

	// ErrInvalidAgeWindow indicates Get was called with an age window
	// larger than the cache's configured max age.
	ErrInvalidAgeWindow = errors.New("wifitrack: age window exceeds max age")

	// ErrMalformedKey indicates a key string does not conform to the
	// documented "<Kind>WifiEntry:..." format. Tracker.Connect,
	// Disconnect and Forget also return it for a key that names no
	// tracked entry.
	ErrMalformedKey = errors.New("wifitrack: malformed entry key")

	// ErrNullDependency indicates a required construction argument
	// (scan list, configuration, OSU provider) was missing.
	ErrNullDependency = errors.New("wifitrack: required dependency is nil or empty")

	// ErrScanSubmissionFailed indicates the platform's start_scan call
	// returned false.
	ErrScanSubmissionFailed = errors.New("wifitrack: platform rejected scan request")

	// ErrConnectFailed is returned by Entry.Connect when no request can be
	// issued (a secured, unsaved network with no password).
	ErrConnectFailed = errors.New("wifitrack: connect request failed")

	// ErrDisconnectFailed is returned by Entry.Disconnect when the entry
	// is not connected.
	ErrDisconnectFailed = errors.New("wifitrack: disconnect request failed")

	// ErrForgetFailed is returned by Entry.Forget when the entry is not
	// saved.
	ErrForgetFailed = errors.New("wifitrack: forget request failed")

	// ErrWifiDisabled indicates reconciliation ran while the platform
	// reported Wi-Fi disabled; scan input is treated as empty.
	ErrWifiDisabled = errors.New("wifitrack: wifi is disabled")

	// ErrNotSupported indicates an operation not available for an entry
	// kind (e.g. OSU entries never support connect).
	ErrNotSupported = errors.New("wifitrack: operation not supported for this entry kind")

	// ErrUnknownFailure is returned by the disconnect watchdog when no
	// platform event arrives before the deadline.
	ErrUnknownFailure = errors.New("wifitrack: no platform response before watchdog deadline")

	// ErrEngineStopped indicates a call arrived after the tracker was
	// stopped; per-call no-op rather than a panic.
	ErrEngineStopped = errors.New("wifitrack: engine is stopped")
)
