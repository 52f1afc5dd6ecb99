// Package commands implements the wifitrackerctl CLI commands.
package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatEntries renders a slice of entry views in the requested format.
func formatEntries(views []wifitrack.EntryView, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatEntriesJSON(views)
	case formatTable:
		return formatEntriesTable(views), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatEntriesJSON(views []wifitrack.EntryView) (string, error) {
	b, err := json.MarshalIndent(views, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal entries: %w", err)
	}
	return string(b) + "\n", nil
}

func formatEntriesTable(views []wifitrack.EntryView) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTITLE\tLEVEL\tSTATE\tKIND\tSAVED")

	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%t\n",
			v.Key,
			v.Title,
			v.Level,
			shortConnectedState(v.ConnectedState),
			shortKind(v.Kind),
			v.Saved,
		)
	}

	w.Flush()
	return buf.String()
}

func shortConnectedState(s wifitrack.ConnectedState) string {
	switch s {
	case wifitrack.StateDisconnected:
		return "disconnected"
	case wifitrack.StateConnecting:
		return "connecting"
	case wifitrack.StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

func shortKind(k wifitrack.Kind) string {
	switch k {
	case wifitrack.KindStandard:
		return "standard"
	case wifitrack.KindPasspoint:
		return "passpoint"
	case wifitrack.KindOSU:
		return "osu"
	default:
		return "unknown"
	}
}

func shortNotificationKind(k wifitrack.NotificationKind) string {
	switch k {
	case wifitrack.NotifyWifiStateChanged:
		return "wifi_state_changed"
	case wifitrack.NotifyEntriesChanged:
		return "entries_changed"
	case wifitrack.NotifyNumSavedChanged:
		return "num_saved_changed"
	case wifitrack.NotifyNumSavedSubscriptionsChanged:
		return "num_saved_subscriptions_changed"
	default:
		return "unknown"
	}
}
