package wifitrack_test

import (
	"context"
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

func newTestTracker(t *testing.T, platform *fakePlatform, clock wifitrack.Clock) *wifitrack.Tracker {
	t.Helper()
	cfg := wifitrack.DefaultConfig()
	cfg.MaxScanAgeMS = 60_000
	cfg.ScanIntervalMS = 1_000
	tr, err := wifitrack.New(cfg, platform, clock, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestNewRejectsNilPlatform(t *testing.T) {
	_, err := wifitrack.New(wifitrack.DefaultConfig(), nil, nil, nil)
	if !errors.Is(err, wifitrack.ErrNullDependency) {
		t.Fatalf("err = %v, want ErrNullDependency", err)
	}
}

// End-to-end scenario 1 (§8): on_start with Wi-Fi enabled, saved
// configurations, and a matching scan produces a populated Picker and
// the four expected startup notifications.
func TestTrackerStartPopulatesViewsAndNotifies(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		platform := newFakePlatform()
		platform.setWifiState(wifitrack.WifiStateEnabled)
		platform.setConfigs([]wifitrack.Configuration{
			{NetworkID: 1, SsidQuoted: "home", SecurityType: wifitrack.SecurityPSK},
		})
		platform.setScanResults([]wifitrack.ScanObservation{
			{Ssid: "home", SecurityCaps: wifitrack.SecurityPSK, LevelDbm: -45},
		})

		tr := newTestTracker(t, platform, wifitrack.NewManualClock(0))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := tr.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		synctest.Wait()

		picker := tr.Views().Picker()
		if len(picker) != 1 || picker[0].Title != "home" {
			t.Fatalf("Picker() = %+v, want one entry titled home", picker)
		}

		seenKinds := map[wifitrack.NotificationKind]bool{}
		for i := 0; i < 4; i++ {
			select {
			case n := <-tr.Dispatcher().Listen():
				seenKinds[n.Kind] = true
			default:
				t.Fatalf("expected 4 startup notifications, got %d", i)
			}
		}
		for _, want := range []wifitrack.NotificationKind{
			wifitrack.NotifyWifiStateChanged,
			wifitrack.NotifyEntriesChanged,
			wifitrack.NotifyNumSavedChanged,
			wifitrack.NotifyNumSavedSubscriptionsChanged,
		} {
			if !seenKinds[want] {
				t.Errorf("missing startup notification kind %v", want)
			}
		}

		tr.Stop()
		if !tr.Stopped() {
			t.Fatal("Stopped() = false after Stop")
		}
	})
}

// End-to-end scenario 2 (§8): a later SCAN_RESULTS_AVAILABLE broadcast
// reconciles newly visible networks into the Picker.
func TestTrackerScanResultsAvailableAddsNewEntry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		platform := newFakePlatform()
		platform.setWifiState(wifitrack.WifiStateEnabled)

		tr := newTestTracker(t, platform, wifitrack.NewManualClock(0))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := tr.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		synctest.Wait()

		if len(tr.Views().Picker()) != 0 {
			t.Fatalf("Picker() = %+v, want empty before any scan", tr.Views().Picker())
		}

		platform.setScanResults([]wifitrack.ScanObservation{
			{Ssid: "newnet", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -55},
		})
		tr.OnScanResultsAvailable(ctx, true)
		synctest.Wait()

		picker := tr.Views().Picker()
		if len(picker) != 1 || picker[0].Title != "newnet" {
			t.Fatalf("Picker() = %+v, want one entry titled newnet", picker)
		}

		tr.Stop()
	})
}

// Anti-flicker (boundary scenario 5, §8): a failed scan cycle must not
// evict entries seen on the previous successful scan.
func TestTrackerFailedScanDoesNotEvictExistingEntries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		platform := newFakePlatform()
		platform.setWifiState(wifitrack.WifiStateEnabled)
		platform.setScanResults([]wifitrack.ScanObservation{
			{Ssid: "stable", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -50},
		})

		tr := newTestTracker(t, platform, wifitrack.NewManualClock(0))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := tr.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		synctest.Wait()
		if len(tr.Views().Picker()) != 1 {
			t.Fatalf("Picker() = %+v, want one entry after initial scan", tr.Views().Picker())
		}

		// Simulate a failed scan cycle: results_updated = false, and the
		// platform would otherwise have returned nothing this round.
		platform.setScanResults(nil)
		tr.OnScanResultsAvailable(ctx, false)
		synctest.Wait()

		picker := tr.Views().Picker()
		if len(picker) != 1 || picker[0].Title != "stable" {
			t.Fatalf("Picker() = %+v, want the previously seen entry retained across a failed scan", picker)
		}

		tr.Stop()
	})
}

func TestTrackerConnectForwardsToEntry(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		platform := newFakePlatform()
		platform.setWifiState(wifitrack.WifiStateEnabled)
		platform.setScanResults([]wifitrack.ScanObservation{
			{Ssid: "open", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -50},
		})

		tr := newTestTracker(t, platform, wifitrack.NewManualClock(0))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := tr.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		synctest.Wait()

		key := wifitrack.StandardEntryKey("open", wifitrack.SecurityNone)
		done := make(chan struct{})
		err := tr.Connect(ctx, key, false, func(wifitrack.ConnectResult) { close(done) })
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("connect callback never invoked")
		}

		if len(platform.connectCalls) != 1 {
			t.Fatalf("platform.Connect called %d times, want 1", len(platform.connectCalls))
		}

		tr.Stop()
	})
}

func TestTrackerConnectUnknownKeyFails(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		platform := newFakePlatform()
		tr := newTestTracker(t, platform, wifitrack.NewManualClock(0))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		if err := tr.Start(ctx); err != nil {
			t.Fatalf("Start: %v", err)
		}
		synctest.Wait()

		err := tr.Connect(ctx, "StandardWifiEntry:nope,0", false, func(wifitrack.ConnectResult) {})
		if !errors.Is(err, wifitrack.ErrMalformedKey) {
			t.Fatalf("err = %v, want ErrMalformedKey", err)
		}

		tr.Stop()
	})
}
