package wifitrack_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

func obs(bssid, ssid string, ts int64, level int32) wifitrack.ScanObservation {
	return wifitrack.ScanObservation{
		Bssid:       bssid,
		Ssid:        ssid,
		LevelDbm:    level,
		TimestampMS: ts,
	}
}

func TestScanCacheGetRespectsAgeWindow(t *testing.T) {
	clock := wifitrack.NewManualClock(10_000)
	cache := wifitrack.NewScanCache(clock, 5_000)

	cache.Update([]wifitrack.ScanObservation{
		obs("aa:aa", "net1", 9_000, -40),
		obs("bb:bb", "net2", 3_000, -50),
	})

	got, err := cache.Get(10_000, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].Bssid != "aa:aa" {
		t.Fatalf("Get returned %+v, want only aa:aa (within 5000ms window)", got)
	}
}

func TestScanCacheGetRejectsOversizedWindow(t *testing.T) {
	clock := wifitrack.NewManualClock(0)
	cache := wifitrack.NewScanCache(clock, 5_000)

	_, err := cache.Get(0, 10_000)
	if !errors.Is(err, wifitrack.ErrInvalidAgeWindow) {
		t.Fatalf("Get err = %v, want ErrInvalidAgeWindow", err)
	}
}

func TestScanCacheUpdateNeverLowersTimestamp(t *testing.T) {
	clock := wifitrack.NewManualClock(0)
	cache := wifitrack.NewScanCache(clock, 60_000)

	cache.Update([]wifitrack.ScanObservation{obs("aa:aa", "net1", 5_000, -40)})
	cache.Update([]wifitrack.ScanObservation{obs("aa:aa", "net1", 1_000, -90)}) // stale, must be ignored

	got, err := cache.Get(5_000, 0)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 || got[0].LevelDbm != -40 {
		t.Fatalf("Get = %+v, want the newer observation retained", got)
	}
}

func TestScanCacheGetWidenedBypassesGuard(t *testing.T) {
	clock := wifitrack.NewManualClock(0)
	cache := wifitrack.NewScanCache(clock, 1_000)

	cache.Update([]wifitrack.ScanObservation{obs("aa:aa", "net1", 0, -40)})

	got := cache.GetWidened(9_000, 10_000)
	if len(got) != 1 {
		t.Fatalf("GetWidened = %+v, want one observation surviving the widened window", got)
	}
}

func TestScanCacheClear(t *testing.T) {
	clock := wifitrack.NewManualClock(0)
	cache := wifitrack.NewScanCache(clock, 60_000)
	cache.Update([]wifitrack.ScanObservation{obs("aa:aa", "net1", 0, -40)})

	cache.Clear()

	if cache.Size() != 0 {
		t.Fatalf("Size after Clear = %d, want 0", cache.Size())
	}
}
