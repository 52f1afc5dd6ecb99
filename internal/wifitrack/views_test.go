package wifitrack_test

import (
	"testing"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

// Frozen ordering (§9 open question 2): Picker/Saved views sort by
// (-level, title) — higher signal first, ties broken by title ascending.
func TestPickerOrderingByLevelThenTitle(t *testing.T) {
	platform := newFakePlatform()
	cache := wifitrack.NewEntryCache(platform, nil)

	scans := []wifitrack.ScanObservation{
		{Ssid: "Bravo", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -60},
		{Ssid: "Alpha", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -60},
		{Ssid: "Charlie", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -30},
	}
	if err := cache.UpdateStandardFromScans(scans); err != nil {
		t.Fatalf("UpdateStandardFromScans: %v", err)
	}

	v := wifitrack.NewViews("")
	v.Rebuild(cache)
	picker := v.Picker()

	if len(picker) != 3 {
		t.Fatalf("Picker() len = %d, want 3", len(picker))
	}
	wantOrder := []string{"Charlie", "Alpha", "Bravo"}
	for i, title := range wantOrder {
		if picker[i].Title != title {
			t.Errorf("Picker()[%d].Title = %q, want %q (order: %v)", i, picker[i].Title, title, picker)
		}
	}
}

func TestViewsReturnDefensiveCopies(t *testing.T) {
	platform := newFakePlatform()
	cache := wifitrack.NewEntryCache(platform, nil)
	scans := []wifitrack.ScanObservation{{Ssid: "net1", SecurityCaps: wifitrack.SecurityNone, LevelDbm: -50}}
	if err := cache.UpdateStandardFromScans(scans); err != nil {
		t.Fatalf("UpdateStandardFromScans: %v", err)
	}

	v := wifitrack.NewViews("")
	v.Rebuild(cache)

	first := v.Picker()
	first[0].Title = "mutated"

	second := v.Picker()
	if second[0].Title == "mutated" {
		t.Fatal("Picker() returned a slice aliasing internal storage")
	}
}

func TestSavedSubscriptionsTracksPasspointEntries(t *testing.T) {
	platform := newFakePlatform()
	cache := wifitrack.NewEntryCache(platform, nil)

	cfg := wifitrack.PasspointConfiguration{UniqueID: "sub-1", FriendlyName: "Acme Wi-Fi"}
	if err := cache.UpsertPasspointSubscription(cfg); err != nil {
		t.Fatalf("UpsertPasspointSubscription: %v", err)
	}

	v := wifitrack.NewViews("")
	v.Rebuild(cache)
	subs := v.SavedSubscriptions()
	if len(subs) != 1 || subs[0].Title != "Acme Wi-Fi" {
		t.Fatalf("SavedSubscriptions() = %+v, want one entry titled Acme Wi-Fi", subs)
	}
}
