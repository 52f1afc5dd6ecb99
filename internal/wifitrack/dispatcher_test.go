package wifitrack_test

import (
	"testing"

	"github.com/dantte-lp/wifitracker/internal/wifitrack"
)

func TestDispatcherPostAndListen(t *testing.T) {
	d := wifitrack.NewDispatcher(nil)
	d.Post(wifitrack.Notification{Kind: wifitrack.NotifyEntriesChanged})

	select {
	case n := <-d.Listen():
		if n.Kind != wifitrack.NotifyEntriesChanged {
			t.Fatalf("n.Kind = %v, want NotifyEntriesChanged", n.Kind)
		}
	default:
		t.Fatal("no notification available after Post")
	}
}

// Testable property 5 (§8): no further listener calls are posted after
// on_stop.
func TestDispatcherStopSuppressesFurtherPosts(t *testing.T) {
	d := wifitrack.NewDispatcher(nil)
	d.Stop()
	d.Post(wifitrack.Notification{Kind: wifitrack.NotifyEntriesChanged})

	select {
	case n := <-d.Listen():
		t.Fatalf("received notification %+v after Stop, want none", n)
	default:
	}
}

func TestDispatcherDropsWhenChannelFull(t *testing.T) {
	d := wifitrack.NewDispatcher(nil)
	for i := 0; i < 1000; i++ {
		d.Post(wifitrack.Notification{Kind: wifitrack.NotifyEntriesChanged})
	}
	// Must not block or panic; excess notifications are logged and dropped.
}

func TestDispatcherStopIsIdempotent(t *testing.T) {
	d := wifitrack.NewDispatcher(nil)
	d.Stop()
	d.Stop()
}
