package wifitrack

import (
	"sort"
	"sync"
)

// EntryView is the read-only shape handed to consumers — a defensive
// copy of the fields a UI needs, never the live *Entry.
type EntryView struct {
	Key            string
	Title          string
	Level          int
	ConnectedState ConnectedState
	Saved          bool
	Kind           Kind
}

func toView(e *Entry) EntryView {
	return EntryView{
		Key:            e.Key(),
		Title:          e.Title(),
		Level:          e.Level(),
		ConnectedState: e.ConnectedState(),
		Saved:          e.Saved(),
		Kind:           e.Kind(),
	}
}

// sortPickerOrder applies the frozen §9 order (-level, title): higher
// level first, ties broken by title ascending.
func sortPickerOrder(views []EntryView) {
	sort.Slice(views, func(i, j int) bool {
		if views[i].Level != views[j].Level {
			return views[i].Level > views[j].Level
		}
		return views[i].Title < views[j].Title
	})
}

// Views materializes the four read-only projections over an EntryCache,
// each rebuilt under view_lock on every reconciliation pass and exposed
// to consumers only as copied slices (Manager.Sessions()'s
// defensive-copy contract, reused here for arbitrary-thread readers).
type Views struct {
	mu sync.RWMutex

	picker             []EntryView
	savedNetworks      []EntryView
	savedSubscriptions []EntryView

	detailsKey string
	details    *EntryView
}

// NewViews constructs an empty Views set. detailsKey may be empty if no
// Details view is wanted.
func NewViews(detailsKey string) *Views {
	return &Views{detailsKey: detailsKey}
}

// Rebuild recomputes all four projections from the current contents of
// cache. Called once per reconciliation pass, as the final step of the
// canonical ordering (§4.E).
func (v *Views) Rebuild(cache *EntryCache) {
	standard, passpoint, osu := cache.snapshot()

	picker := buildPicker(standard, passpoint, osu)
	saved := buildSavedNetworks(standard)
	subs := buildSavedSubscriptions(passpoint)

	v.mu.Lock()
	defer v.mu.Unlock()

	v.picker = picker
	v.savedNetworks = saved
	v.savedSubscriptions = subs

	if v.detailsKey != "" {
		if e, ok := cache.Get(v.detailsKey); ok {
			view := toView(e)
			v.details = &view
		} else {
			v.details = nil
		}
	}
}

// buildPicker implements the Picker view: the connected entry (if any)
// plus all other Disconnected entries, sorted by (-level, title).
// "Suggested (user-shareable) standard entries supersede unsaved
// standard entries of the same key" — since this module holds at most
// one Entry per key (invariant 2), superseding is already enforced by
// construction; this function documents that contract rather than
// re-implementing it.
// Every entry's connected_state is one of {Disconnected, Connecting,
// Connected} — "the connected entry (if any) plus all other entries
// with connected_state = Disconnected" therefore covers every cached
// entry. An entry's absence from the Picker is decided entirely by
// entrycache.go's eviction rules (saved/unreachable/not-active), not by
// this view.
func buildPicker(standard, passpoint, osu []*Entry) []EntryView {
	out := make([]EntryView, 0, len(standard)+len(passpoint)+len(osu))
	for _, e := range standard {
		out = append(out, toView(e))
	}
	for _, e := range passpoint {
		out = append(out, toView(e))
	}
	for _, e := range osu {
		out = append(out, toView(e))
	}
	sortPickerOrder(out)
	return out
}

// buildSavedNetworks implements the Saved Networks view: all Standard
// entries with saved = true.
func buildSavedNetworks(standard []*Entry) []EntryView {
	out := make([]EntryView, 0, len(standard))
	for _, e := range standard {
		if e.Saved() {
			out = append(out, toView(e))
		}
	}
	sortPickerOrder(out)
	return out
}

// buildSavedSubscriptions implements the Saved Subscriptions view: all
// Passpoint entries currently tracked.
func buildSavedSubscriptions(passpoint []*Entry) []EntryView {
	out := make([]EntryView, 0, len(passpoint))
	for _, e := range passpoint {
		out = append(out, toView(e))
	}
	sortPickerOrder(out)
	return out
}

// Picker returns a defensive copy of the Picker view.
func (v *Views) Picker() []EntryView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]EntryView(nil), v.picker...)
}

// SavedNetworks returns a defensive copy of the Saved Networks view.
func (v *Views) SavedNetworks() []EntryView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]EntryView(nil), v.savedNetworks...)
}

// SavedSubscriptions returns a defensive copy of the Saved Subscriptions
// view.
func (v *Views) SavedSubscriptions() []EntryView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]EntryView(nil), v.savedSubscriptions...)
}

// Details returns the single entry this view was constructed to track,
// or nil if it is not currently in the cache.
func (v *Views) Details() *EntryView {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.details == nil {
		return nil
	}
	cp := *v.details
	return &cp
}
