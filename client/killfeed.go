package client

// KillFeedEntry is one line of the local, non-authoritative kill feed
type KillFeedEntry struct {
	Killer string
	Victim string
}

// KillFeed keeps the most recent entries, evicting the oldest. Each
// client rebuilds its own feed from the kill notifications it happens to
// receive; there is no shared canonical feed.
type KillFeed struct {
	max     int
	entries []KillFeedEntry
}

// NewKillFeed creates a feed holding at most max entries
func NewKillFeed(max int) *KillFeed {
	return &KillFeed{max: max}
}

// Push appends an entry, evicting the oldest when full
func (f *KillFeed) Push(e KillFeedEntry) {
	f.entries = append(f.entries, e)
	if len(f.entries) > f.max {
		f.entries = f.entries[len(f.entries)-f.max:]
	}
}

// Entries returns a copy, newest last
func (f *KillFeed) Entries() []KillFeedEntry {
	out := make([]KillFeedEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the number of entries
func (f *KillFeed) Len() int {
	return len(f.entries)
}
