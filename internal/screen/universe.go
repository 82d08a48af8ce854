package screen

import (
	"sort"
	"time"

	"canslim/internal/domain"
)

// Universe answers point-in-time membership queries over dated snapshots.
// Membership between snapshot dates is carried forward from the most recent
// prior snapshot; dates before the first snapshot have no members.
type Universe struct {
	dates   []time.Time // snapshot dates, ascending
	members map[time.Time]map[string]bool
	sorted  map[time.Time][]string
}

// NewUniverse builds a Universe from date → member-symbol snapshots.
func NewUniverse(snapshots map[time.Time][]string) *Universe {
	u := &Universe{
		members: make(map[time.Time]map[string]bool, len(snapshots)),
		sorted:  make(map[time.Time][]string, len(snapshots)),
	}
	for d, syms := range snapshots {
		d = domain.Day(d)
		set := make(map[string]bool, len(syms))
		for _, s := range syms {
			set[s] = true
		}
		list := make([]string, 0, len(set))
		for s := range set {
			list = append(list, s)
		}
		sort.Strings(list)

		u.dates = append(u.dates, d)
		u.members[d] = set
		u.sorted[d] = list
	}
	sort.Slice(u.dates, func(i, j int) bool { return u.dates[i].Before(u.dates[j]) })
	return u
}

// snapshotAsOf returns the snapshot date in force at d, or false if d
// precedes every snapshot.
func (u *Universe) snapshotAsOf(d time.Time) (time.Time, bool) {
	d = domain.Day(d)
	i := sort.Search(len(u.dates), func(i int) bool { return u.dates[i].After(d) })
	if i == 0 {
		return time.Time{}, false
	}
	return u.dates[i-1], true
}

// MembersAsOf returns the sorted member symbols in force at d.
func (u *Universe) MembersAsOf(d time.Time) []string {
	snap, ok := u.snapshotAsOf(d)
	if !ok {
		return nil
	}
	return u.sorted[snap]
}

// Contains reports whether symbol is a member as of d.
func (u *Universe) Contains(symbol string, d time.Time) bool {
	snap, ok := u.snapshotAsOf(d)
	if !ok {
		return false
	}
	return u.members[snap][symbol]
}

// Len returns the number of snapshots.
func (u *Universe) Len() int {
	return len(u.dates)
}
