package internal

import "sort"

// ByLastSeen implements the comparator interface and sorts sighting records
// from the most to the least recently seen. Ties are broken by callsign so
// that tables don't jump around.
type ByLastSeen []SightingRecord

func (a ByLastSeen) Len() int { return len(a) }
func (a ByLastSeen) Less(i, j int) bool {
	if a[i].LastSeen.Equal(a[j].LastSeen) {
		return a[i].Callsign < a[j].Callsign
	}
	return a[i].LastSeen.After(a[j].LastSeen)
}
func (a ByLastSeen) Swap(i, j int) { a[i], a[j] = a[j], a[i] }

// SortByLastSeen sorts records in place, most recent first.
func SortByLastSeen(records []SightingRecord) {
	sort.Sort(ByLastSeen(records))
}
