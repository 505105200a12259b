package freshdesk

import (
	"strconv"

	"github.com/pkg/errors"
)

// Virtual group ids: they never exist upstream and are expanded locally.
const (
	MasterGroupID       int64 = 888888888
	ConsolidatedGroupID int64 = 999999999
)

// ConsolidatedMembers are the brand groups reported together as Bounty Apparel.
var ConsolidatedMembers = []int64{
	24000009010, // Diesel
	24000009052, // Hurley
	24000009038, // Jeep
	24000009035, // Reebok
	24000009051, // Superdry
}

// DefaultGroups is the selector list used when the helpdesk cannot be asked.
var DefaultGroups = []Group{
	{ID: MasterGroupID, Name: "MASTER Executive Report"},
	{ID: 24000008969, Name: "Levi's South Africa Online"},
	{ID: 24000005392, Name: "Pick n Pay Clothing Online"},
	{ID: ConsolidatedGroupID, Name: "Bounty Apparel_Consolidated"},
	{ID: 24000009010, Name: "Diesel Online South Africa"},
	{ID: 24000009052, Name: "Hurley Online South Africa"},
	{ID: 24000009038, Name: "Jeep Apparel Online South Africa"},
	{ID: 24000009035, Name: "Reebok Online South Africa"},
	{ID: 24000009051, Name: "Superdry Online South Africa"},
}

var ErrBadScope = errors.New("scope must be 25, 50, 75 or all")

// ParseScope maps a ticket scope onto a page size. "" keeps the default page,
// "all" is the largest page the helpdesk serves.
func ParseScope(s string) (int, error) {
	switch s {
	case "":
		return defaultPerPage, nil
	case "25", "50", "75":
		n, _ := strconv.Atoi(s)
		return n, nil
	case "all":
		return maxPerPage, nil
	}
	return 0, errors.Wrapf(ErrBadScope, "got %q", s)
}

// GroupMembers returns the upstream group ids a selection covers; nil means
// every group (MASTER).
func GroupMembers(id int64) []int64 {
	switch id {
	case MasterGroupID:
		return nil
	case ConsolidatedGroupID:
		return ConsolidatedMembers
	}
	return []int64{id}
}

// FilterByGroup keeps tickets assigned to one of the selection's groups.
// Unassigned tickets only survive the MASTER view.
func FilterByGroup(ts []Ticket, id int64) []Ticket {
	members := GroupMembers(id)
	if members == nil {
		return ts
	}
	set := make(map[int64]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	out := make([]Ticket, 0, len(ts))
	for _, t := range ts {
		if t.GroupID == nil {
			continue
		}
		if _, ok := set[*t.GroupID]; ok {
			out = append(out, t)
		}
	}
	return out
}

// withVirtualGroups puts MASTER and the consolidated entry in front of the
// upstream groups.
func withVirtualGroups(upstream []Group) []Group {
	out := make([]Group, 0, len(upstream)+2)
	out = append(out, DefaultGroups[0], DefaultGroups[3])
	for _, g := range upstream {
		if g.ID == MasterGroupID || g.ID == ConsolidatedGroupID {
			continue
		}
		out = append(out, g)
	}
	return out
}
