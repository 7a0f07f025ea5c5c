package domain

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// VariationChoice is the customer's pick for one product variation group.
type VariationChoice struct {
	VariationID uuid.UUID `json:"variation_id"`
	OptionID    uuid.UUID `json:"option_id"`
}

// AddOnChoice is the customer's picks within one add-on group.
type AddOnChoice struct {
	AddOnID   uuid.UUID   `json:"add_on_id"`
	OptionIDs []uuid.UUID `json:"option_ids"`
}

// SelectionSet is the full customization of one cart line. Two lines with
// the same item and an equal canonical selection are the same line.
type SelectionSet struct {
	Variations []VariationChoice `json:"variations,omitempty"`
	AddOns     []AddOnChoice     `json:"add_ons,omitempty"`
}

// IsEmpty reports whether no customization was chosen.
func (s SelectionSet) IsEmpty() bool {
	return len(s.Variations) == 0 && len(s.AddOns) == 0
}

// Canonical returns a copy with deterministic ordering: variations sorted
// by variation ID, add-on groups by add-on ID, option lists sorted within
// each group.
func (s SelectionSet) Canonical() SelectionSet {
	out := SelectionSet{}
	if len(s.Variations) > 0 {
		out.Variations = make([]VariationChoice, len(s.Variations))
		copy(out.Variations, s.Variations)
		sort.Slice(out.Variations, func(i, j int) bool {
			return out.Variations[i].VariationID.String() < out.Variations[j].VariationID.String()
		})
	}
	if len(s.AddOns) > 0 {
		out.AddOns = make([]AddOnChoice, len(s.AddOns))
		for i, g := range s.AddOns {
			ids := make([]uuid.UUID, len(g.OptionIDs))
			copy(ids, g.OptionIDs)
			sort.Slice(ids, func(a, b int) bool { return ids[a].String() < ids[b].String() })
			out.AddOns[i] = AddOnChoice{AddOnID: g.AddOnID, OptionIDs: ids}
		}
		sort.Slice(out.AddOns, func(i, j int) bool {
			return out.AddOns[i].AddOnID.String() < out.AddOns[j].AddOnID.String()
		})
	}
	return out
}

// Signature returns a deterministic string over the canonical selection,
// used to match lines for quantity merging.
func (s SelectionSet) Signature() string {
	c := s.Canonical()
	var sb strings.Builder
	sb.WriteString("v:")
	for _, v := range c.Variations {
		sb.WriteString(v.VariationID.String())
		sb.WriteString("=")
		sb.WriteString(v.OptionID.String())
		sb.WriteString(";")
	}
	sb.WriteString("a:")
	for _, g := range c.AddOns {
		sb.WriteString(g.AddOnID.String())
		sb.WriteString("=")
		for i, id := range g.OptionIDs {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(id.String())
		}
		sb.WriteString(";")
	}
	return sb.String()
}

// VariationOptionIDs returns every chosen variation option ID.
func (s SelectionSet) VariationOptionIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.Variations))
	for _, v := range s.Variations {
		ids = append(ids, v.OptionID)
	}
	return ids
}

// AddOnOptionIDs returns every chosen add-on option ID across groups.
func (s SelectionSet) AddOnOptionIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, g := range s.AddOns {
		ids = append(ids, g.OptionIDs...)
	}
	return ids
}
