package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

var (
	varSize  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	optLarge = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	grpTops  = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	optOlive = uuid.MustParse("44444444-4444-4444-4444-444444444444")
	optFeta  = uuid.MustParse("55555555-5555-5555-5555-555555555555")
)

func TestSignatureOrderIndependent(t *testing.T) {
	a := SelectionSet{
		Variations: []VariationChoice{{VariationID: varSize, OptionID: optLarge}},
		AddOns:     []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optOlive, optFeta}}},
	}
	b := SelectionSet{
		AddOns:     []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optFeta, optOlive}}},
		Variations: []VariationChoice{{VariationID: varSize, OptionID: optLarge}},
	}
	assert.Equal(t, a.Signature(), b.Signature())
}

func TestSignatureDistinguishesSelections(t *testing.T) {
	with := SelectionSet{
		AddOns: []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optOlive}}},
	}
	without := SelectionSet{}
	assert.NotEqual(t, with.Signature(), without.Signature())

	other := SelectionSet{
		AddOns: []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optFeta}}},
	}
	assert.NotEqual(t, with.Signature(), other.Signature())
}

func TestCanonicalDoesNotMutate(t *testing.T) {
	s := SelectionSet{
		AddOns: []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optFeta, optOlive}}},
	}
	_ = s.Canonical()
	assert.Equal(t, optFeta, s.AddOns[0].OptionIDs[0])
}

func TestOptionIDAccessors(t *testing.T) {
	s := SelectionSet{
		Variations: []VariationChoice{{VariationID: varSize, OptionID: optLarge}},
		AddOns:     []AddOnChoice{{AddOnID: grpTops, OptionIDs: []uuid.UUID{optOlive, optFeta}}},
	}
	assert.Equal(t, []uuid.UUID{optLarge}, s.VariationOptionIDs())
	assert.Len(t, s.AddOnOptionIDs(), 2)
	assert.False(t, s.IsEmpty())
	assert.True(t, SelectionSet{}.IsEmpty())
}
