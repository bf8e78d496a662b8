package query

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type owner struct {
	id    int
	name  string
	props []string
}

func ownerName(o owner) string { return o.name }

func names(os []owner) []string {
	out := make([]string, 0, len(os))
	for _, o := range os {
		out = append(out, o.name)
	}
	return out
}

func TestRunSortsByName(t *testing.T) {
	records := []owner{{id: 1, name: "Zoe"}, {id: 2, name: "Amy"}}
	got := Run(records, Spec[owner]{Sort: By(ownerName)})
	assert.Equal(t, []string{"Amy", "Zoe"}, names(got))
	assert.Equal(t, "Zoe", records[0].name, "input must not be reordered")
}

func TestRunCaseInsensitiveSearch(t *testing.T) {
	records := []owner{{id: 1, name: "Casa Moderna"}, {id: 2, name: "Loft"}}
	for _, text := range []string{"MODERNA", "moderna", "Moderna"} {
		got := Run(records, Spec[owner]{SearchText: text, SearchFields: []Extractor[owner]{Field(ownerName)}})
		assert.Equal(t, []string{"Casa Moderna"}, names(got), text)
	}
}

func TestRunSearchesNestedFields(t *testing.T) {
	records := []owner{
		{id: 1, name: "Ana", props: []string{"Beach house", "Downtown flat"}},
		{id: 2, name: "Luis", props: []string{"Farm"}},
	}
	spec := Spec[owner]{
		SearchText: "downtown",
		SearchFields: []Extractor[owner]{
			Field(ownerName),
			Fields(func(o owner) []string { return o.props }),
		},
	}
	assert.Equal(t, []string{"Ana"}, names(Run(records, spec)))
}

func TestRunEmptySearchKeepsFilteredRecords(t *testing.T) {
	records := []owner{{id: 1, name: "a"}, {id: 2, name: "b"}, {id: 3, name: "c"}}
	spec := Spec[owner]{
		SearchFields: []Extractor[owner]{Field(ownerName)},
		Filter:       func(o owner) bool { return o.id != 2 },
	}
	assert.Equal(t, []string{"a", "c"}, names(Run(records, spec)))
}

func TestRunStableForEqualKeys(t *testing.T) {
	records := []owner{
		{id: 1, name: "first", props: []string{"x"}},
		{id: 2, name: "second", props: []string{"x", "y"}},
		{id: 3, name: "third", props: []string{"z"}},
		{id: 4, name: "fourth", props: []string{"w", "v"}},
	}
	count := By(func(o owner) int { return len(o.props) })
	asc := Run(records, Spec[owner]{Sort: count})
	assert.Equal(t, []string{"first", "third", "second", "fourth"}, names(asc))
	desc := Run(records, Spec[owner]{Sort: count, Direction: Descending})
	assert.Equal(t, []string{"second", "fourth", "first", "third"}, names(desc))
}

func TestRunIsDeterministicAndIdempotent(t *testing.T) {
	var records []owner
	for i := 0; i < 50; i++ {
		records = append(records, owner{id: i, name: fmt.Sprintf("owner-%d", i%7)})
	}
	spec := Spec[owner]{
		SearchText:   "OWNER-",
		SearchFields: []Extractor[owner]{Field(ownerName)},
		Filter:       func(o owner) bool { return o.id%3 != 0 },
		Sort:         ByFold(ownerName),
		Direction:    Descending,
	}
	first := Run(records, spec)
	assert.Equal(t, first, Run(records, spec))
	assert.Equal(t, first, Run(first, spec))
}

func TestRunEmptyInput(t *testing.T) {
	got := Run[owner](nil, Spec[owner]{SearchText: "x"})
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRunPropagatesExtractorPanics(t *testing.T) {
	spec := Spec[owner]{
		SearchText:   "x",
		SearchFields: []Extractor[owner]{func(owner) []string { panic("boom") }},
	}
	assert.PanicsWithValue(t, "boom", func() { Run([]owner{{name: "a"}}, spec) })
}

func TestThenBreaksTies(t *testing.T) {
	records := []owner{{id: 2, name: "b"}, {id: 1, name: "b"}, {id: 3, name: "a"}}
	sort := Then(By(ownerName), By(func(o owner) int { return o.id }))
	got := Run(records, Spec[owner]{Sort: sort})
	assert.Equal(t, []int{3, 1, 2}, []int{got[0].id, got[1].id, got[2].id})
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Descending, ParseDirection("DESC"))
	assert.Equal(t, Ascending, ParseDirection(""))
	assert.Equal(t, "desc", Descending.String())
}
