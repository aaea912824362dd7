package collector

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dgallion1/firdesk/internal/docpath"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firFields() []Field {
	return []Field{
		{Key: "meta.district", Label: "District"},
		{Key: "occurrence.infoReceivedAtPS.date", Label: "Info received at PS - Date", Kind: KindDate},
		{Key: "accused.0.name", Label: "Accused #1 Name"},
		{Key: "totalValueOfProperty", Label: "Total value", Kind: KindNumber},
	}
}

func newCollector(t *testing.T, fields []Field, tree any, opts ...Option) *Collector {
	t.Helper()
	c, err := New(fields, tree, opts...)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadKeys(t *testing.T) {
	_, err := New([]Field{{Key: "ok"}, {Key: ""}}, nil)
	assert.ErrorIs(t, err, docpath.ErrInvalidPath)

	_, err = New([]Field{{Key: "a", Kind: "colour"}}, nil)
	assert.Error(t, err)
}

func TestNew_NoFieldsIsComplete(t *testing.T) {
	c := newCollector(t, nil, nil)
	assert.Equal(t, State{Index: 0, Complete: true}, c.State())
	assert.ErrorIs(t, c.Submit("x"), ErrComplete)
}

func TestSubmit_WritesTrimmedAnswersAndCompletes(t *testing.T) {
	c := newCollector(t, firFields(), nil)

	require.NoError(t, c.Submit("  Brihanmumbai City "))
	require.NoError(t, c.Submit("2025-10-06"))
	require.NoError(t, c.Submit("Mayuresh"))
	require.NoError(t, c.Submit("1,900"))

	assert.True(t, c.State().Complete)
	want := map[string]any{
		"meta":                 map[string]any{"district": "Brihanmumbai City"},
		"occurrence":           map[string]any{"infoReceivedAtPS": map[string]any{"date": "2025-10-06"}},
		"accused":              []any{map[string]any{"name": "Mayuresh"}},
		"totalValueOfProperty": int64(1900),
	}
	if diff := cmp.Diff(want, c.Tree()); diff != "" {
		t.Errorf("tree mismatch (-want +got):\n%s", diff)
	}
}

func TestSubmitSkip_AnyMixReachesComplete(t *testing.T) {
	fields := firFields()
	for mask := 0; mask < 1<<len(fields); mask++ {
		c := newCollector(t, fields, nil)
		answers := []string{"A", "2025-01-01", "B", "5"}
		for i := range fields {
			if mask&(1<<i) != 0 {
				require.NoError(t, c.Submit(answers[i]))
			} else {
				require.NoError(t, c.Skip())
			}
		}
		assert.True(t, c.State().Complete, "mask %b", mask)
		assert.ErrorIs(t, c.Skip(), ErrComplete)
	}
}

func TestSubmit_EmptyAnswerIsNoOp(t *testing.T) {
	c := newCollector(t, firFields(), map[string]any{"meta": map[string]any{"district": "Pune"}})
	before := docpath.Clone(c.Tree())

	for _, raw := range []string{"", "   ", "\t\n"} {
		err := c.Submit(raw)
		require.ErrorIs(t, err, ErrEmptyAnswer)
		var inputErr *InputError
		require.True(t, errors.As(err, &inputErr))
		assert.Equal(t, "meta.district", inputErr.Key)
	}
	assert.Equal(t, State{Index: 0}, c.State())
	assert.Empty(t, cmp.Diff(before, c.Tree()))
}

func TestSubmit_InvalidAnswerIsNoOp(t *testing.T) {
	c := newCollector(t, firFields(), nil)
	require.NoError(t, c.Submit("Pune"))

	err := c.Submit("06/10/2025")
	assert.ErrorIs(t, err, ErrInvalidAnswer)
	assert.Equal(t, 1, c.State().Index)
	_, ok := docpath.Get(c.Tree(), "occurrence")
	assert.False(t, ok)
}

func TestSkip_KeepsDefault(t *testing.T) {
	seed := map[string]any{"meta": map[string]any{"district": "Brihanmumbai City"}}
	c := newCollector(t, firFields(), seed)

	v, ok := c.Value()
	require.True(t, ok)
	assert.Equal(t, "Brihanmumbai City", v)

	require.NoError(t, c.Skip())
	got, _ := docpath.Get(c.Tree(), "meta.district")
	assert.Equal(t, "Brihanmumbai City", got)
}

func TestBack(t *testing.T) {
	c := newCollector(t, firFields(), nil)

	c.Back()
	assert.Equal(t, 0, c.State().Index, "back at the first field is a no-op")

	require.NoError(t, c.Submit("Pune"))
	require.NoError(t, c.Skip())
	c.Back()
	assert.Equal(t, 1, c.State().Index)

	c.Back()
	f, _ := c.Current()
	assert.Equal(t, "meta.district", f.Key)
	v, _ := c.Value()
	assert.Equal(t, "Pune", v, "back never erases")

	require.NoError(t, c.Submit("Thane"))
	got, _ := docpath.Get(c.Tree(), "meta.district")
	assert.Equal(t, "Thane", got)
}

func TestBack_FromComplete(t *testing.T) {
	c := newCollector(t, firFields()[:2], nil)
	require.NoError(t, c.Skip())
	require.NoError(t, c.Skip())
	require.True(t, c.State().Complete)

	c.Back()
	assert.Equal(t, State{Index: 1}, c.State())
	f, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "occurrence.infoReceivedAtPS.date", f.Key)
}

func TestSubmit_CoercesConflictingContainer(t *testing.T) {
	c := newCollector(t, []Field{{Key: "x.y"}, {Key: "x.0"}}, nil)
	require.NoError(t, c.Submit("5"))
	require.NoError(t, c.Submit("hi"))

	got, ok := docpath.Get(c.Tree(), "x")
	require.True(t, ok)
	assert.Equal(t, []any{"hi"}, got)
	_, ok = docpath.Get(c.Tree(), "x.y")
	assert.False(t, ok)
}

func TestSubmit_StrictPathsReportConflict(t *testing.T) {
	c := newCollector(t, []Field{{Key: "x.y"}, {Key: "x.0"}}, nil, WithStrictPaths())
	require.NoError(t, c.Submit("5"))

	err := c.Submit("hi")
	require.ErrorIs(t, err, docpath.ErrPathConflict)
	assert.Equal(t, 1, c.State().Index)
	got, _ := docpath.Get(c.Tree(), "x.y")
	assert.Equal(t, "5", got)
}

func TestProgressAndFields(t *testing.T) {
	c := newCollector(t, firFields(), nil)
	require.NoError(t, c.Skip())
	done, total := c.Progress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 4, total)

	fields := c.Fields()
	fields[0].Key = "changed"
	assert.Equal(t, "meta.district", c.Fields()[0].Key)
}

func TestEdit_WritesWithoutMoving(t *testing.T) {
	c := newCollector(t, firFields(), nil)
	require.NoError(t, c.Edit("complainant.mobile", "9876543210"))
	assert.Equal(t, 0, c.State().Index)
	v, _ := docpath.Get(c.Tree(), "complainant.mobile")
	assert.Equal(t, "9876543210", v)

	assert.ErrorIs(t, c.Edit("", 1), docpath.ErrInvalidPath)

	strict := newCollector(t, firFields(), map[string]any{"accused": "none"}, WithStrictPaths())
	assert.ErrorIs(t, strict.Edit("accused.0.name", "x"), docpath.ErrPathConflict)
}

func TestSubmit_NonFiniteNumberKeepsTreeEncodable(t *testing.T) {
	c, err := New([]Field{{Key: "meta.year", Label: "Year", Kind: KindNumber}}, nil)
	require.NoError(t, err)

	for _, answer := range []string{"NaN", "Inf", "-Inf", "infinity"} {
		err := c.Submit(answer)
		assert.ErrorIs(t, err, ErrInvalidAnswer, answer)
		assert.False(t, c.Done(), answer)
	}
	_, err = json.Marshal(c.Tree())
	require.NoError(t, err)

	require.NoError(t, c.Submit("2025"))
	v, _ := docpath.Get(c.Tree(), "meta.year")
	assert.Equal(t, int64(2025), v)
}
