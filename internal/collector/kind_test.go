package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Accepts(t *testing.T) {
	cases := []struct {
		kind   FieldKind
		answer string
		want   any
	}{
		{KindText, "Oral", "Oral"},
		{"", "x", "x"},
		{KindProse, "My phone was snatched", "My phone was snatched"},
		{KindMobile, "call me on 9876543210 please", "9876543210"},
		{KindEmail, "it is nasir.s@example.in", "nasir.s@example.in"},
		{KindAge, "I am 34 years old", int64(34)},
		{KindNumber, "1,900", int64(1900)},
		{KindNumber, "12.5", 12.5},
		{KindDate, "2025-10-06", "2025-10-06"},
		{KindTime, "20:04", "20:04"},
	}
	for _, tc := range cases {
		got, err := tc.kind.Extract(tc.answer)
		require.NoError(t, err, "%s %q", tc.kind, tc.answer)
		assert.Equal(t, tc.want, got, "%s %q", tc.kind, tc.answer)
	}
}

func TestExtract_Rejects(t *testing.T) {
	cases := []struct {
		kind   FieldKind
		answer string
	}{
		{KindProse, "ok"},
		{KindProse, "Yes"},
		{KindProse, "ab"},
		{KindMobile, "98765"},
		{KindMobile, "yeah"},
		{KindEmail, "nasir at example"},
		{KindAge, "0"},
		{KindAge, "121"},
		{KindAge, "unknown"},
		{KindNumber, "1900 rupees"},
		{KindNumber, "NaN"},
		{KindNumber, "Inf"},
		{KindNumber, "-infinity"},
		{KindNumber, "1e400"},
		{KindDate, "06/10/2025"},
		{KindTime, "8pm"},
	}
	for _, tc := range cases {
		_, err := tc.kind.Extract(tc.answer)
		assert.ErrorIs(t, err, ErrInvalidAnswer, "%s %q", tc.kind, tc.answer)
	}
}

func TestFieldKind_Valid(t *testing.T) {
	assert.True(t, FieldKind("").Valid())
	assert.True(t, KindMobile.Valid())
	assert.False(t, FieldKind("colour").Valid())
}
