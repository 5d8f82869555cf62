package timex_test

import (
	"testing"
	"time"

	"github.com/aretw0/corebot/pkg/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday.
var now = time.Date(2026, time.October, 14, 15, 30, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"today", "2026-10-14"},
		{"Tomorrow", "2026-10-15"},
		{"yesterday", "2026-10-13"},
		{"friday", "2026-10-16"},
		{"next wednesday", "2026-10-21"},
		{"2027-01-02", "2027-01-02"},
		{"XXXX-12-25", "2026-12-25"},
		{"XXXX-03-01", "2027-03-01"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := timex.Parse(tc.in, now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Unrecognized(t *testing.T) {
	for _, in := range []string{"", "someday", "2026-13-40"} {
		_, err := timex.Parse(in, now)
		assert.ErrorIs(t, err, timex.ErrUnrecognized, in)
	}
}

func TestToNaturalLanguage(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2026-10-14", "today"},
		{"2026-10-15", "tomorrow"},
		{"2026-10-13", "yesterday"},
		{"2026-10-17", "next Saturday"},
		{"2026-11-01", "1st November 2026"},
		{"2026-11-22", "22nd November 2026"},
		{"2026-12-13", "13th December 2026"},
		{"garbage", "garbage"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, timex.ToNaturalLanguage(tc.in, now))
		})
	}
}

func TestIsDefinite(t *testing.T) {
	assert.True(t, timex.IsDefinite("2026-10-14"))
	assert.False(t, timex.IsDefinite("XXXX-10-14"))
}
