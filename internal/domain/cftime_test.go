package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCFTime(t *testing.T) {
	tests := []struct {
		name     string
		units    string
		values   []float64
		expected []time.Time
	}{
		{
			"hours since 1900",
			"hours since 1900-01-01 00:00:00",
			[]float64{0, 24, 24*366 + 6},
			[]time.Time{
				time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1900, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(1901, 1, 2, 6, 0, 0, 0, time.UTC),
			},
		},
		{
			"days with unpadded date",
			"days since 1984-1-1",
			[]float64{0, 31.5},
			[]time.Time{
				time.Date(1984, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(1984, 2, 1, 12, 0, 0, 0, time.UTC),
			},
		},
		{
			"seconds since epoch",
			"seconds since 1970-01-01 00:00:00",
			[]float64{3600},
			[]time.Time{time.Date(1970, 1, 1, 1, 0, 0, 0, time.UTC)},
		},
		{
			"trailing UTC word",
			"hours since 2000-01-01 00:00:00 UTC",
			[]float64{12},
			[]time.Time{time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCFTime(tt.units, tt.values)
			require.NoError(t, err)
			require.Len(t, got, len(tt.expected))
			for i := range got {
				assert.True(t, got[i].Equal(tt.expected[i]), "index %d: got %s, want %s", i, got[i], tt.expected[i])
			}
		})
	}
}

func TestParseCFTime_Errors(t *testing.T) {
	tests := []struct {
		name  string
		units string
	}{
		{"no since", "hours"},
		{"unknown unit", "fortnights since 1900-01-01"},
		{"bad reference date", "hours since someday"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCFTime(tt.units, []float64{0})
			require.Error(t, err)
		})
	}
}
