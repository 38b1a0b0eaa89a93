package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTrainingDateExcelSerial(t *testing.T) {
	// 43831 is 2020-01-01 in the 1900 date system.
	got, err := NormalizeTrainingDate("43831")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestNormalizeTrainingDateStrings(t *testing.T) {
	cases := map[string]string{
		"2024-01-10":       "2024-01-10",
		"2024/01/10":       "2024-01-10",
		"13-12-2025":       "2025-12-13",
		"January 10, 2024": "2024-01-10",
		" 2024-01-10 ":     "2024-01-10",
	}

	for input, want := range cases {
		got, err := NormalizeTrainingDate(input)
		require.NoError(t, err, "input %q", input)
		assert.Equal(t, want, FormatDate(got), "input %q", input)
	}
}

func TestNormalizeTrainingDateRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date", "0", "-5"} {
		_, err := NormalizeTrainingDate(input)
		assert.Error(t, err, "input %q", input)
	}
}
