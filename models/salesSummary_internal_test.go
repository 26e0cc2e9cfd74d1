package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWeeklyBucketKey(t *testing.T) {
	// plain mid-year week
	assert.Equal(t, "2026-W35", WeeklyBucketKey(time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)))

	// ISO week-year boundary: the last days of December can belong to the
	// first week of the next year
	assert.Equal(t, "2026-W01", WeeklyBucketKey(time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC)))

	// and early January can belong to the last week of the previous year
	assert.Equal(t, "2020-W53", WeeklyBucketKey(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMonthlyBucketKey(t *testing.T) {
	assert.Equal(t, "2026-08", MonthlyBucketKey(time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, "2026-01", MonthlyBucketKey(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestSlotLabels(t *testing.T) {
	monday := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "Mon", weeklySlotLabel(monday))
	assert.Equal(t, "31", monthlySlotLabel(monday))

	sunday := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "Sun", weeklySlotLabel(sunday))
	assert.Equal(t, "30", monthlySlotLabel(sunday))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, daysInMonth(time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 28, daysInMonth(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	// leap year
	assert.Equal(t, 29, daysInMonth(time.Date(2028, 2, 10, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 30, daysInMonth(time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC)))
}

func TestVariantKey(t *testing.T) {
	assert.Equal(t, "7-M", VariantKey(7, "M"))
	assert.Equal(t, "7", VariantKey(7, ""))
}
