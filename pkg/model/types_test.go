package model_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestPeriodBounds_Daily(t *testing.T) {
	start, end := model.PeriodBounds(model.PeriodDaily)
	assert.False(t, start.IsZero())
	assert.False(t, end.IsZero())
	assert.Equal(t, 24*time.Hour, end.Sub(start))
	assert.Equal(t, 0, start.Hour())
	assert.Equal(t, 0, start.Minute())
}

func TestPeriodBounds_Weekly(t *testing.T) {
	start, end := model.PeriodBounds(model.PeriodWeekly)
	assert.False(t, start.IsZero())
	assert.Equal(t, 7*24*time.Hour, end.Sub(start))
	assert.Equal(t, time.Monday, start.Weekday())
}

func TestPeriodBounds_Monthly(t *testing.T) {
	start, end := model.PeriodBounds(model.PeriodMonthly)
	assert.False(t, start.IsZero())
	assert.Equal(t, 1, start.Day())
	assert.True(t, end.After(start))
}

func TestPeriodBounds_Default(t *testing.T) {
	start, end := model.PeriodBounds("unknown")
	assert.False(t, start.IsZero())
	assert.Equal(t, 24*time.Hour, end.Sub(start))
}

func TestIntent(t *testing.T) {
	assert.True(t, model.NoAction().IsNone())
	assert.True(t, model.Intent{}.IsNone())

	intent := model.Notify(nil)
	assert.False(t, intent.IsNone())
	assert.NotNil(t, intent.Values)
	assert.Empty(t, intent.Values)

	intent = model.Notify(map[string]any{"needs_charging": true})
	assert.Equal(t, model.ActionNotify, intent.Action)
	assert.Equal(t, true, intent.Values["needs_charging"])
}
