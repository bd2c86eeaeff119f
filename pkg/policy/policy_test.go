package policy_test

import (
	"testing"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/policy"
	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	thresholds := model.Thresholds{Charged: 90, Low: 40}

	tests := []struct {
		name     string
		state    model.PowerState
		wantNone bool
		want     bool
	}{
		{"charging below charged", model.PowerState{IsCharging: true, LeftInPercent: 1}, true, false},
		{"charging at charged", model.PowerState{IsCharging: true, LeftInPercent: 90}, true, false},
		{"charging above charged", model.PowerState{IsCharging: true, LeftInPercent: 91}, false, false},
		{"charging full", model.PowerState{IsCharging: true, LeftInPercent: 100}, false, false},
		{"discharging above low", model.PowerState{IsCharging: false, LeftInPercent: 100}, true, false},
		{"discharging at low", model.PowerState{IsCharging: false, LeftInPercent: 40}, true, false},
		{"discharging below low", model.PowerState{IsCharging: false, LeftInPercent: 39}, false, true},
		{"discharging empty", model.PowerState{IsCharging: false, LeftInPercent: 1}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := policy.Decide(tt.state, thresholds)
			if tt.wantNone {
				assert.True(t, intent.IsNone())
				assert.Empty(t, intent.Values)
				return
			}
			assert.Equal(t, model.ActionNotify, intent.Action)
			assert.Equal(t, tt.want, intent.Values[model.KeyNeedsCharging])
		})
	}
}

func TestDecide_OverlappingThresholds(t *testing.T) {
	// low > charged is accepted as is
	thresholds := model.Thresholds{Charged: 30, Low: 70}

	intent := policy.Decide(model.PowerState{IsCharging: true, LeftInPercent: 50}, thresholds)
	assert.Equal(t, false, intent.Values[model.KeyNeedsCharging])

	intent = policy.Decide(model.PowerState{IsCharging: false, LeftInPercent: 50}, thresholds)
	assert.Equal(t, true, intent.Values[model.KeyNeedsCharging])
}

func TestDecide_ExtremeThresholds(t *testing.T) {
	thresholds := model.Thresholds{Charged: 100, Low: 0}

	assert.True(t, policy.Decide(model.PowerState{IsCharging: true, LeftInPercent: 100}, thresholds).IsNone())
	assert.True(t, policy.Decide(model.PowerState{IsCharging: false, LeftInPercent: 0}, thresholds).IsNone())
}
