// Package policy decides whether the remote controller has to toggle charging.
package policy

import "github.com/ogulcanaydogan/battery-guardian/pkg/model"

// Decide maps the current power state to a charging intent.
//
// A charging device above thresholds.Charged must stop charging, a discharging
// device below thresholds.Low must start charging. Both comparisons are strict,
// so a level equal to a threshold never triggers. Every other state yields
// model.NoAction().
func Decide(state model.PowerState, thresholds model.Thresholds) model.Intent {
	if state.IsCharging {
		if state.LeftInPercent > thresholds.Charged {
			return needsCharging(false)
		}
		return model.NoAction()
	}

	if state.LeftInPercent < thresholds.Low {
		return needsCharging(true)
	}
	return model.NoAction()
}

func needsCharging(v bool) model.Intent {
	return model.Notify(map[string]any{model.KeyNeedsCharging: v})
}
