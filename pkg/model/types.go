package model

import "time"

// PowerState is a single snapshot of the device's power supply.
type PowerState struct {
	IsCharging    bool `json:"is_charging"`
	LeftInPercent int  `json:"left_in_percent"`
}

// Thresholds are the battery levels that trigger a notification.
type Thresholds struct {
	Charged int `json:"charged"`
	Low     int `json:"low"`
}

// KeyNeedsCharging is the request placeholder carrying the charging decision.
const KeyNeedsCharging = "needs_charging"

// Action tells whether a check cycle has to notify the remote controller.
type Action string

const (
	ActionNone   Action = "none"   // Charging must not be toggled
	ActionNotify Action = "notify" // Values must be sent to the remote controller
)

// Intent is the decision of a single check cycle.
type Intent struct {
	Action Action         `json:"action"`
	Values map[string]any `json:"values,omitempty"`
}

// NoAction returns the intent of a cycle that must skip the notification.
func NoAction() Intent {
	return Intent{Action: ActionNone}
}

// Notify returns an intent carrying the given placeholder values.
// A nil or empty map is a valid intent for templates without recognized placeholders.
func Notify(values map[string]any) Intent {
	if values == nil {
		values = map[string]any{}
	}
	return Intent{Action: ActionNotify, Values: values}
}

// IsNone reports whether the intent asks to skip this cycle's notification.
func (i Intent) IsNone() bool {
	return i.Action != ActionNotify
}

// Outcome classifies the result of a check cycle.
type Outcome string

const (
	OutcomeSuccess          Outcome = "success"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeRemoteRejected   Outcome = "remote_rejected"
	OutcomeNoAction         Outcome = "no_action"
	OutcomeTemplateError    Outcome = "template_error"
	OutcomeSensorError      Outcome = "sensor_error"
)

// CheckRecord describes what happened during one check cycle.
type CheckRecord struct {
	ID            string    `json:"id" db:"id"`
	Timestamp     time.Time `json:"timestamp" db:"timestamp"`
	IsCharging    bool      `json:"is_charging" db:"is_charging"`
	LeftInPercent int       `json:"left_in_percent" db:"left_in_percent"`
	Action        Action    `json:"action" db:"action"`
	Method        string    `json:"method,omitempty" db:"method"`
	URL           string    `json:"url,omitempty" db:"url"`
	Outcome       Outcome   `json:"outcome" db:"outcome"`
	StatusCode    int       `json:"status_code,omitempty" db:"status_code"`
	Detail        string    `json:"detail,omitempty" db:"detail"`
}

// HistoryPeriod defines the time window for history reports.
type HistoryPeriod string

const (
	PeriodDaily   HistoryPeriod = "daily"
	PeriodWeekly  HistoryPeriod = "weekly"
	PeriodMonthly HistoryPeriod = "monthly"
)

// HistoryFilter controls what check records are included in reports.
type HistoryFilter struct {
	Outcome   Outcome   `json:"outcome,omitempty"`
	StartTime time.Time `json:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty"`
	Limit     int       `json:"limit,omitempty"`
}

// HistorySummary holds aggregated check statistics.
type HistorySummary struct {
	TotalChecks    int64             `json:"total_checks"`
	Notifications  int64             `json:"notifications"`
	AveragePercent float64           `json:"average_percent"`
	ByOutcome      map[Outcome]int64 `json:"by_outcome,omitempty"`
	LastCheckedAt  time.Time         `json:"last_checked_at,omitempty"`
}

// PeriodBounds returns the start and end time for the current period.
func PeriodBounds(period HistoryPeriod) (start, end time.Time) {
	now := time.Now().UTC()
	switch period {
	case PeriodDaily:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	case PeriodWeekly:
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = time.Date(now.Year(), now.Month(), now.Day()-weekday+1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 7)
	case PeriodMonthly:
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 1, 0)
	default:
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		end = start.AddDate(0, 0, 1)
	}
	return start, end
}
