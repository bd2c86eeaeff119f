package guardian_test

import (
	"testing"
	"time"

	"github.com/ogulcanaydogan/battery-guardian/pkg/guardian"
	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `!BatteryGuardian
battery_limit_config:
  charged: 90
  low: 40
check_config:
  check_interval: 60
remote_request_config:
  remote_address: http://host/
  request_data_mapping:
    needs_charging:
      false: 0
      true: 1
  request_method: GET
  request_template: /power/{needs_charging}
`

func newTestSettings(t *testing.T) *guardian.Settings {
	t.Helper()
	doc, err := guardian.ParseDocument([]byte(testConfig))
	require.NoError(t, err)
	s, err := guardian.FromDocument(doc, nil)
	require.NoError(t, err)
	return s
}

func TestSettings_Limits(t *testing.T) {
	s := newTestSettings(t)

	for _, v := range []int{0, 1, 50, 99, 100} {
		require.NoError(t, s.SetChargedLimit(v))
		require.NoError(t, s.SetLowLimit(v))
		assert.Equal(t, model.Thresholds{Charged: v, Low: v}, s.Thresholds())
	}

	for _, v := range []int{-1, 101, 1000} {
		var verr *guardian.ValidationError
		require.ErrorAs(t, s.SetChargedLimit(v), &verr)
		assert.Equal(t, "battery_limit_charged", verr.Field)
		assert.Equal(t, v, verr.Value)

		require.ErrorAs(t, s.SetLowLimit(v), &verr)
		assert.Equal(t, "battery_limit_low", verr.Field)
	}

	// rejected values leave the previous ones in place
	assert.Equal(t, model.Thresholds{Charged: 100, Low: 100}, s.Thresholds())
}

func TestSettings_LowAboveChargedAccepted(t *testing.T) {
	s := newTestSettings(t)
	require.NoError(t, s.SetChargedLimit(20))
	require.NoError(t, s.SetLowLimit(80))
	assert.Equal(t, model.Thresholds{Charged: 20, Low: 80}, s.Thresholds())
}

func TestSettings_CheckInterval(t *testing.T) {
	s := newTestSettings(t)
	assert.Equal(t, time.Minute, s.CheckInterval())

	require.NoError(t, s.SetCheckInterval(1))
	assert.Equal(t, time.Second, s.CheckInterval())
	assert.Equal(t, 1, s.CheckIntervalSeconds())

	var verr *guardian.ValidationError
	assert.ErrorAs(t, s.SetCheckInterval(0), &verr)
	assert.ErrorAs(t, s.SetCheckInterval(-5), &verr)
	assert.Equal(t, 1, s.CheckIntervalSeconds())
}

func TestSettings_RemoteAddress(t *testing.T) {
	s := newTestSettings(t)
	assert.Equal(t, "http://host", s.Target().Address)

	require.NoError(t, s.SetRemoteAddress("http://plug.local:8080///"))
	assert.Equal(t, "http://plug.local:8080", s.Target().Address)

	var verr *guardian.ValidationError
	assert.ErrorAs(t, s.SetRemoteAddress("  "), &verr)
}

func TestSettings_RequestTemplate(t *testing.T) {
	s := newTestSettings(t)
	assert.Equal(t, []string{model.KeyNeedsCharging}, s.RequestKeys())

	require.NoError(t, s.SetRequestTemplate("/status/{device}"))
	assert.Empty(t, s.RequestKeys())
	assert.Equal(t, "/status/{device}", s.Target().Template)
}

func TestSettings_RequestMethod(t *testing.T) {
	s := newTestSettings(t)
	require.NoError(t, s.SetRequestMethod("POST"))
	assert.Equal(t, "POST", s.Target().Method)

	var verr *guardian.ValidationError
	assert.ErrorAs(t, s.SetRequestMethod(""), &verr)
	assert.ErrorAs(t, s.SetRequestMethod("GET /"), &verr)
	assert.Equal(t, "POST", s.Target().Method)
}

func TestSettings_TargetIsCopy(t *testing.T) {
	s := newTestSettings(t)

	target := s.Target()
	target.Mapping[model.KeyNeedsCharging][false] = "off"

	assert.Equal(t, 0, s.Target().Mapping[model.KeyNeedsCharging][false])
}

func TestSettings_RequestDataMapping(t *testing.T) {
	s := newTestSettings(t)

	require.NoError(t, s.SetRequestDataMapping(request.ValueMapping{
		model.KeyNeedsCharging: {true: "ON", false: "OFF"},
	}))
	assert.Equal(t, "ON", s.Target().Mapping[model.KeyNeedsCharging][true])

	require.NoError(t, s.SetRequestDataMapping(nil))
	assert.NotNil(t, s.Target().Mapping)
	assert.Empty(t, s.Target().Mapping)
}

func TestValidationError_Message(t *testing.T) {
	err := &guardian.ValidationError{Field: "battery_limit_low", Value: 101, Reason: "must be between 0 and 100"}
	assert.Equal(t, "the provided value (101) for battery_limit_low is invalid: must be between 0 and 100", err.Error())
}
