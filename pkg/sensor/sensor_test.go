package sensor_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
	"github.com/ogulcanaydogan/battery-guardian/pkg/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSupply(t *testing.T, root, name string, files map[string]string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for file, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content+"\n"), 0o644))
	}
}

func TestSysfs_Read(t *testing.T) {
	tests := []struct {
		name   string
		status string
		want   model.PowerState
	}{
		{"discharging", "Discharging", model.PowerState{IsCharging: false, LeftInPercent: 98}},
		{"charging", "Charging", model.PowerState{IsCharging: true, LeftInPercent: 98}},
		{"full", "Full", model.PowerState{IsCharging: true, LeftInPercent: 98}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeSupply(t, root, "BAT0", map[string]string{"capacity": "98", "status": tt.status})

			got, err := sensor.NewSysfs(root, "").Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSysfs_Read_MainsOverridesStatus(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT1", map[string]string{"capacity": "42", "status": "Not charging"})
	writeSupply(t, root, "AC", map[string]string{"type": "Mains", "online": "1"})

	got, err := sensor.NewSysfs(root, "BAT1").Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.PowerState{IsCharging: true, LeftInPercent: 42}, got)
}

func TestSysfs_Read_ClampsCapacity(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{"capacity": "104", "status": "Full"})

	got, err := sensor.NewSysfs(root, "").Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, got.LeftInPercent)
}

func TestSysfs_Read_NoBattery(t *testing.T) {
	_, err := sensor.NewSysfs(t.TempDir(), "").Read(context.Background())
	assert.True(t, errors.Is(err, sensor.ErrNoBattery))
}

func TestSysfs_Read_BadCapacity(t *testing.T) {
	root := t.TempDir()
	writeSupply(t, root, "BAT0", map[string]string{"capacity": "unknown", "status": "Full"})

	_, err := sensor.NewSysfs(root, "").Read(context.Background())
	assert.Error(t, err)
}

func TestStatic(t *testing.T) {
	state := model.PowerState{IsCharging: true, LeftInPercent: 55}
	got, err := sensor.Static(state).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, state, got)
}
