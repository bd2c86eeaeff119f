// Package sensor reads the power supply state of the local device.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ogulcanaydogan/battery-guardian/pkg/model"
)

// DefaultSysfsPath is where Linux exposes power supplies.
const DefaultSysfsPath = "/sys/class/power_supply"

// ErrNoBattery is returned when no battery can be found under the sysfs root.
var ErrNoBattery = errors.New("sensor: no battery found")

// Provider returns the current power state.
type Provider interface {
	Read(ctx context.Context) (model.PowerState, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context) (model.PowerState, error)

func (f ProviderFunc) Read(ctx context.Context) (model.PowerState, error) { return f(ctx) }

// Static always returns the same state.
type Static model.PowerState

func (s Static) Read(context.Context) (model.PowerState, error) { return model.PowerState(s), nil }

// Sysfs reads {root}/{battery}/capacity and {root}/{battery}/status.
type Sysfs struct {
	root    string
	battery string
}

// NewSysfs creates a sysfs reader. An empty battery name picks the first BAT* entry.
func NewSysfs(root, battery string) *Sysfs {
	if root == "" {
		root = DefaultSysfsPath
	}
	return &Sysfs{root: root, battery: battery}
}

func (s *Sysfs) Read(ctx context.Context) (model.PowerState, error) {
	if err := ctx.Err(); err != nil {
		return model.PowerState{}, err
	}

	dir, err := s.batteryDir()
	if err != nil {
		return model.PowerState{}, err
	}

	raw, err := readTrimmed(filepath.Join(dir, "capacity"))
	if err != nil {
		return model.PowerState{}, fmt.Errorf("read capacity: %w", err)
	}
	percent, err := strconv.Atoi(raw)
	if err != nil {
		return model.PowerState{}, fmt.Errorf("parse capacity %q: %w", raw, err)
	}

	// If the battery controller does not work as expected.
	percent = max(0, min(percent, 100))

	charging, err := s.isCharging(dir)
	if err != nil {
		return model.PowerState{}, err
	}

	return model.PowerState{IsCharging: charging, LeftInPercent: percent}, nil
}

// isCharging reports whether the device is plugged in. The Mains online flag
// wins over the battery status.
func (s *Sysfs) isCharging(batteryDir string) (bool, error) {
	if online, ok := s.mainsOnline(); ok {
		return online, nil
	}

	status, err := readTrimmed(filepath.Join(batteryDir, "status"))
	if err != nil {
		return false, fmt.Errorf("read status: %w", err)
	}
	switch strings.ToLower(status) {
	case "charging", "full":
		return true, nil
	default:
		return false, nil
	}
}

// mainsOnline reads the online flag of the first Mains supply, if any.
func (s *Sysfs) mainsOnline() (bool, bool) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return false, false
	}
	for _, entry := range entries {
		dir := filepath.Join(s.root, entry.Name())
		kind, err := readTrimmed(filepath.Join(dir, "type"))
		if err != nil || kind != "Mains" {
			continue
		}
		online, err := readTrimmed(filepath.Join(dir, "online"))
		if err != nil {
			continue
		}
		return online == "1", true
	}
	return false, false
}

func (s *Sysfs) batteryDir() (string, error) {
	if s.battery != "" {
		return filepath.Join(s.root, s.battery), nil
	}

	pattern := filepath.Join(s.root, "BAT*")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w under %s", ErrNoBattery, s.root)
	}
	sort.Strings(matches)
	return matches[0], nil
}

func readTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
