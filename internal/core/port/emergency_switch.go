package port

import "context"

// EmergencySwitch toggles the emergency mode of the heater through its web
// interface and reports the state the device answered with.
type EmergencySwitch interface {
	SetEmergencyMode(ctx context.Context, enable bool) (bool, error)
}
