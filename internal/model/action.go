package model

// Action is a human-friendly battery operating mode for a snapshot.
// Keep these values stable; they are intended for CSV output.
type Action string

const (
	ActionCharging    Action = "CHARGING"
	ActionIdle        Action = "IDLE"
	ActionDischarging Action = "DISCHARGING"
)

// actionTolerance absorbs solver round-off around zero flows.
const actionTolerance = 1e-6

// ActionFromFlows classifies a snapshot from its charge and discharge power.
// When both flows are non-zero the larger one wins.
func ActionFromFlows(storeMW, dispatchMW float64) Action {
	net := dispatchMW - storeMW
	switch {
	case net < -actionTolerance:
		return ActionCharging
	case net > actionTolerance:
		return ActionDischarging
	default:
		return ActionIdle
	}
}
