package constants

const (
	// DefaultCanvasSize is the width/height of a fresh session canvas.
	DefaultCanvasSize = 64

	// DefaultTimerDuration is the game clock in seconds (5 minutes).
	DefaultTimerDuration = 300.0

	// DefaultMaxPixels is the per-player pixel inventory cap.
	DefaultMaxPixels = 50

	// DefaultCooldownTime is the seconds between consecutive realtime placements.
	DefaultCooldownTime = 3.0

	// CooldownTickStep is how much a player's cooldown decays per loop tick.
	CooldownTickStep = 0.1

	// MaxTeamsPerSession bounds the team set created at session setup.
	MaxTeamsPerSession = 4

	// HomeDefensePoints and InvasionPoints are the derived scoring weights
	// for pixels inside and outside a team's home zone.
	HomeDefensePoints = 1
	InvasionPoints    = 3
)

// TeamColors is the fixed palette sessions draw their teams from.
var TeamColors = map[string]string{
	"red":    "#ff4444",
	"blue":   "#4488ff",
	"green":  "#44ff88",
	"yellow": "#ffdd44",
	"purple": "#aa44ff",
	"orange": "#ff8844",
	"pink":   "#ff44aa",
	"cyan":   "#44ffff",
}

// TeamColorOrder is the deterministic pick order for session setup.
var TeamColorOrder = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "cyan"}
