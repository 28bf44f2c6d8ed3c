package types

import (
	"time"

	"github.com/rinooks/pixel-war/pkg/game/constants"
)

// PlaceOutcome is the result of a placement or refill attempt. Denied
// attempts mutate nothing; callers translate the outcome into feedback.
type PlaceOutcome int

const (
	PlaceOK PlaceOutcome = iota
	PlaceRejectedInventory
	PlaceRejectedCooldown
	PlaceRejectedUnknownPlayer
	PlaceRejectedOutOfBounds
)

func (o PlaceOutcome) String() string {
	switch o {
	case PlaceOK:
		return "ok"
	case PlaceRejectedInventory:
		return "insufficient-inventory"
	case PlaceRejectedCooldown:
		return "on-cooldown"
	case PlaceRejectedUnknownPlayer:
		return "unknown-player"
	case PlaceRejectedOutOfBounds:
		return "out-of-bounds"
	default:
		return "unknown"
	}
}

// Accepted reports whether the attempt mutated state.
func (o PlaceOutcome) Accepted() bool {
	return o == PlaceOK
}

// SessionState is the single source of truth for one game session. All
// mutation goes through the action methods below, and every action is
// invoked from the session manager's loop goroutine, so there is no
// locking here.
type SessionState struct {
	ID   string
	Name string

	GameMode   GameMode
	RenderMode RenderMode
	CanvasSize int

	TimerDuration  float64
	TimerRemaining float64
	Status         GameStatus

	Pixels        map[Coord]*Pixel
	PendingPixels map[Coord]*Pixel

	Teams   []*Team
	Players map[string]*PlayerState

	MaxPixels    int
	CooldownTime float64

	Scores map[string]int

	CurrentMission *Mission
	MissionGuide   map[Coord]string

	ActiveEvent     *GameEvent
	EventMultiplier float64

	CreatedAt time.Time
}

// NewSessionState creates a session with default settings.
func NewSessionState(id, name string) *SessionState {
	return &SessionState{
		ID:              id,
		Name:            name,
		GameMode:        GameModeTeam,
		RenderMode:      RenderModeRealtime,
		CanvasSize:      constants.DefaultCanvasSize,
		TimerDuration:   constants.DefaultTimerDuration,
		TimerRemaining:  constants.DefaultTimerDuration,
		Status:          GameStatusWaiting,
		Pixels:          make(map[Coord]*Pixel),
		PendingPixels:   make(map[Coord]*Pixel),
		Players:         make(map[string]*PlayerState),
		MaxPixels:       constants.DefaultMaxPixels,
		CooldownTime:    constants.DefaultCooldownTime,
		Scores:          make(map[string]int),
		EventMultiplier: 1,
		CreatedAt:       time.Now(),
	}
}

// PlacePixel attempts a realtime placement for playerID at (x,y). It is
// denied when the player has no inventory or an active cooldown. On success
// the pixel at the coordinate is overwritten unconditionally (invading an
// opponent's cell is the point), inventory drops by one, and the player's
// cooldown is armed. Bounds are validated by the caller, not here.
func (s *SessionState) PlacePixel(x, y int, color, playerID string) PlaceOutcome {
	player, ok := s.Players[playerID]
	if !ok {
		return PlaceRejectedUnknownPlayer
	}
	if player.Inventory <= 0 {
		return PlaceRejectedInventory
	}
	if player.Cooldown > 0 {
		return PlaceRejectedCooldown
	}

	s.Pixels[Coord{X: x, Y: y}] = &Pixel{
		Color:    color,
		PlayerID: playerID,
		TeamID:   player.TeamID,
		PlacedAt: time.Now(),
	}
	player.Inventory--
	player.Cooldown = s.CooldownTime
	player.PixelsPlaced++

	return PlaceOK
}

// AddPendingPixel stores a deferred placement for batch/sync_cycle render
// modes. It gates on inventory but, unlike PlacePixel, not on cooldown.
func (s *SessionState) AddPendingPixel(x, y int, color, playerID string) PlaceOutcome {
	player, ok := s.Players[playerID]
	if !ok {
		return PlaceRejectedUnknownPlayer
	}
	if player.Inventory <= 0 {
		return PlaceRejectedInventory
	}

	s.PendingPixels[Coord{X: x, Y: y}] = &Pixel{
		Color:    color,
		PlayerID: playerID,
		TeamID:   player.TeamID,
		PlacedAt: time.Now(),
	}
	player.Inventory--
	player.PixelsPlaced++

	return PlaceOK
}

// CommitPendingPixels merges the entire pending map into the committed map
// in one step, overwriting any coordinate collisions, and clears pending.
// Validation happened at AddPendingPixel time; none is repeated here. The
// committed batch is returned for persistence.
func (s *SessionState) CommitPendingPixels() map[Coord]*Pixel {
	committed := s.PendingPixels
	for coord, pixel := range committed {
		s.Pixels[coord] = pixel
	}
	s.PendingPixels = make(map[Coord]*Pixel)
	return committed
}

// ClearPendingPixels discards the pending map without committing it.
func (s *SessionState) ClearPendingPixels() {
	s.PendingPixels = make(map[Coord]*Pixel)
}

// DecrementCooldowns decays every player's cooldown by step, floored at zero.
// Invoked once per loop tick while the session is playing.
func (s *SessionState) DecrementCooldowns(step float64) {
	for _, player := range s.Players {
		if player.Cooldown <= 0 {
			continue
		}
		player.Cooldown -= step
		if player.Cooldown < 0 {
			player.Cooldown = 0
		}
	}
}

// RefillPixels adds amount to the player's inventory, capped at MaxPixels.
func (s *SessionState) RefillPixels(playerID string, amount int) PlaceOutcome {
	player, ok := s.Players[playerID]
	if !ok {
		return PlaceRejectedUnknownPlayer
	}
	player.Inventory += amount
	if player.Inventory > s.MaxPixels {
		player.Inventory = s.MaxPixels
	}
	return PlaceOK
}

// RefillAllPixels refills every active player's inventory.
func (s *SessionState) RefillAllPixels(amount int) {
	for id := range s.Players {
		s.RefillPixels(id, amount)
	}
}

// Timer phase transitions. These are deliberately unguarded: pausing an
// already ended game is accepted, matching the permissive original design.

func (s *SessionState) StartTimer() {
	s.Status = GameStatusPlaying
}

func (s *SessionState) PauseTimer() {
	s.Status = GameStatusPaused
}

// ResetTimer returns the clock to full duration and the phase to waiting,
// from any prior phase including ended.
func (s *SessionState) ResetTimer() {
	s.TimerRemaining = s.TimerDuration
	s.Status = GameStatusWaiting
}

func (s *SessionState) EndGame() {
	s.Status = GameStatusEnded
}

// SetTimerDuration sets the clock duration and rewinds the remaining time.
func (s *SessionState) SetTimerDuration(seconds float64) {
	s.TimerDuration = seconds
	s.TimerRemaining = seconds
}

// TickTimer advances the game clock by delta seconds while playing and
// reports whether the clock just hit zero (the caller ends the game).
func (s *SessionState) TickTimer(delta float64) bool {
	if s.Status != GameStatusPlaying {
		return false
	}
	s.TimerRemaining -= delta
	if s.TimerRemaining <= 0 {
		s.TimerRemaining = 0
		return true
	}
	return false
}

// SetActiveEvent fills the single active-event slot. Expiry is the
// session loop's responsibility, not scheduled here.
func (s *SessionState) SetActiveEvent(event *GameEvent) {
	s.ActiveEvent = event
	if event != nil && event.Multiplier > 0 {
		s.EventMultiplier = event.Multiplier
	} else {
		s.EventMultiplier = 1
	}
}

func (s *SessionState) ClearEvent() {
	s.ActiveEvent = nil
	s.EventMultiplier = 1
}

// UpdateScore additively increments the score mapping. No cap, no floor.
func (s *SessionState) UpdateScore(id string, points int) {
	s.Scores[id] += points
	if player, ok := s.Players[id]; ok {
		player.Score += points
	}
}

// SetMission sets the current mission and optional coordinate->color guide.
func (s *SessionState) SetMission(mission *Mission, guide map[Coord]string) {
	s.CurrentMission = mission
	s.MissionGuide = guide
}

func (s *SessionState) ClearMission() {
	s.CurrentMission = nil
	s.MissionGuide = nil
}

// AddPlayer registers a joined player with a full inventory.
func (s *SessionState) AddPlayer(player *PlayerState) {
	if player.Inventory == 0 {
		player.Inventory = s.MaxPixels
	}
	player.IsActive = true
	if player.JoinedAt.IsZero() {
		player.JoinedAt = time.Now()
	}
	s.Players[player.ID] = player
	if team := s.TeamByID(player.TeamID); team != nil {
		team.MemberCount++
	}
}

// RemovePlayer deletes a player on explicit leave. Their pixels stay.
func (s *SessionState) RemovePlayer(playerID string) {
	player, ok := s.Players[playerID]
	if !ok {
		return
	}
	if team := s.TeamByID(player.TeamID); team != nil && team.MemberCount > 0 {
		team.MemberCount--
	}
	delete(s.Players, playerID)
}

func (s *SessionState) TeamByID(id string) *Team {
	if id == "" {
		return nil
	}
	for _, team := range s.Teams {
		if team.ID == id {
			return team
		}
	}
	return nil
}

// SetTeams replaces the team roster. Member counts are recomputed from the
// current players so a roster swap never strands stale counts.
func (s *SessionState) SetTeams(teams []*Team) {
	s.Teams = teams
	for _, team := range s.Teams {
		team.MemberCount = 0
	}
	for _, player := range s.Players {
		if team := s.TeamByID(player.TeamID); team != nil {
			team.MemberCount++
		}
	}
}

// ResetGame replaces all game fields with initial defaults but preserves
// the session identity and its team/player roster. Player resources are
// returned to full.
func (s *SessionState) ResetGame() {
	s.Pixels = make(map[Coord]*Pixel)
	s.PendingPixels = make(map[Coord]*Pixel)
	s.Scores = make(map[string]int)
	s.TimerRemaining = s.TimerDuration
	s.Status = GameStatusWaiting
	s.CurrentMission = nil
	s.MissionGuide = nil
	s.ActiveEvent = nil
	s.EventMultiplier = 1
	for _, player := range s.Players {
		player.Inventory = s.MaxPixels
		player.Cooldown = 0
		player.PixelsPlaced = 0
		player.Score = 0
	}
	for _, team := range s.Teams {
		team.Score = 0
		team.PixelCount = 0
	}
}

// FullReset discards everything, leaving an empty session shell.
func (s *SessionState) FullReset() {
	fresh := NewSessionState(s.ID, s.Name)
	*s = *fresh
	s.ID = ""
	s.Name = ""
}

// CalculateScores derives the per-team scoring breakdown from committed
// pixel ownership. Pixels inside a team's home zone count as defense,
// everything else as invasion. Zones may be nil (all pixels score as
// invasion), matching the simplified original rule.
func (s *SessionState) CalculateScores(zones map[string]func(Coord) bool) map[string]*TeamScore {
	scores := make(map[string]*TeamScore, len(s.Teams))
	for _, team := range s.Teams {
		scores[team.ID] = &TeamScore{}
	}
	for coord, pixel := range s.Pixels {
		score, ok := scores[pixel.TeamID]
		if !ok {
			continue
		}
		score.PixelCount++
		if zones != nil && zones[pixel.TeamID] != nil && zones[pixel.TeamID](coord) {
			score.HomeDefense++
			score.Total += constants.HomeDefensePoints
		} else {
			score.Invasion++
			score.Total += constants.InvasionPoints
		}
	}
	return scores
}
