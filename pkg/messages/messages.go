package messages

import "encoding/json"

// MessageType identifies a message on the wire.
type MessageType string

// Client message types
const (
	MessageTypeClientPing         MessageType = "cping"
	MessageTypeClientJoin         MessageType = "cjoin"
	MessageTypeClientLeave        MessageType = "cleave"
	MessageTypeClientPlacePixel   MessageType = "cplace"
	MessageTypeClientPendingPixel MessageType = "cpending"

	// Instructor commands ride the same channel.
	MessageTypeClientTimerStart     MessageType = "ctimerstart"
	MessageTypeClientTimerPause     MessageType = "ctimerpause"
	MessageTypeClientTimerReset     MessageType = "ctimerreset"
	MessageTypeClientGameEnd        MessageType = "cgameend"
	MessageTypeClientCommitPixels   MessageType = "ccommit"
	MessageTypeClientRefill         MessageType = "crefill"
	MessageTypeClientEventActivate  MessageType = "ceventon"
	MessageTypeClientEventClear     MessageType = "ceventoff"
	MessageTypeClientMissionSet     MessageType = "cmissionset"
	MessageTypeClientMissionClear   MessageType = "cmissionclear"
	MessageTypeClientSettingsUpdate MessageType = "csettings"
	MessageTypeClientResetGame      MessageType = "creset"
)

// Server message types
const (
	MessageTypeServerPong              MessageType = "spong"
	MessageTypeServerJoinAck           MessageType = "sjoinack"
	MessageTypeServerJoinFailure       MessageType = "sjoinfail"
	MessageTypeServerSessionSnapshot   MessageType = "ssnapshot"
	MessageTypeServerPixelPlaced       MessageType = "spixel"
	MessageTypeServerPixelsCommitted   MessageType = "scommitted"
	MessageTypeServerPlacementRejected MessageType = "srejected"
	MessageTypeServerPlayerJoined      MessageType = "splayerjoin"
	MessageTypeServerPlayerLeft        MessageType = "splayerleft"
	MessageTypeServerTimerUpdate       MessageType = "stimer"
	MessageTypeServerGameEnded         MessageType = "sgameended"
	MessageTypeServerEventActivated    MessageType = "seventon"
	MessageTypeServerEventCleared      MessageType = "seventoff"
	MessageTypeServerMissionUpdated    MessageType = "smission"
	MessageTypeServerScoreUpdate       MessageType = "sscore"
)

// Message represents a generic message for serialization/deserialization.
// ClientID 0 means the message is from the server.
type Message struct {
	ClientID uint32          `json:"clientID"`
	Type     MessageType     `json:"type"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}
