package types

// ConnectClientEvent is queued for the session loop when a client connects.
// The client is not in any session until its join message arrives.
type ConnectClientEvent struct {
	ClientID uint32
}

// DisconnectClientEvent is queued for the session loop when a client drops.
type DisconnectClientEvent struct {
	ClientID  uint32
	SessionID string
	PlayerID  string
}
