package config

import "time"

const (
	// Chat text
	MinTextLength = 1
	MaxTextLength = 2000

	// Cipher
	CipherKeySize = 32

	// WebSocket
	WriteWait        = 10 * time.Second
	PongWait         = 60 * time.Second
	PingPeriod       = (PongWait * 9) / 10
	MaxFrameSize     = 16 * 1024
	ClientSendBuffer = 256
)

// ClosedCaseStatuses are case states the complaint collaborator considers finished.
// The chat engine only reports them; gating is done by the case record owner.
var ClosedCaseStatuses = map[string]bool{
	"resolved": true,
	"rejected": true,
}
