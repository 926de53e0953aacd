package thread

import "ethos/backend/internal/models"

// ToVisible keeps the human chat turns of log and drops control envelopes.
// Order and ids are preserved; bodies that merely look like JSON stay visible.
func ToVisible(log []models.DecryptedMessage) []models.VisibleMessage {
	_, feed := Replay(log)
	return feed
}
