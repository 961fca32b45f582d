package messagequeue

import "github.com/example/asterisk/internal/models"

// FillCommandQueue carries fill commands from the desktop side to the extension.
type FillCommandQueue interface {
	// Publish stores cmd, replacing any command with the same ID.
	Publish(cmd models.FillCommand) error
	// Poll returns the unexpired commands, limited to domain when it is non-empty.
	Poll(domain string) []models.FillCommand
	// Acknowledge removes the command with id. Unknown ids are ignored.
	Acknowledge(id string)
}
