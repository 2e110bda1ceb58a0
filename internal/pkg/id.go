package pkg

import "github.com/google/uuid"

// GenerateGameID - generates a new unique game id.
func GenerateGameID() string {
	return uuid.NewString()
}
