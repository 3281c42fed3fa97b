package store

import (
	"log"
	"os"
)

// DefaultDataDir is the persistence directory the server uses when none is
// configured, relative to the process's working directory.
const DefaultDataDir = "./Data"

// GetDataDir returns the directory the bank persists its account and
// transaction files in, creating it if necessary.
func GetDataDir() (string, error) {
	dir := DefaultDataDir

	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Printf("failed to create data directory: %v", err)
		return "", err
	}

	return dir, nil
}
