package session

import (
	"encoding/json"
	"os"
)

// writeJSON persists a session artifact as indented JSON
func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}

// writeText persists a text artifact
func writeText(path, text string) error {
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return &PersistenceError{Path: path, Err: err}
	}
	return nil
}
