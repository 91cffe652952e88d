// Package data persists pipeline state under $HOME/.blogr
package data

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Dir returns the blogr state directory, creating it if needed.
func Dir(parts ...string) string {
	dir := os.ExpandEnv("$HOME/.blogr")
	path := filepath.Join(append([]string{dir}, parts...)...)
	os.MkdirAll(path, 0700)
	return path
}

// Save to disk
func Save(key string, val []byte) error {
	file := filepath.Join(Dir("data"), key)
	return os.WriteFile(file, val, 0644)
}

// Load file from disk
func Load(key string) ([]byte, error) {
	file := filepath.Join(Dir("data"), key)
	return os.ReadFile(file)
}

// SaveJSON marshals val and saves it under key
func SaveJSON(key string, val interface{}) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return Save(key, b)
}

// LoadJSON loads key and unmarshals it into val
func LoadJSON(key string, val interface{}) error {
	b, err := Load(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, val)
}
