package model

import (
	"path/filepath"
	"time"
)

// Result is the outcome of inspecting one candidate file
type Result struct {
	Path              string `json:"path"`
	Size              int64  `json:"size"`
	SignatureValid    bool   `json:"signature_valid"`
	TerminatorPresent bool   `json:"terminator_present"`
	Corrupt           bool   `json:"corrupt"`
	Error             string `json:"error,omitempty"`
}

// Failed reports whether the file could not be inspected at all
func (r Result) Failed() bool {
	return r.Error != ""
}

// Unit is the directory holding the file; a unit with any corrupt image is
// reported once
func (r Result) Unit() string {
	return filepath.Dir(r.Path)
}

// Summary aggregates a directory scan
type Summary struct {
	ID           string        `json:"id"`
	Root         string        `json:"root"`
	Scanned      int           `json:"scanned"`
	Corrupt      int           `json:"corrupt"`
	Failed       int           `json:"failed"`
	CorruptUnits []string      `json:"corrupt_units"`
	Results      []Result      `json:"results"`
	Elapsed      time.Duration `json:"elapsed"`
}
