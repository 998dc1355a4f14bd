package model

import "time"

// FrameReport is the inspection of a single camera frame
type FrameReport struct {
	Camera    string    `json:"camera"`
	Timestamp time.Time `json:"timestamp"`
	Digest    uint64    `json:"digest"`
	Result
}
