package responses

import (
	"time"

	"github.com/juho05/melodeon/scanner"
)

type ScanStatus struct {
	Scanning    bool       `json:"scanning"`
	Processed   int        `json:"processed"`
	Total       int        `json:"total"`
	Progress    float64    `json:"progress"`
	StartTime   *time.Time `json:"startTime,omitempty"`
	ElapsedMS   int64      `json:"elapsedMs"`
	RemainingMS int64      `json:"remainingMs"`
	LastScan    *time.Time `json:"lastScan,omitempty"`
	LastError   *string    `json:"lastError,omitempty"`
	SongCount   int        `json:"songCount"`
}

func NewScanStatus(s scanner.Status, songCount int) *ScanStatus {
	status := &ScanStatus{
		Scanning:    s.Scanning,
		Processed:   s.Processed,
		Total:       s.Total,
		Progress:    s.Fraction(),
		ElapsedMS:   s.Elapsed().Milliseconds(),
		RemainingMS: s.Remaining().Milliseconds(),
		SongCount:   songCount,
	}
	if !s.Started.IsZero() {
		status.StartTime = &s.Started
	}
	if !s.LastScan.IsZero() {
		status.LastScan = &s.LastScan
	}
	if s.LastError != nil {
		msg := s.LastError.Error()
		status.LastError = &msg
	}
	return status
}
