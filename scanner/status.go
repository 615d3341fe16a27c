package scanner

import "time"

type Status struct {
	Scanning  bool
	Processed int
	Total     int
	Started   time.Time
	LastScan  time.Time
	// LastError is the error of the last failed scan. It is reset by a successful scan.
	LastError error
	now       time.Time
}

func (s *Scanner) Status() Status {
	status := Status{
		Scanning:  s.scanning.Load(),
		Processed: int(s.processed.Load()),
		Total:     int(s.total.Load()),
		LastScan:  s.Catalog().LastScan(),
		now:       s.now(),
	}
	if start := s.scanStart.Load(); start != 0 {
		status.Started = time.Unix(0, start)
	}
	if err := s.lastErr.Load(); err != nil {
		status.LastError = *err
	}
	return status
}

// Fraction returns the progress of the current scan between 0 and 1.
func (s Status) Fraction() float64 {
	if s.Total == 0 {
		if s.Scanning {
			return 0
		}
		return 1
	}
	return min(float64(s.Processed)/float64(s.Total), 1)
}

func (s Status) Elapsed() time.Duration {
	if s.Started.IsZero() {
		return 0
	}
	return s.now.Sub(s.Started)
}

// Remaining estimates the remaining duration of the current scan from the average time per processed file.
// It returns 0 if no estimate is possible.
func (s Status) Remaining() time.Duration {
	if !s.Scanning || s.Processed == 0 || s.Processed >= s.Total {
		return 0
	}
	perFile := s.Elapsed() / time.Duration(s.Processed)
	return perFile * time.Duration(s.Total-s.Processed)
}
