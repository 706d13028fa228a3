// Package scanner checks uploaded bytes for malware with a ClamAV daemon.
package scanner

import "context"

type Status string

const (
	StatusClean         Status = "clean"
	StatusVirusDetected Status = "virus-detected"
	StatusError         Status = "scan-error"
	StatusUnknown       Status = "unknown"
)

// Result of one scan. Virus is set for StatusVirusDetected; Raw holds the
// daemon reply.
type Result struct {
	Status Status
	Virus  string
	Raw    string
}

// Clean reports whether the content may be accepted.
func (r *Result) Clean() bool {
	return r != nil && r.Status == StatusClean
}

type Scanner interface {
	Scan(ctx context.Context, data []byte) (*Result, error)
}
