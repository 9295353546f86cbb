package models

import "strings"

// Severity is the syslog severity of a message. Lower values are more severe.
type Severity int

const (
	SeverityEmergency Severity = iota
	SeverityAlert
	SeverityCritical
	SeverityError
	SeverityWarning
	SeverityNotice
	SeverityInfo
	SeverityDebug
)

var severityNames = [...]string{
	"EMERGENCY",
	"ALERT",
	"CRITICAL",
	"ERROR",
	"WARNING",
	"NOTICE",
	"INFO",
	"DEBUG",
}

// String returns the canonical uppercase name of the severity.
func (s Severity) String() string {
	if s < SeverityEmergency || s > SeverityDebug {
		return "INFO"
	}
	return severityNames[s]
}

// IsValid reports whether the severity is one of the eight syslog severities.
func (s Severity) IsValid() bool {
	return s >= SeverityEmergency && s <= SeverityDebug
}

// ParseSeverity maps a severity name to its enum value, case-insensitively.
// Unknown names return (SeverityInfo, false).
func ParseSeverity(name string) (Severity, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range severityNames {
		if n == upper {
			return Severity(i), true
		}
	}
	return SeverityInfo, false
}

// SeverityFromPriority derives the severity from an RFC 3164 priority value
// (PRI = facility*8 + severity).
func SeverityFromPriority(priority int) Severity {
	return Severity(priority % 8)
}

// MarshalText implements encoding.TextMarshaler so severities serialize as
// their uppercase names in JSON.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names decode
// to INFO, matching the tolerant decoding of the buffer reader.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, _ := ParseSeverity(string(text))
	*s = parsed
	return nil
}
