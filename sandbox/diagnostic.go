package sandbox

import "fmt"

// Level is the severity of a Diagnostic.
type Level int

const (
	Note Level = iota
	Warning
	Error
)

func (l Level) String() string {
	switch l {
	case Note:
		return "NOTE"
	case Warning:
		return "WARNING"
	case Error:
		return "ERROR"
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Diagnostic is a non-fatal message produced while a step-program runs.
type Diagnostic struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (d Diagnostic) String() string {
	return d.Level.String() + ": " + d.Text
}

// HasErrors reports whether any diagnostic is at Error level.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Level == Error {
			return true
		}
	}
	return false
}
