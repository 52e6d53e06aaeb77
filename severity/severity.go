package severity

import "fmt"

// Level is the ordered severity of current memory pressure. Higher values
// mean more aggressive remediation is warranted.
type Level uint8

const (
	Normal Level = iota
	Moderate
	High
	Critical
)

var levelNames = map[Level]string{
	Normal:   "normal",
	Moderate: "moderate",
	High:     "high",
	Critical: "critical",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}

	return fmt.Sprintf("unknown(%d)", uint8(l))
}

func (l Level) MarshalText() ([]byte, error) {
	name, ok := levelNames[l]
	if !ok {
		return nil, fmt.Errorf("invalid severity level: %d", uint8(l))
	}

	return []byte(name), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	for level, name := range levelNames {
		if name == string(text) {
			*l = level

			return nil
		}
	}

	return fmt.Errorf("invalid severity level: %q", string(text))
}

// Levels returns all levels in ascending order.
func Levels() []Level {
	return []Level{Normal, Moderate, High, Critical}
}
