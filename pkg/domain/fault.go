package domain

import (
	"fmt"
	"strings"
)

// FaultType is the armed state of a single injection point.
type FaultType int

const (
	FaultNone FaultType = iota
	FaultException
	FaultDelay
	FaultTermination
)

// String returns the wire name of the fault.
func (f FaultType) String() string {
	switch f {
	case FaultNone:
		return "none"
	case FaultException:
		return "exception"
	case FaultDelay:
		return "delay"
	case FaultTermination:
		return "terminate"
	default:
		return fmt.Sprintf("fault(%d)", int(f))
	}
}

// ParseFaultType maps a wire name to a FaultType.
// "termination" is accepted as an alias of "terminate", and "unset" of "none".
func ParseFaultType(s string) (FaultType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "unset", "":
		return FaultNone, nil
	case "exception":
		return FaultException, nil
	case "delay":
		return FaultDelay, nil
	case "terminate", "termination":
		return FaultTermination, nil
	default:
		return FaultNone, fmt.Errorf("%w: %q", ErrUnknownFault, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f FaultType) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FaultType) UnmarshalText(text []byte) error {
	parsed, err := ParseFaultType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Command is an administrative request targeting one point of one module.
type Command struct {
	Module string    `json:"module" yaml:"module" mapstructure:"module"`
	Point  string    `json:"point" yaml:"point" mapstructure:"point"`
	Fault  FaultType `json:"fault" yaml:"fault" mapstructure:"fault"`
}

// String renders the command as module-point:fault for diagnostics.
func (c Command) String() string {
	return fmt.Sprintf("%s-%s:%s", c.Module, c.Point, c.Fault)
}

// Snapshot maps a module name to its currently known injection points.
type Snapshot map[string][]string
