package tsnv1

import "fmt"

// Status is the outcome carried by every unary reply.
type Status int32

const (
	Status_SUCCESS Status = iota
	Status_FAILURE_ALREADY_EXISTS
	Status_FAILURE_NOT_EXISTS
	Status_FAILURE_INVALID_USERNAME
	Status_FAILURE_INVALID
	Status_FAILURE_UNKNOWN
)

var statusNames = [...]string{
	Status_SUCCESS:                  "SUCCESS",
	Status_FAILURE_ALREADY_EXISTS:   "FAILURE_ALREADY_EXISTS",
	Status_FAILURE_NOT_EXISTS:       "FAILURE_NOT_EXISTS",
	Status_FAILURE_INVALID_USERNAME: "FAILURE_INVALID_USERNAME",
	Status_FAILURE_INVALID:          "FAILURE_INVALID",
	Status_FAILURE_UNKNOWN:          "FAILURE_UNKNOWN",
}

func (s Status) String() string {
	if s >= 0 && int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", int32(s))
}

// ParseStatus maps a status name back to its value.
func ParseStatus(name string) (Status, error) {
	for i, n := range statusNames {
		if n == name {
			return Status(i), nil
		}
	}
	return Status_FAILURE_UNKNOWN, fmt.Errorf("tsnv1: unknown status %q", name)
}

func (s Status) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("tsnv1: invalid status %d", int32(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	v, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
