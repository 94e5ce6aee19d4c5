package errors

import "fmt"

type FirmwareVersionError struct {
	Version    string
	Constraint string
	Reason     string
}

func (err FirmwareVersionError) Error() string {
	if len(err.Version) == 0 {
		err.Version = "UNKNOWN"
	}
	if len(err.Reason) > 0 {
		return fmt.Sprintf("unusable firmware %s: %s", err.Version, err.Reason)
	}
	return fmt.Sprintf("unusable firmware %s: require %s", err.Version, err.Constraint)
}
