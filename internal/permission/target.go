package permission

import (
	"strings"

	"github.com/frahmantamala/pos-backoffice/internal"
)

// TargetType is who a grant applies to. The zero value is not a valid target.
type TargetType int

const (
	TargetUser TargetType = iota + 1
	TargetRole
	TargetOrganization
)

func (t TargetType) String() string {
	switch t {
	case TargetUser:
		return "USER"
	case TargetRole:
		return "ROLE"
	case TargetOrganization:
		return "ORGANIZATION"
	}
	return "UNKNOWN"
}

func (t TargetType) Valid() bool {
	switch t {
	case TargetUser, TargetRole, TargetOrganization:
		return true
	}
	return false
}

func ParseTargetType(s string) (TargetType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USER":
		return TargetUser, nil
	case "ROLE":
		return TargetRole, nil
	case "ORGANIZATION", "ORG":
		return TargetOrganization, nil
	}
	return 0, internal.ErrInvalidTargetType.WithDetails(map[string]string{"target_type": s})
}

func (t TargetType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, internal.ErrInvalidTargetType
	}
	return []byte(t.String()), nil
}

func (t *TargetType) UnmarshalText(text []byte) error {
	parsed, err := ParseTargetType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
