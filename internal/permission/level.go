package permission

import (
	"strconv"
	"strings"

	"github.com/frahmantamala/pos-backoffice/internal"
)

// Level is a cumulative permission level: each level satisfies every level below it.
type Level int

const (
	LevelNone Level = iota
	LevelRead
	LevelWrite
	LevelDelete
	LevelAdmin
)

var levelNames = map[Level]string{
	LevelNone:   "NONE",
	LevelRead:   "READ",
	LevelWrite:  "WRITE",
	LevelDelete: "DELETE",
	LevelAdmin:  "ADMIN",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Level(" + strconv.Itoa(int(l)) + ")"
}

// Valid reports whether l can be granted or required.
func (l Level) Valid() bool {
	return l >= LevelRead && l <= LevelAdmin
}

// ParseLevel accepts a level name in any case or its ordinal.
func ParseLevel(s string) (Level, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if l := Level(n); l.Valid() {
			return l, nil
		}
	}
	for l, name := range levelNames {
		if name == s && l.Valid() {
			return l, nil
		}
	}
	return LevelNone, internal.ErrInvalidPermissionLevel.WithDetails(map[string]string{"level": s})
}

// HasLevel is the only authorization comparison. Unknown levels never satisfy
// and are never satisfied.
func HasLevel(granted, required Level) bool {
	return granted.Valid() && required.Valid() && granted >= required
}

// DisplayPermission is the per-menu flag set the UI renders.
type DisplayPermission struct {
	HasRead   bool `json:"has_read"`
	HasWrite  bool `json:"has_write"`
	HasDelete bool `json:"has_delete"`
	HasAdmin  bool `json:"has_admin"`
}

func DisplayFor(l Level) DisplayPermission {
	return DisplayPermission{
		HasRead:   HasLevel(l, LevelRead),
		HasWrite:  HasLevel(l, LevelWrite),
		HasDelete: HasLevel(l, LevelDelete),
		HasAdmin:  HasLevel(l, LevelAdmin),
	}
}

func ReadOnly() DisplayPermission {
	return DisplayFor(LevelRead)
}
