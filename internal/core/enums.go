package core

import "fmt"

// ArenaClass selects how an arena obtains its address space.
type ArenaClass string

const (
	// ClassVM reserves its size budget up front and commits memory on demand.
	ClassVM ArenaClass = "vm"
	// ClassClient manages a block supplied by the client; everything it
	// reserves is committed at creation.
	ClassClient ArenaClass = "client"
)

// Valid reports whether c is a recognised arena class.
func (c ArenaClass) Valid() bool {
	switch c {
	case ClassVM, ClassClient:
		return true
	}
	return false
}

// ParseArenaClass converts a configuration string into an ArenaClass.
func ParseArenaClass(s string) (ArenaClass, error) {
	c := ArenaClass(s)
	if !c.Valid() {
		return "", fmt.Errorf("unrecognised arena class %q", s)
	}
	return c, nil
}
