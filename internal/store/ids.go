package store

import (
	"strconv"

	"github.com/google/uuid"
)

type IDGen interface {
	NewID() string
}

// UUIDGen issues random (v4) UUIDs.
type UUIDGen struct{}

func (UUIDGen) NewID() string { return uuid.NewString() }

// SeqGen issues predictable ids for tests: prefix-1, prefix-2, ...
type SeqGen struct {
	Prefix string
	n      int
}

func (g *SeqGen) NewID() string {
	g.n++
	return g.Prefix + "-" + strconv.Itoa(g.n)
}
