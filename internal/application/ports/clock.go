package ports

import (
	"time"

	"github.com/google/uuid"
)

// Clock fuente de tiempo del motor (inyectable en tests).
type Clock interface {
	Now() time.Time
}

// IDGenerator genera identificadores únicos dentro del proceso.
type IDGenerator interface {
	NewID() string
}

// SystemClock implementa Clock con time.Now en UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// UUIDGenerator implementa IDGenerator con UUID v4.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.New().String() }
