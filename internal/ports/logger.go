package ports

import "github.com/bft-labs/eventship/pkg/log"

// Logger is the structured logging port used by the application layer.
// It aliases the public pkg/log interface so adapters written against either
// package interoperate.
type Logger = log.Logger

// Field is a key-value pair for structured logging.
type Field = log.Field

// Field constructors re-exported for the application layer.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Duration = log.Duration
	Bool     = log.Bool
	Err      = log.Err
	Any      = log.Any
)
