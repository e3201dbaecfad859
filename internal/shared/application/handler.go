package application

import "context"

// Command changes stored state, e.g. writing a recalculated timeline.
type Command interface {
	CommandName() string
}

// Query only reads, e.g. previewing a recalculation.
type Query interface {
	QueryName() string
}

// CommandHandler runs one command type.
type CommandHandler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}

// QueryHandler answers one query type.
type QueryHandler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}
