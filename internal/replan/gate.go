package replan

import "context"

// Proposal — план замены, который ещё не применён.
type Proposal struct {
	Disruption   Disruption
	Affected     []ActivitySummary
	Replacements []ActivitySummary
	Alternatives []ScoredCandidate
}

// Gate решает, принимается ли план. Отказ возвращает исходный маршрут без изменений.
type Gate interface {
	Accept(ctx context.Context, p Proposal) (bool, error)
}

// GateFunc позволяет использовать функцию как Gate.
type GateFunc func(ctx context.Context, p Proposal) (bool, error)

func (f GateFunc) Accept(ctx context.Context, p Proposal) (bool, error) { return f(ctx, p) }

// AutoAccept принимает любой план.
var AutoAccept Gate = GateFunc(func(context.Context, Proposal) (bool, error) { return true, nil })
