package sim

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// meter returns the global OTel meter for this package. It is a no-op
// unless the host installs a meter provider.
func meter() metric.Meter {
	return otel.Meter("github.com/extremebounce/arena/internal/sim")
}

type counters struct {
	steps        metric.Int64Counter
	contacts     metric.Int64Counter
	eliminations metric.Int64Counter
	knockouts    metric.Int64Counter
	rounds       metric.Int64Counter
}

func newCounters() (*counters, error) {
	m := meter()
	var c counters
	var err error

	if c.steps, err = m.Int64Counter("sim.steps",
		metric.WithDescription("Fixed simulation steps executed")); err != nil {
		return nil, err
	}
	if c.contacts, err = m.Int64Counter("sim.contacts",
		metric.WithDescription("Collision contacts resolved")); err != nil {
		return nil, err
	}
	if c.eliminations, err = m.Int64Counter("sim.eliminations",
		metric.WithDescription("Entities eliminated")); err != nil {
		return nil, err
	}
	if c.knockouts, err = m.Int64Counter("sim.knockouts",
		metric.WithDescription("Knockout collisions")); err != nil {
		return nil, err
	}
	if c.rounds, err = m.Int64Counter("sim.rounds_completed",
		metric.WithDescription("Rounds that reached an outcome")); err != nil {
		return nil, err
	}
	return &c, nil
}
