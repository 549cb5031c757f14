// Package physics advances entity state by fixed timesteps and turns
// geometric overlap into bounces, pad impulses, and round events. All
// iteration runs in ascending id order; for one initial state and one
// intent sequence the package is bit-deterministic.
package physics

// Tuning collects every numeric knob of the simulation. Values are plain
// data so rounds can be tuned per level or per test without touching
// global configuration.
type Tuning struct {
	// Timestep is the fixed simulation step in seconds.
	Timestep float64

	// Gravity is the downward acceleration magnitude.
	Gravity float64

	// MoveAccel is the horizontal acceleration applied for a full
	// deflection intent.
	MoveAccel float64

	// MaxSpeed caps horizontal velocity.
	MaxSpeed float64

	// Damping is the linear velocity damping rate per second.
	Damping float64

	// BounceImpulse converts one unit of charge into upward speed.
	BounceImpulse float64

	// ChargeMax and ChargeFloor bound the bounce-charge meter. The floor
	// stays above zero so repeated light bounces remain possible.
	ChargeMax   float64
	ChargeFloor float64

	// ChargeRegen is passive charge refill per second.
	ChargeRegen float64

	// PadImpulse is the bonus speed a pad surface adds along its push
	// direction; PadRefill is the charge it restores.
	PadImpulse float64
	PadRefill  float64

	// KnockoutSpeed is the entity-entity closing speed above which a
	// knockout event fires.
	KnockoutSpeed float64

	// RestSpeed is the normal-speed cutoff below which a contact does not
	// rebound, letting entities come to rest on surfaces.
	RestSpeed float64

	// Entity physical constants applied at spawn.
	EntityRadius      float64
	EntityMass        float64
	EntityRestitution float64
	SpawnSeparation   float64

	// Round controller timers, in seconds.
	LeadTime    float64
	TimeLimit   float64
	SettleDelay float64
}

// DefaultTuning returns the stock party-mode values. Hosts normally
// override these from configuration.
func DefaultTuning() Tuning {
	return Tuning{
		Timestep:          1.0 / 60.0,
		Gravity:           30.0,
		MoveAccel:         40.0,
		MaxSpeed:          15.0,
		Damping:           0.4,
		BounceImpulse:     18.0,
		ChargeMax:         1.0,
		ChargeFloor:       0.15,
		ChargeRegen:       0.25,
		PadImpulse:        12.0,
		PadRefill:         0.5,
		KnockoutSpeed:     14.0,
		RestSpeed:         0.5,
		EntityRadius:      1.0,
		EntityMass:        1.0,
		EntityRestitution: 0.8,
		SpawnSeparation:   2.5,
		LeadTime:          3.0,
		TimeLimit:         120.0,
		SettleDelay:       1.5,
	}
}
