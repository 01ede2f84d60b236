package morphology

// Profile is the locomotion constant set for one body plan.
type Profile struct {
	Kind Kind

	MaxSpeed     float64 // units/s, symmetric for reverse
	Acceleration float64 // units/s^2 toward the throttle target
	Drag         float64 // per-frame speed retention at 60 fps with neutral throttle
	TurnRate     float64 // rad/s at full turn input

	// Animation hints.
	Legs          int
	LimbLength    float64
	Mass          float64
	MuscleForce   float64
	GaitFrequency float64 // Hz
}

var profiles = [...]Profile{
	Biped: {
		Kind:          Biped,
		MaxSpeed:      15.0,
		Acceleration:  30.0,
		Drag:          0.95,
		TurnRate:      3.0,
		Legs:          2,
		LimbLength:    1.0,
		Mass:          50.0,
		MuscleForce:   800.0,
		GaitFrequency: 2.0,
	},
	Quadruped: {
		Kind:          Quadruped,
		MaxSpeed:      18.0,
		Acceleration:  24.0,
		Drag:          0.96,
		TurnRate:      2.4,
		Legs:          4,
		LimbLength:    0.8,
		Mass:          80.0,
		MuscleForce:   600.0,
		GaitFrequency: 2.5,
	},
	Hexapod: {
		Kind:          Hexapod,
		MaxSpeed:      12.0,
		Acceleration:  36.0,
		Drag:          0.93,
		TurnRate:      3.6,
		Legs:          6,
		LimbLength:    0.7,
		Mass:          120.0,
		MuscleForce:   500.0,
		GaitFrequency: 3.5,
	},
}

// Lookup returns the profile for k. Unknown kinds get the biped profile.
func Lookup(k Kind) Profile {
	if int(k) >= len(profiles) {
		return profiles[Biped]
	}
	return profiles[k]
}

// StrideLength is the distance covered per gait cycle at top speed.
func (p Profile) StrideLength() float64 {
	if p.GaitFrequency == 0 {
		return 0
	}
	return p.MaxSpeed / p.GaitFrequency
}
