// Package control turns keyboard tokens, pre-trained policies and simple
// autopilots into the normalized [dynamo.Control] consumed by the
// locomotion integrator.
//
// The engines drive each creature through a [Source]:
//
//   - [Keys]: a [KeyMap] token table (race, contest player 1, player 2)
//     bound to the keys held this frame
//   - [Policy]: adapter over a loaded [policy.Model]
//   - [Autopilot]: PID heading hold at constant throttle
//
// # Usage
//
//	src := control.NewPolicy(model)
//	c := src.Compute(obs) // throttle and turn in [-1, 1]
package control
