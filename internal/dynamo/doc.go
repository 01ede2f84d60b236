// Package dynamo provides the primitives shared by every part of the
// creature simulation.
//
// The package defines the small value types and error taxonomy that the
// locomotion, soft-body, policy and race packages exchange:
//
//   - [Vec2], [Vec3]: planar mesh coordinates and world positions
//   - [Control]: normalized throttle/turn signal accepted by the integrator
//   - [ErrInvalidMeshData], [ErrPolicyParse], [ErrPolicyFormat],
//     [ErrInvalidTransition]: failure kinds surfaced to hosts
//
// # Example
//
//	c := dynamo.Control{Throttle: 2, Turn: -0.5}.Clamp() // {1, -0.5}
//	err := dynamo.Errorf("load policy", dynamo.ErrPolicyFormat, "want %d weights", n)
//	errors.Is(err, dynamo.ErrPolicyFormat) // true
//
// # Thread Safety
//
// All types here are plain values. Nothing in this package holds mutable
// package-level state except the read-only [DefaultTrigTable].
package dynamo
