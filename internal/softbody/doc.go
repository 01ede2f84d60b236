// Package softbody implements the visual mass-spring network laid over a
// creature's triangulated 2D profile.
//
// A [Mesh] is built once from a [Description] (node positions plus
// triangles). Every unique triangle edge becomes a damped Hookean spring
// whose rest length is fixed at construction. [Mesh.Step] relaxes the
// springs and layers a [Gait] wobble on top so the mesh bobs in time with
// the creature's speed.
//
// Creatures drive their mesh with speed and time only. [Drive.Force] is left
// zero by the engines and exists for hosts that push a mesh themselves.
//
// The mesh has no influence on race or contest outcomes. Removing it, or
// calling SetGait(nil), only changes what a renderer draws.
package softbody
