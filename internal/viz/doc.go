// Package viz is the terminal live view for race and contest sessions.
//
// [Model] is a Bubble Tea program that steps an engine at 60 Hz and draws
// it with a braille [Canvas]: the track top-down with creature trails, plus
// a stats panel with a speed graph and the soft-body profile.
//
// # Key Bindings
//
//	Space       - Start, then pause/resume
//	R           - Rebuild the engine and return to the start line
//	T           - Cycle color themes
//	Q           - Quit
//	Arrows/WASD - Drive
//
// Terminals report key presses but not releases, so [KeyHold] keeps a
// pressed key held for [DefaultHoldWindow] milliseconds after its last
// repeat.
package viz
