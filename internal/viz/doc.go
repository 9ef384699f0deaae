// Package viz renders QATP system state in the terminal.
//
// [RenderSnapshot] draws a one-shot panel of every component,
// [RenderRun] plots the energy history of a recorded run and [Model] is
// a Bubble Tea program that drives a live system one cycle per tick.
//
// # Key Bindings
//
//	Space - Pause/Resume cycling
//	R     - Recharge the reservoir
//	+/-   - Raise or lower the cycle input
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
