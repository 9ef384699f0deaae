// Package analysis summarizes recorded runs.
//
//   - [Summarize]: delivery statistics and activation streaks
//   - [DominantPeriod]: strongest cycle period of a series, found with an FFT
//
// A run that recharges every n cycles typically shows a dominant period of
// n in its chain output:
//
//	period, _ := analysis.DominantPeriod(analysis.Series(records, analysis.ChainOutput))
package analysis
