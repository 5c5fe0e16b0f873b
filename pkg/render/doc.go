// Package render draws analysis results as charts.
//
// # Ratio chart
//
// [RatioChart] plots the clustering ratio against distance with a dashed
// reference line at 1, the value expected when the observed pattern matches
// the random baseline. Undefined bins break the curve rather than being
// drawn as zero.
//
//	svg, err := render.RatioChart(ratio, render.FormatSVG, render.ChartOptions{Title: "1 vs 3"})
//
// [HistogramChart] plots the observed histogram over the simulated baseline.
//
// Charts are drawn with gonum/plot and can be encoded as SVG or PNG.
package render
