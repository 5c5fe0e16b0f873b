// Package io reads cell tables and writes analysis reports.
//
// # Input
//
// Cell tables are tab-delimited text with one header row. Only the first four
// columns are read, in this order:
//
//	type	x	y	layer
//	1	12.5	300.0	2
//	3	40.0	288.1	2
//
// type and layer are integers, x and y real numbers. Extra columns are
// ignored, so exports from counting software that append measurements can be
// read as they are. Use [ImportCells] to read a file or [ReadCells] to read
// from any io.Reader. A malformed row fails the whole read with an
// INVALID_INPUT_FORMAT error naming its 1-based line number.
//
// When layers are not used ([ReadOptions].LayerOptional), the layer column may
// be missing or empty and defaults to 1.
//
// # Output
//
// A [Report] is written in one of three tabular forms:
//
//   - [WriteXLSX]: a workbook whose "Clustering" sheet has the headers
//     "0 um".."N um" in row 1 and the clustering ratio in row 2, and whose
//     "Histograms" sheet repeats the headers above the observed (row 2) and
//     baseline (row 3) histograms
//   - [WriteTSV]: the two rows of the "Clustering" sheet, tab separated
//   - [WriteJSON]: the full report, read back with [ReadJSON]
//
// Bins whose ratio is undefined are written as empty cells, empty fields and
// null respectively.
package io
