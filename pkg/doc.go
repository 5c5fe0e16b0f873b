// Package pkg provides the core libraries for cellcluster spatial clustering
// analysis.
//
// # Overview
//
// Cellcluster asks whether cells of one population sit closer to cells of
// another population than chance would predict, in a tissue section whose
// cells are organized in horizontal layers. The pkg directory is organized
// into three areas:
//
//  1. Analysis - [cell], [layer], [histogram], [simulate]
//  2. Orchestration - [pipeline]
//  3. Infrastructure - [cache], [store], [io], [render], [observability]
//
// # Architecture
//
// The data flow of one analysis:
//
//	Cell table (TSV)
//	         ↓
//	    [io] package (parse cells)
//	         ↓
//	    [cell] + [layer] packages (bounding box, layer bands)
//	         ↓
//	    [histogram] package (observed cumulative radial histogram)
//	         ↓
//	    [simulate] package (baseline from randomized layouts)
//	         ↓
//	    [histogram] package (density-corrected ratio)
//	         ↓
//	    XLSX/TSV/JSON/SVG/PNG output, run history
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/cellcluster/pkg/io"
//	    "github.com/matzehuels/cellcluster/pkg/pipeline"
//	)
//
//	cells, _ := io.ImportCells("cells.tsv", io.ReadOptions{})
//
//	opts := pipeline.DefaultOptions()
//	opts.Seed = 7
//	opts.Formats = []string{pipeline.FormatTSV}
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(ctx, cells, opts)
//	os.WriteFile("ratio.tsv", res.Artifacts[pipeline.FormatTSV], 0o644)
//
// # Reproducibility
//
// A fixed seed gives the same baseline for every worker count: run i always
// draws from the stream seeded by (seed, i). Baselines are cached per cell
// table and option set only when the seed is fixed.
//
// [cell]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/cell
// [layer]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/layer
// [histogram]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/histogram
// [simulate]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/simulate
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/store
// [io]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/render
// [observability]: https://pkg.go.dev/github.com/matzehuels/cellcluster/pkg/observability
package pkg
