// Package chart holds the link-chart data model: people (nodes), their
// relationships (directed weighted edges), the adjacency matrix fed to the
// physics engine, and the filter state deriving visible subsets.
//
// # Ownership
//
// The chart is the structural model. The physics engine owns the live
// position/velocity buffers during simulation and mutates the adjacency
// matrix; the chart stores the persisted positions and is the source of
// truth for structure. Structural changes (add/remove person or
// relationship) invalidate the adjacency matrix; filter changes never do.
//
// # Ingestion
//
// Charts are built from a [Dataset] (normalized node/edge lists) or from raw
// call-record CSVs via [ImportCSV]. Edges referencing unknown node ids are
// dropped, counted, and reported rather than failing the load.
package chart
