// Package graph holds the primitive graph: nodes with coordinates, ways over
// nodes and relations over any primitive, each carrying tags and a list of
// back-links to the primitives that refer to it.
//
// A DataSet owns its primitives. Every mutation that changes a forward
// reference (way nodes, relation members, deletion, membership of the data
// set) goes through a DataSet method that holds the write lock and updates
// the referrer lists and spatial indexes in the same critical section.
// Readers hold the read lock for as long as they look at primitives:
//
//	ds.RLock()
//	defer ds.RUnlock()
//	for _, w := range ds.SearchWays(view) { ... }
package graph
