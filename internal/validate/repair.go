package validate

import (
	"geomap/internal/graph"
)

// Repair restores the back-links that WAY NOT IN REFERRERS and RELATION NOT
// IN REFERRERS report and returns how many were restored. Other findings
// need an edit and are left alone.
func Repair(ds *graph.DataSet) int {
	return ds.RestoreReferrers()
}
