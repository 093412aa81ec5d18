// Package cluster implements the clustering subroutines used by the
// density and representative subdividers.
//
// Every algorithm satisfies Clusterer: FitPredict assigns a label to each
// input point. Label -1 marks noise (DBSCAN only).
package cluster
