// Package kmeans implements Lloyd's algorithm over caller-supplied initial centroids.
//
// Points and centroids live in gonum dense matrices (one contiguous row-major
// buffer each). Every iteration assigns each point to its nearest centroid,
// recomputes each non-empty cluster's centroid as the mean of its members and
// stops once no centroid moved farther than eps, or after maxIter iterations.
//
// The iteration that detects convergence does not commit its recomputed
// centroids unless WithCommitOnConvergence is given: callers get back the
// centroids that produced the final assignment.
//
// Choosing the initial centroids is left to the caller (see package seeding).
package kmeans
