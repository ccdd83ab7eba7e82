// Package features provides the OpenCV-backed correspondence source used by
// the match engine.
//
// Descriptors are SIFT (128-dimensional float32). For each template
// descriptor the two nearest base-image descriptors are found with either a
// FLANN KD-tree matcher (the default) or an exhaustive L2 brute-force matcher.
//
// # Prerequisites
//
// OpenCV 4.x with the features2d and flann modules must be installed, and the
// package must be built with cgo enabled. See https://gocv.io/getting-started/.
//
// # Determinism
//
// The brute-force matcher is exact and therefore deterministic. FLANN is
// approximate; for the small descriptor sets produced by UI screenshots and
// card templates its answers are stable, but prefer "bruteforce" when
// bit-for-bit repeatability matters more than speed.
package features
