// Package match decides whether a template image appears inside a base image.
//
// Descriptor extraction and nearest-neighbor search are delegated to a
// CorrespondenceSource. This package owns the policy applied to its output:
//
//  1. For each query descriptor the source reports the distances to its two
//     nearest reference descriptors (d1 <= d2).
//  2. A candidate is good when it has exactly two distances and
//     d1 < ratio*d2. Equality is not good.
//  3. The verdict is a match when the good count reaches MinMatches.
//
// An empty candidate set is "no match". Source failures surface as
// *MatchFault; callers decide how to present them.
//
// EvaluateBatch runs the same policy for one base against many templates,
// recording each template's outcome at its input index so that a bad
// template never affects the others.
//
// Engine keeps no state between calls. Identical inputs give identical
// verdicts as long as the source is deterministic.
package match
