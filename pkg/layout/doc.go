// Package layout computes non-overlapping canvas positions for a subtree of
// the outline.
//
// # Overview
//
// [Layout] takes a root id, a [forest.Forest] describing parent -> child
// edges, a [SizeFunc] reporting rendered node sizes, and [Options]. It
// returns a [PositionMap] covering the root and every descendant, snapped to
// the configured grid.
//
// The algorithm runs in two passes:
//
//  1. Bottom-up, the subtree width of every node is computed: a leaf is as
//     wide as itself, an internal node is as wide as the larger of itself and
//     its children's arrangement. Widths are cached for the duration of one
//     Layout call.
//  2. Top-down, each node is centered on the horizontal slot its parent gave
//     it and its children are placed one level below. Once its children are
//     placed, an inner node moves over the center of their bounding box,
//     staying inside its own slot.
//
// # Child Arrangement
//
// A node with at least four children, none of which has children of its own,
// uses [StackedRows]: the children are split into balanced rows of at most
// ChildrenPerRow, each row centered independently. Every other node uses
// [SingleRow], placing children left to right. In a single row, the gap
// between two neighbours is SubtreeSpacing when either of them has children
// and NodeSpacing when both are leaves, which keeps dense leaf siblings
// compact while leaving room where a subtree is wide.
//
// # Root Anchoring
//
// The root stays where [Options.Origin] puts it. After placement the whole
// set of descendants is shifted so that the bounding box of the root's direct
// children (not deeper descendants) is centered under the root. Callers
// laying out a top-level node usually keep the root fixed and apply only the
// descendant positions.
//
// # Termination
//
// Only nodes reachable from the root through forest edges are visited, and a
// Forest cannot contain cycles, so a Layout call always terminates.
package layout
