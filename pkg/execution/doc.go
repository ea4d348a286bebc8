// Package execution holds the pull-based operators that sit on top of the
// storage layer.
//
// Every operator implements iterator.DbIterator: Open, HasNext, Next,
// Rewind and Close. Operators are composed into a tree and calling Next on
// the root pulls one tuple at a time through the whole pipeline.
//
//   - SeqScan reads every tuple of a table through the page store.
//   - Filter keeps the tuples that satisfy a Predicate.
//   - Project keeps a subset of the columns.
//   - Aggregate computes COUNT, SUM, MIN, MAX or AVG, optionally grouped.
//   - Insert and Delete apply their child's tuples through the page store
//     and return the number affected.
package execution
