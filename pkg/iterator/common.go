package iterator

import "heapstore/pkg/tuple"

// Iterate drives iter until it is exhausted, processFunc returns false, or
// an error occurs. The iterator must already be open.
func Iterate(iter TupleIterator, processFunc func(*tuple.Tuple) (continueLooping bool, err error)) error {
	for {
		hasNext, err := iter.HasNext()
		if err != nil {
			return err
		}
		if !hasNext {
			return nil
		}

		tup, err := iter.Next()
		if err != nil {
			return err
		}

		shouldContinue, err := processFunc(tup)
		if err != nil {
			return err
		}
		if !shouldContinue {
			return nil
		}
	}
}

// ForEach applies processFunc to each remaining tuple.
func ForEach(iter TupleIterator, processFunc func(*tuple.Tuple) error) error {
	return Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		return true, processFunc(tup)
	})
}

// Take returns up to n tuples.
func Take(iter TupleIterator, n int) ([]*tuple.Tuple, error) {
	results := make([]*tuple.Tuple, 0, n)
	if n <= 0 {
		return results, nil
	}

	err := Iterate(iter, func(tup *tuple.Tuple) (bool, error) {
		results = append(results, tup)
		return len(results) < n, nil
	})
	return results, err
}

// Count consumes the iterator and returns the number of tuples seen.
func Count(iter TupleIterator) (int, error) {
	count := 0
	err := ForEach(iter, func(*tuple.Tuple) error {
		count++
		return nil
	})
	return count, err
}

// Collect returns all remaining tuples as a slice.
func Collect(iter TupleIterator) ([]*tuple.Tuple, error) {
	var results []*tuple.Tuple
	err := ForEach(iter, func(tup *tuple.Tuple) error {
		results = append(results, tup)
		return nil
	})
	return results, err
}
