package lock

// updateOrDelete stores newSlice under key, or deletes the key if the slice is empty.
func updateOrDelete[K comparable, V any](m map[K][]V, key K, newSlice []V) {
	if len(newSlice) > 0 {
		m[key] = newSlice
	} else {
		delete(m, key)
	}
}

// filterLocks returns the locks for which keep reports true.
func filterLocks(locks []*Lock, keep func(*Lock) bool) []*Lock {
	kept := make([]*Lock, 0, len(locks))
	for _, l := range locks {
		if keep(l) {
			kept = append(kept, l)
		}
	}
	return kept
}
