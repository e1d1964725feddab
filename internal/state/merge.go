package state

// mergeMap folds a differential map update into prev using last-applied-wins
// semantics: a present value upserts its key, a nil value deletes it. A nil
// update means the field was absent from the push and leaves prev untouched.
func mergeMap[K comparable, V any](prev map[K]V, next map[K]*V) map[K]V {
	if next == nil {
		return prev
	}
	if prev == nil {
		prev = make(map[K]V, len(next))
	}
	for k, v := range next {
		if v == nil {
			delete(prev, k)
			continue
		}
		prev[k] = *v
	}
	return prev
}
