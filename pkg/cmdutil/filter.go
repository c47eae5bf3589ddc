package cmdutil

// FilterItems keeps the items whose key matches one of the non-empty
// selectors. With no usable selectors the original slice is returned, so
// "no --batches flag" means "everything".
func FilterItems[T any](items []T, selectors []string, keyFn func(T) string) []T {
	set := make(map[string]struct{}, len(selectors))
	for _, s := range selectors {
		if s != "" {
			set[s] = struct{}{}
		}
	}
	if len(set) == 0 {
		return items
	}
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := set[keyFn(item)]; ok {
			result = append(result, item)
		}
	}
	return result
}
