package mapper

// MapSlice applies mapFunc to a pointer to each element. The result is
// never nil, so encoders write an empty list rather than null.
func MapSlice[T any, R any](items []T, mapFunc func(*T) R) []R {
	result := make([]R, 0, len(items))
	for i := range items {
		result = append(result, mapFunc(&items[i]))
	}
	return result
}

