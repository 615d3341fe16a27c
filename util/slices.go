package util

// Map calls mapFn for every element in s and returns a slice
// with each element in s replaced by the value returned by the corresponding call to mapFn.
func Map[T, U any](s []T, mapFn func(T) U) []U {
	if s == nil {
		return nil
	}
	newSlice := make([]U, len(s))
	for i := range s {
		newSlice[i] = mapFn(s[i])
	}
	return newSlice
}

// Page returns the part of s described by offset and count.
// A negative count means no limit. Out of range values result in an empty slice.
func Page[T any](s []T, offset, count int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(s) {
		return make([]T, 0)
	}
	end := len(s)
	if count >= 0 && offset+count < end {
		end = offset + count
	}
	return s[offset:end]
}
