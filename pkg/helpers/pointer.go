package helpers

// Ptr returns a pointer to val. Used for optional request fields.
func Ptr[T any](val T) *T {
	return &val
}

// ValueOr returns *val, or fallback when the field was omitted.
func ValueOr[T any](val *T, fallback T) T {
	if val == nil {
		return fallback
	}
	return *val
}
