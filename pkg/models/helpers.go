package models

// Ptr returns a pointer to the given value, for building optional fields
func Ptr[T any](v T) *T {
	return &v
}