package utils

// Ptr returns a pointer to a copy of v. Handy for the optional fields of a
// users.Update.
func Ptr[T any](v T) *T {
	return &v
}
