package util

/*
Ptr returns a pointer to the given value. Useful for filling optional
pointer fields of request payloads inline.
*/
func Ptr[T any](value T) *T {
	return &value
}
