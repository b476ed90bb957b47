package pattern

// Compare orders a value against a scalar operand, as numbers, quantities or durations.
// The second result is false when the values are not comparable.
func Compare(value, operand interface{}) (int, bool) {
	str, ok := scalarString(operand)
	if !ok {
		return 0, false
	}
	return compareWith(value, str)
}

// EqualScalars checks scalar equality, numbers and quantities are compared by value.
func EqualScalars(value, operand interface{}) bool {
	str, ok := scalarString(operand)
	if !ok {
		return false
	}
	if equalsString(value, str) {
		return true
	}
	if cmp, ok := compareWith(value, str); ok {
		return cmp == 0
	}
	return false
}
