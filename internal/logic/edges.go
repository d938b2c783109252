package logic

// PressEdges returns the lines that went from high (released) to low
// (pressed) between two snapshots. A line that was already low is not
// reported again. It must be computed before prev is replaced by next.
func PressEdges(prev, next uint16) uint16 {
	return prev &^ next
}
