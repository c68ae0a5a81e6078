package utils

import (
	"fmt"
	"strings"

	"elevsim/src/elev"
)

func Abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// PrintStatus renders one status line for all cars, overwriting the previous one.
func PrintStatus(states []elev.CarState) {
	var b strings.Builder
	b.WriteString("\r")
	for _, s := range states {
		fmt.Fprintf(&b, "Car%d: %2d->%-2d %-8s P=%-4d | ", s.ID, s.Floor, s.Target, s.Phase, s.Power)
	}
	fmt.Print(b.String())
}
