package ring

import "golang.org/x/exp/constraints"

// regionAlignment is the byte alignment of region addresses. It matches
// the minimum storage buffer offset alignment.
const regionAlignment = 256

func alignUp[T constraints.Integer](x, align T) T {
	r := x % align
	if r == 0 {
		return x
	}
	return x + align - r
}
