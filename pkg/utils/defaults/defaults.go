package defaults

import "github.com/samber/lo"

// Value returns *v, or def when v is nil.
func Value[T any](v *T, def T) T {
	return lo.FromPtrOr(v, def)
}
