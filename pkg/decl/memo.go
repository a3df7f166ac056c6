package decl

// Memoize wraps a descriptor factory so that calling it again with the same
// argument returns the previously produced descriptor without rebuilding.
// The cached descriptor is marked memoized: the reconciler may then treat a
// fingerprint match as authoritative and skip the whole subtree.
//
// Only the most recent call is cached, which matches how producers are
// invoked: once per reconciliation pass with arguments that rarely change.
func Memoize[A comparable](factory func(A) *Desc) func(A) *Desc {
	var (
		cached    bool
		lastArg   A
		lastValue *Desc
	)
	return func(arg A) *Desc {
		if cached && arg == lastArg {
			return lastValue
		}
		d := factory(arg)
		e := *d
		e.memoized = true
		cached, lastArg, lastValue = true, arg, &e
		return lastValue
	}
}

// Memoized0 wraps a zero-argument factory; the result is built once and
// returned on every later call, marked memoized.
func Memoized0(factory func() *Desc) func() *Desc {
	var lastValue *Desc
	return func() *Desc {
		if lastValue == nil {
			d := factory()
			e := *d
			e.memoized = true
			lastValue = &e
		}
		return lastValue
	}
}
