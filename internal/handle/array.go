package handle

// WithArray borrows the handle of every element, in order, and passes them to
// fn as one contiguous array. The array is valid only while fn runs: it is
// zeroed when fn returns, so a callee that kept it would see null handles.
// The array never owns the handles; the elements keep owning them.
//
// An empty elems yields a non-nil empty array, so "no elements" stays
// distinguishable from "not specified" for callees that care.
func WithArray[H ~uint64, E any](elems []E, borrow func(E) (H, error), fn func([]H) error) error {
	arr := make([]H, 0, len(elems))
	for _, e := range elems {
		h, err := borrow(e)
		if err != nil {
			return err
		}
		arr = append(arr, h)
	}
	defer clear(arr)
	return fn(arr)
}
