package user

import "encoding/json"

// Optional is a JSON field that remembers whether its key was present, so an
// explicit null can be told apart from an absent key.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if isNull(b) {
		o.Value = nil
		return nil
	}

	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// Cleared reports a present key whose value was null.
func (o Optional[T]) Cleared() bool {
	return o.Set && o.Value == nil
}
