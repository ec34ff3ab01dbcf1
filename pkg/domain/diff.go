package domain

import (
	"reflect"
)

// Diff calculates the channels that changed between two snapshots.
// Added or modified channels carry their new value; removed channels are
// present with a nil value. If old is nil, every channel of next is returned.
// It returns nil when nothing changed.
func Diff(old, next State) Update {
	delta := make(Update)

	for k, newVal := range next {
		oldVal, exists := old[k]
		if !exists || !reflect.DeepEqual(oldVal, newVal) {
			delta[k] = newVal
		}
	}

	for k := range old {
		if _, exists := next[k]; !exists {
			delta[k] = nil
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

// Appended returns the items appended to a slice channel between two
// snapshots, assuming append-only growth. It returns nil when the channel
// did not grow or its prefix was rewritten.
func Appended(old, next State, channel string) []any {
	newVal := reflect.ValueOf(next[channel])
	if newVal.Kind() != reflect.Slice {
		return nil
	}
	oldLen := 0
	if ov := reflect.ValueOf(old[channel]); ov.Kind() == reflect.Slice {
		oldLen = ov.Len()
		if oldLen > newVal.Len() {
			return nil
		}
		for i := 0; i < oldLen; i++ {
			if !reflect.DeepEqual(ov.Index(i).Interface(), newVal.Index(i).Interface()) {
				return nil
			}
		}
	}
	if newVal.Len() == oldLen {
		return nil
	}
	out := make([]any, 0, newVal.Len()-oldLen)
	for i := oldLen; i < newVal.Len(); i++ {
		out = append(out, newVal.Index(i).Interface())
	}
	return out
}
