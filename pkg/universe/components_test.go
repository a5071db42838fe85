// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"errors"
	"slices"
	"testing"
)

func TestComponentSet(t *testing.T) {
	t.Parallel()

	var set ComponentSet
	sharp := &testSharpness{Edge: 3}
	if err := set.Add(sharp); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := set.Add(&testBlunt{}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := set.Add(&testSharpness{}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Errorf("duplicate Add() error = %v, want ErrAlreadyRegistered", err)
	}
	if got := set.Keys(); !slices.Equal(got, []string{"sharpness", "testBlunt"}) {
		t.Errorf("Keys() = %v", got)
	}

	replacement := &testSharpness{Edge: 9}
	if err := set.Replace(replacement); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if got, _ := ComponentOf[*testSharpness](&set); got != replacement {
		t.Errorf("ComponentOf() = %v, want replacement", got)
	}
	if set.Len() != 2 {
		t.Errorf("Len() = %d, want 2", set.Len())
	}

	if !set.Remove("testBlunt") {
		t.Error("Remove() = false, want true")
	}
	if set.Remove("testBlunt") {
		t.Error("second Remove() = true, want false")
	}
	if _, ok := set.Get("testBlunt"); ok {
		t.Error("removed component still present")
	}
	if got := set.All(); len(got) != 1 {
		t.Errorf("All() = %v", got)
	}
	if err := set.Add(nil); err == nil {
		t.Error("Add(nil) should fail")
	}
}
