// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"errors"
	"reflect"
	"testing"
)

func newModifierFixture(t *testing.T, open bool) (*Universe, *testItemArchetype) {
	t.Helper()
	u := New("test")
	a := &testItemArchetype{open: open}
	if err := u.RegisterArchetype(a, nil); err != nil {
		t.Fatal(err)
	}
	if err := u.MarkInitialized(IDOf[testItemArchetype]()); err != nil {
		t.Fatal(err)
	}
	return u, a
}

func TestModifier_OpenArchetype(t *testing.T) {
	t.Parallel()

	u, a := newModifierFixture(t, true)
	m := NewModifier(u, "tweaks")
	if m.Module() != "tweaks" || m.Universe() != u {
		t.Fatal("modifier accessors")
	}
	if _, err := m.Archetype(reflect.TypeFor[testItemArchetype]()); err != nil {
		t.Fatalf("Archetype() error = %v", err)
	}

	if err := m.AddComponent(a, &testSharpness{Edge: 1}); err != nil {
		t.Fatalf("AddComponent() error = %v", err)
	}
	if err := m.ReplaceComponent(a, &testSharpness{Edge: 2}); err != nil {
		t.Fatalf("ReplaceComponent() error = %v", err)
	}
	if c, _ := ComponentOf[*testSharpness](a.Components()); c.Edge != 2 {
		t.Errorf("Edge = %d, want 2", c.Edge)
	}
	if err := m.RemoveComponent(a, "sharpness"); err != nil {
		t.Fatalf("RemoveComponent() error = %v", err)
	}
	if err := m.RemoveComponent(a, "sharpness"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("removing a missing component error = %v, want ErrConfiguration", err)
	}
}

func TestModifier_Gates(t *testing.T) {
	t.Parallel()

	t.Run("closed archetype", func(t *testing.T) {
		t.Parallel()
		u, a := newModifierFixture(t, false)
		err := NewModifier(u, "tweaks").AddComponent(a, &testBlunt{})
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("error = %v, want *ConfigurationError", err)
		}
		if a.Components().Len() != 0 {
			t.Error("closed archetype was modified")
		}
	})

	t.Run("frozen universe", func(t *testing.T) {
		t.Parallel()
		u, a := newModifierFixture(t, true)
		u.Freeze()
		err := NewModifier(u, "tweaks").AddComponent(a, &testBlunt{})
		if !errors.Is(err, ErrConfiguration) || !errors.Is(err, ErrFrozen) {
			t.Errorf("error = %v, want ErrConfiguration and ErrFrozen", err)
		}
	})

	t.Run("uninitialized archetype", func(t *testing.T) {
		t.Parallel()
		u := New("test")
		a := &testItemArchetype{open: true}
		if err := u.RegisterArchetype(a, nil); err != nil {
			t.Fatal(err)
		}
		if err := NewModifier(u, "tweaks").AddComponent(a, &testBlunt{}); !errors.Is(err, ErrConfiguration) {
			t.Errorf("error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("nil archetype", func(t *testing.T) {
		t.Parallel()
		u := New("test")
		if err := NewModifier(u, "tweaks").RemoveComponent(nil, "x"); !errors.Is(err, ErrConfiguration) {
			t.Errorf("error = %v, want ErrConfiguration", err)
		}
	})
}
