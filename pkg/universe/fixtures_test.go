// SPDX-License-Identifier: MPL-2.0

package universe

import (
	"errors"
	"reflect"
)

type (
	testItem struct {
		ModelBase
		Name string
	}

	testWeapon struct {
		testItem
		Damage int
	}

	testItemArchetype struct {
		ArchetypeBase
		open bool
	}

	testSwordArchetype struct {
		testItemArchetype
	}

	testSharpness struct {
		ComponentBase
		Edge int
	}

	testBlunt struct {
		ComponentBase
	}

	testRarity struct {
		key string
	}

	testCurrency struct {
		key string
	}

	testMakerArchetype struct {
		ArchetypeBase
		fail bool
	}
)

var errTestInvalid = errors.New("invalid test model")

func (w *testWeapon) Initialize(params Params) error {
	w.Damage = Param(params, "damage", 1)
	return nil
}

func (w *testWeapon) Validate() error {
	if w.Damage < 0 {
		return errTestInvalid
	}
	return nil
}

func (*testItemArchetype) ModelType() reflect.Type { return reflect.TypeFor[testItem]() }

func (a *testItemArchetype) AllowsExternalConfiguration() bool { return a.open }

func (*testSwordArchetype) ModelType() reflect.Type { return reflect.TypeFor[testWeapon]() }

func (*testSharpness) ComponentKey() string { return "sharpness" }

func (s *testSharpness) ContractBlunt(other *testBlunt) error {
	if s.Edge > 10 {
		return errTestInvalid
	}
	return nil
}

func (r testRarity) EnumKey() string { return r.key }

func (c *testCurrency) EnumKey() string { return c.key }

func (*testMakerArchetype) ModelType() reflect.Type { return reflect.TypeFor[testWeapon]() }

func (a *testMakerArchetype) Make(params Params) (Model, error) {
	if a.fail {
		return nil, errTestInvalid
	}
	return &testWeapon{Damage: Param(params, "damage", 7)}, nil
}
