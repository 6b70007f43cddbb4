package runtime

import "fmt"

// UnitKind identifies the dimension of a typed-unit value. Arithmetic
// between units of different kinds is a type error, never a coercion.
type UnitKind int

const (
	UnitMoney UnitKind = iota
	UnitMass
	UnitDistance
	UnitTemperature
	UnitPressure
	UnitVolume
	UnitDuration
)

// unitKinds maps surface type names to their dimension. Each name doubles
// as a constructor in the language: Money(1000), Mass(70), ...
//
//nolint:gochecknoglobals
var unitKinds = map[string]UnitKind{
	"Money":       UnitMoney,
	"Mass":        UnitMass,
	"Distance":    UnitDistance,
	"Temperature": UnitTemperature,
	"Pressure":    UnitPressure,
	"Volume":      UnitVolume,
	"Duration":    UnitDuration,
}

// unitNames is the inverse of unitKinds.
//
//nolint:gochecknoglobals
var unitNames = map[UnitKind]string{
	UnitMoney:       "Money",
	UnitMass:        "Mass",
	UnitDistance:    "Distance",
	UnitTemperature: "Temperature",
	UnitPressure:    "Pressure",
	UnitVolume:      "Volume",
	UnitDuration:    "Duration",
}

// String returns the surface spelling of the unit kind.
func (k UnitKind) String() string {
	if name, ok := unitNames[k]; ok {
		return name
	}

	return fmt.Sprintf("UnitKind(%d)", int(k))
}

// UnitKindOf resolves a surface type name to its dimension.
func UnitKindOf(name string) (UnitKind, bool) {
	k, ok := unitKinds[name]

	return k, ok
}

// NewUnit constructs a typed-unit value from a surface type name, or a
// [NotFoundError] when the name is not a declared unit.
func NewUnit(name string, magnitude float64) (Value, error) {
	k, ok := unitKinds[name]
	if !ok {
		return Null(), &NotFoundError{What: "unit type", Name: name}
	}

	return Unit(k, name, magnitude), nil
}
