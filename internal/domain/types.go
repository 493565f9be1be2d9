package domain

// Role gates access to restricted routes.
type Role string

const (
	RoleUser      Role = "user"
	RoleGuide     Role = "guide"
	RoleLeadGuide Role = "lead-guide"
	RoleAdmin     Role = "admin"
)

// Difficulty of a tour.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

// Unit selects the earth radius and distance multiplier for geo queries.
type Unit string

const (
	UnitMiles      Unit = "mi"
	UnitKilometers Unit = "km"
)

// EarthRadius in the unit itself, used to turn a distance into radians.
func (u Unit) EarthRadius() float64 {
	if u == UnitMiles {
		return 3963.2
	}
	return 6378.1
}

// FromMeters converts a metre distance into the unit.
func (u Unit) FromMeters() float64 {
	if u == UnitMiles {
		return 0.000621371
	}
	return 0.001
}

func (u Unit) Valid() bool {
	return u == UnitMiles || u == UnitKilometers
}
