package calendar

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDay  = errors.New("invalid day")
	ErrInvalidMeal = errors.New("invalid meal")
)

// Day is one of the seven calendar columns. Values match time.Weekday.
type Day int

const (
	Sunday Day = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// Days lists every day in display order.
var Days = [...]Day{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var dayNames = [...]string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}

func (d Day) Valid() bool { return d >= Sunday && d <= Saturday }

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Title returns the capitalized day name used in rendered output.
func (d Day) Title() string {
	return capitalize(d.String())
}

func (d Day) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDay, int(d))
	}
	return []byte(d.String()), nil
}

func (d *Day) UnmarshalText(text []byte) error {
	parsed, err := ParseDay(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDay accepts a day name in any letter case.
func ParseDay(s string) (Day, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range dayNames {
		if n == name {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDay, s)
}

// Meal is one of the three slots of a day.
type Meal int

const (
	Breakfast Meal = iota
	Lunch
	Dinner
)

// Meals lists every meal in display order.
var Meals = [...]Meal{Breakfast, Lunch, Dinner}

var mealNames = [...]string{"breakfast", "lunch", "dinner"}

func (m Meal) Valid() bool { return m >= Breakfast && m <= Dinner }

func (m Meal) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Meal(%d)", int(m))
	}
	return mealNames[m]
}

func (m Meal) Title() string {
	return capitalize(m.String())
}

func (m Meal) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMeal, int(m))
	}
	return []byte(m.String()), nil
}

func (m *Meal) UnmarshalText(text []byte) error {
	parsed, err := ParseMeal(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMeal accepts a meal name in any letter case.
func ParseMeal(s string) (Meal, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range mealNames {
		if n == name {
			return Meal(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMeal, s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
