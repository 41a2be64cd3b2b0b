package facility

import (
	"strings"

	"github.com/google/uuid"
)

// Floor maps to the floor table.
type Floor struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Number int       `db:"number" json:"number"`
}

// Room maps to the room table.
type Room struct {
	ID      uuid.UUID `db:"id" json:"id"`
	FloorID uuid.UUID `db:"floor_id" json:"floor_id"`
	Number  int       `db:"number" json:"number"`
}

// Bed maps to the bed table. PatientID is the current occupant, if any.
type Bed struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	RoomID    uuid.UUID  `db:"room_id" json:"room_id"`
	Number    int        `db:"number" json:"number"`
	PatientID *uuid.UUID `db:"patient_id" json:"patient_id,omitempty"`
}

func (b Bed) Occupied() bool {
	return b.PatientID != nil
}

// Area is a ward zone, independent of floors and rooms.
type Area struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// Shift maps to the shift table.
type Shift struct {
	ID   uuid.UUID `db:"id" json:"id"`
	Name string    `db:"name" json:"name"`
}

// ShiftCategory is the time of day a shift covers.
type ShiftCategory string

const (
	CategoryMorning   ShiftCategory = "morning"
	CategoryAfternoon ShiftCategory = "afternoon"
	CategoryNight     ShiftCategory = "night"
	CategoryOther     ShiftCategory = "other"
)

var categoryWords = []struct {
	cat   ShiftCategory
	words []string
}{
	{CategoryMorning, []string{"morning", "mañana", "manana"}},
	{CategoryAfternoon, []string{"afternoon", "tarde", "evening"}},
	{CategoryNight, []string{"night", "noche"}},
}

// CategoryOf derives the category from a shift name, case-insensitively.
func CategoryOf(name string) ShiftCategory {
	n := strings.ToLower(name)
	for _, c := range categoryWords {
		for _, w := range c.words {
			if strings.Contains(n, w) {
				return c.cat
			}
		}
	}
	return CategoryOther
}

func (s Shift) Category() ShiftCategory {
	return CategoryOf(s.Name)
}

// CategoryAt returns the shift category covering the given hour of the day:
// morning 07-14, afternoon 14-21, night otherwise.
func CategoryAt(hour int) ShiftCategory {
	switch {
	case hour >= 7 && hour < 14:
		return CategoryMorning
	case hour >= 14 && hour < 21:
		return CategoryAfternoon
	default:
		return CategoryNight
	}
}
