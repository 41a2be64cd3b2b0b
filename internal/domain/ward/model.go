package ward

import (
	"sort"

	"github.com/wardroster/wardroster/internal/domain/facility"
	"github.com/wardroster/wardroster/internal/domain/patient"
)

// BedOccupancy is one row of the ward map: a bed, its room and the patient
// occupying it, if any.
type BedOccupancy struct {
	Bed     facility.Bed     `json:"bed"`
	Room    facility.Room    `json:"room"`
	Patient *patient.Patient `json:"patient,omitempty"`
}

// clone returns a copy that shares no pointers with o.
func (o BedOccupancy) clone() BedOccupancy {
	out := o
	if o.Bed.PatientID != nil {
		id := *o.Bed.PatientID
		out.Bed.PatientID = &id
	}
	if o.Patient != nil {
		p := *o.Patient
		if p.BirthDate != nil {
			b := *p.BirthDate
			p.BirthDate = &b
		}
		if p.WeightKg != nil {
			w := *p.WeightKg
			p.WeightKg = &w
		}
		if p.HeightCm != nil {
			h := *p.HeightCm
			p.HeightCm = &h
		}
		out.Patient = &p
	}
	return out
}

func cloneAll(items []BedOccupancy) []BedOccupancy {
	out := make([]BedOccupancy, len(items))
	for i, o := range items {
		out[i] = o.clone()
	}
	return out
}

// sortOccupancy orders by room number then bed number, ties broken by ids so
// the order is total.
func sortOccupancy(items []BedOccupancy) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Room.Number != b.Room.Number {
			return a.Room.Number < b.Room.Number
		}
		if a.Room.ID != b.Room.ID {
			return a.Room.ID.String() < b.Room.ID.String()
		}
		if a.Bed.Number != b.Bed.Number {
			return a.Bed.Number < b.Bed.Number
		}
		return a.Bed.ID.String() < b.Bed.ID.String()
	})
}
