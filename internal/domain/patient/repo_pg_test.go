package patient

import (
	"reflect"
	"strings"
	"testing"
)

type countingRow struct{ n int }

func (r *countingRow) Scan(dest ...any) error {
	r.n = len(dest)
	return nil
}

func TestScanPatient_MatchesColumnList(t *testing.T) {
	row := &countingRow{}
	if _, err := scanPatient(row); err != nil {
		t.Fatal(err)
	}
	cols := strings.Split(patientCols, ",")
	if row.n != len(cols) {
		t.Errorf("scanPatient reads %d values, patientCols lists %d", row.n, len(cols))
	}
	if fields := reflect.TypeOf(Patient{}).NumField(); row.n != fields {
		t.Errorf("scanPatient reads %d values, Patient has %d fields", row.n, fields)
	}
}
