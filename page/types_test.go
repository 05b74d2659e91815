package page

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestData_CloneIsDeep(t *testing.T) {
	original := testData()
	clone := original.Clone()

	if diff := cmp.Diff(original, clone); diff != "" {
		t.Fatalf("clone differs from original (-want +got):\n%s", diff)
	}

	clone.Name = "Renamed"
	clone.Columns[0].Name = "Changed"
	clone.Rows[0].Cells[0] = "Changed"
	clone.Rows = append(clone.Rows, Row{Order: 4, Cells: []string{"", ""}})

	want := testData()
	if diff := cmp.Diff(want, original); diff != "" {
		t.Errorf("mutating the clone reached the original (-want +got):\n%s", diff)
	}
}

func TestData_CloneNil(t *testing.T) {
	var d *Data
	if d.Clone() != nil {
		t.Error("nil Clone() != nil")
	}
}

func TestData_Equal(t *testing.T) {
	base := testData()

	tests := []struct {
		name   string
		mutate func(*Data)
		want   bool
	}{
		{"identical", func(*Data) {}, true},
		{"different cell", func(d *Data) { d.Rows[1].Cells[0] = "Rye" }, false},
		{"different column width", func(d *Data) { d.Columns[0].Width = 99 }, false},
		{"extra row", func(d *Data) { d.Rows = append(d.Rows, Row{Order: 4, Cells: []string{"", ""}}) }, false},
		{"different row order", func(d *Data) { d.Rows[0].Order = 9 }, false},
		{"different name", func(d *Data) { d.Name = "Other" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base.Clone()
			tt.mutate(other)
			if got := base.Equal(other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestData_CellOutOfRange(t *testing.T) {
	d := testData()

	if got := d.Cell(0, 0); got != "Apples" {
		t.Errorf("Cell(0,0) = %q, want Apples", got)
	}
	for _, idx := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}} {
		if got := d.Cell(idx[0], idx[1]); got != "" {
			t.Errorf("Cell(%d,%d) = %q, want empty", idx[0], idx[1], got)
		}
	}
}

func TestBuildSavePayload(t *testing.T) {
	d := testData()
	d.Rows = append(d.Rows, Row{Order: 4, Cells: []string{"Eggs", "12"}})
	d.Columns = append(d.Columns, Column{Name: "Store", Order: 3, Width: DefaultColumnWidth})

	payload := BuildSavePayload(d, "weekly shop")

	if payload.CommitMessage != "weekly shop" {
		t.Errorf("CommitMessage = %q", payload.CommitMessage)
	}
	if payload.Columns[0].ID == nil || *payload.Columns[0].ID != "c1" {
		t.Errorf("existing column ID = %v, want c1", payload.Columns[0].ID)
	}
	if payload.Columns[2].ID != nil {
		t.Errorf("new column ID = %v, want nil", payload.Columns[2].ID)
	}
	if payload.Rows[3].ID != nil {
		t.Errorf("new row ID = %v, want nil", payload.Rows[3].ID)
	}

	// The payload owns its cells; buffer edits after the snapshot stay out.
	d.Rows[0].Cells[0] = "Changed"
	if payload.Rows[0].Cells[0] != "Apples" {
		t.Errorf("payload cell = %q, want Apples", payload.Rows[0].Cells[0])
	}
}
