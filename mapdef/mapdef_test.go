package mapdef

import (
	"testing"

	"github.com/orcus-go/orcus/xmlmap"
)

type recordingSink struct {
	namespaces []string
	cells      []string
	ranges     []string
	fields     []string
	rowGroups  []string
	sheets     []string
	commits    int
}

func (s *recordingSink) SetNamespaceAlias(alias, uri string, isDefault bool) {
	s.namespaces = append(s.namespaces, alias+"="+uri)
}

func (s *recordingSink) SetCellLink(xpath string, pos xmlmap.CellPosition) error {
	s.cells = append(s.cells, xpath)
	return nil
}

func (s *recordingSink) StartRange(pos xmlmap.CellPosition) {
	s.ranges = append(s.ranges, pos.Sheet)
}

func (s *recordingSink) AppendRangeFieldLink(xpath, label string) {
	s.fields = append(s.fields, xpath)
}

func (s *recordingSink) SetRangeRowGroup(xpath string) error {
	s.rowGroups = append(s.rowGroups, xpath)
	return nil
}

func (s *recordingSink) CommitRange() error {
	s.commits++
	return nil
}

func (s *recordingSink) AppendSheet(name string) {
	s.sheets = append(s.sheets, name)
}

func TestReadXML(t *testing.T) {
	doc := `<?xml version="1.0"?>
<map>
  <sheet name="Data"/>
  <ns alias="a" uri="urn:a" default="true"/>
  <cell path="/data/title" sheet="Data" row="0" column="0"/>
  <range sheet="Data" row="2" column="0">
    <field path="/data/rows/row/name"/>
    <field path="/data/rows/row/value" label="Value"/>
    <row-group path="/data/rows/row"/>
  </range>
</map>`

	sink := &recordingSink{}
	if err := ReadXML([]byte(doc), sink); err != nil {
		t.Fatalf("ReadXML: %v", err)
	}

	if len(sink.sheets) != 1 || sink.sheets[0] != "Data" {
		t.Fatalf("unexpected sheets: %+v", sink.sheets)
	}
	if len(sink.namespaces) != 1 || sink.namespaces[0] != "a=urn:a" {
		t.Fatalf("unexpected namespaces: %+v", sink.namespaces)
	}
	if len(sink.cells) != 1 || sink.cells[0] != "/data/title" {
		t.Fatalf("unexpected cells: %+v", sink.cells)
	}
	if len(sink.ranges) != 1 || sink.ranges[0] != "Data" {
		t.Fatalf("unexpected ranges: %+v", sink.ranges)
	}
	if len(sink.fields) != 2 {
		t.Fatalf("unexpected fields: %+v", sink.fields)
	}
	if len(sink.rowGroups) != 1 || sink.rowGroups[0] != "/data/rows/row" {
		t.Fatalf("unexpected row groups: %+v", sink.rowGroups)
	}
	if sink.commits != 1 {
		t.Fatalf("expected exactly one CommitRange call, got %d", sink.commits)
	}
}

func TestReadJSON(t *testing.T) {
	doc := `{
		"sheets": ["Data"],
		"ranges": [
			{
				"sheet": "Data",
				"row": 2,
				"column": 0,
				"fields": ["/data/rows/row/name", "/data/rows/row/value"],
				"row-groups": ["/data/rows/row"]
			}
		]
	}`

	sink := &recordingSink{}
	if err := ReadJSON([]byte(doc), sink); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if len(sink.sheets) != 1 || sink.sheets[0] != "Data" {
		t.Fatalf("unexpected sheets: %+v", sink.sheets)
	}
	if len(sink.ranges) != 1 || sink.ranges[0] != "Data" {
		t.Fatalf("unexpected ranges: %+v", sink.ranges)
	}
	if len(sink.fields) != 2 {
		t.Fatalf("unexpected fields: %+v", sink.fields)
	}
	if sink.commits != 1 {
		t.Fatalf("expected exactly one CommitRange call, got %d", sink.commits)
	}
}

func TestReadJSONMissingSheetErrors(t *testing.T) {
	doc := `{"ranges": [{"row": 0, "column": 0}]}`
	sink := &recordingSink{}
	if err := ReadJSON([]byte(doc), sink); err == nil {
		t.Fatalf("expected an error for a range missing a sheet name")
	}
}
