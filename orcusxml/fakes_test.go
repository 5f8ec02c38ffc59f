package orcusxml

import (
	"fmt"
	"io"

	"github.com/orcus-go/orcus/charset"
	"github.com/orcus-go/orcus/sheet"
)

// fakeSheet is a minimal in-memory spreadsheet used to exercise the
// importer and exporter without a real spreadsheet backend.
type fakeSheet struct {
	name   string
	values map[[2]int]string
}

func newFakeSheet(name string) *fakeSheet {
	return &fakeSheet{name: name, values: make(map[[2]int]string)}
}

func (s *fakeSheet) SetAuto(row, col int, value string)  { s.values[[2]int{row, col}] = value }
func (s *fakeSheet) SetValue(row, col int, value float64) { s.values[[2]int{row, col}] = fmt.Sprint(value) }
func (s *fakeSheet) SetBool(row, col int, value bool)      { s.values[[2]int{row, col}] = fmt.Sprint(value) }
func (s *fakeSheet) SetString(row, col int, stringID int)   {}
func (s *fakeSheet) FillDownCells(row, col, count int) {
	v := s.values[[2]int{row, col}]
	for i := 1; i <= count; i++ {
		s.values[[2]int{row + i, col}] = v
	}
}

func (s *fakeSheet) GetAutoFilter() (sheet.AutoFilter, bool)           { return sheet.AutoFilter{}, false }
func (s *fakeSheet) GetDataTable() (sheet.DataTable, bool)             { return sheet.DataTable{}, false }
func (s *fakeSheet) GetNamedExpression() (sheet.NamedExpression, bool) { return sheet.NamedExpression{}, false }
func (s *fakeSheet) GetArrayFormula() (sheet.ArrayFormula, bool)       { return sheet.ArrayFormula{}, false }
func (s *fakeSheet) GetFormula() (sheet.Formula, bool)                 { return sheet.Formula{}, false }
func (s *fakeSheet) GetSheetProperties() (sheet.SheetProperties, bool) { return sheet.SheetProperties{}, false }
func (s *fakeSheet) GetSheetView() (sheet.SheetView, bool)             { return sheet.SheetView{}, false }

func (s *fakeSheet) WriteString(w io.Writer, row, col int) error {
	_, err := io.WriteString(w, s.values[[2]int{row, col}])
	return err
}

type fakeGlobalSettings struct {
	cs      charset.T
	grammar sheet.FormulaGrammar
}

func (g *fakeGlobalSettings) SetOriginDate(year, month, day int)              {}
func (g *fakeGlobalSettings) SetDefaultFormulaGrammar(f sheet.FormulaGrammar) { g.grammar = f }
func (g *fakeGlobalSettings) SetCharacterSet(cs charset.T)                    { g.cs = cs }

type fakeFactory struct {
	sheets   map[string]*fakeSheet
	order    []string
	settings fakeGlobalSettings
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{sheets: make(map[string]*fakeSheet)}
}

func (f *fakeFactory) AppendSheet(id sheet.ID, name string) sheet.ImportSheet {
	s := newFakeSheet(name)
	f.sheets[name] = s
	f.order = append(f.order, name)
	return s
}

func (f *fakeFactory) GetSheetByName(name string) sheet.ImportSheet {
	s, ok := f.sheets[name]
	if !ok {
		return nil
	}
	return s
}

func (f *fakeFactory) GetSheetByID(id sheet.ID) sheet.ImportSheet {
	if int(id) < 0 || int(id) >= len(f.order) {
		return nil
	}
	return f.sheets[f.order[id]]
}

func (f *fakeFactory) GetGlobalSettings() sheet.GlobalSettings       { return &f.settings }
func (f *fakeFactory) GetReferenceResolver() sheet.ReferenceResolver { return nil }
func (f *fakeFactory) GetSharedStrings() sheet.SharedStrings         { return nil }

func (f *fakeFactory) GetSheet(name string) sheet.ExportSheet {
	s, ok := f.sheets[name]
	if !ok {
		return nil
	}
	return s
}
