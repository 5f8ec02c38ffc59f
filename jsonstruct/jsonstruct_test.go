package jsonstruct

import (
	"bytes"
	"sort"
	"testing"
)

func mustParse(t *testing.T, content string) *Tree {
	t.Helper()
	tree := New()
	if err := tree.Parse([]byte(content)); err != nil {
		t.Fatalf("Parse(%q) returned error: %v", content, err)
	}
	return tree
}

func TestSimpleObjectStructure(t *testing.T) {
	tree := mustParse(t, `{"name": "alice", "age": 30}`)
	w := tree.GetWalker()
	if err := w.Root(); err != nil {
		t.Fatalf("Root: %v", err)
	}
	node, err := w.GetNode()
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if node.Type != NodeObject {
		t.Fatalf("expected root type object, got %v", node.Type)
	}
	n, err := w.ChildCount()
	if err != nil {
		t.Fatalf("ChildCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 object keys, got %d", n)
	}
}

func TestArrayOfObjectsRepeats(t *testing.T) {
	content := `[{"id": 1, "name": "a"}, {"id": 2, "name": "b"}, {"id": 3, "name": "c"}]`
	tree := mustParse(t, content)
	w := tree.GetWalker()
	if err := w.Root(); err != nil {
		t.Fatalf("Root: %v", err)
	}
	root, err := w.GetNode()
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if root.Type != NodeArray {
		t.Fatalf("expected array root, got %v", root.Type)
	}
	if err := w.Descend(0); err != nil {
		t.Fatalf("Descend: %v", err)
	}
	obj, err := w.GetNode()
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if !obj.Repeat {
		t.Fatalf("expected the array's object child to be marked repeat")
	}
}

func TestFieldPathsForScalarArrayElement(t *testing.T) {
	// A value node that sits directly under an array (no intervening
	// array/object hop) never gets a generic "[]" segment — instead one
	// indexed path is emitted per array position it was ever recorded
	// valid at (here all three, since every element is a scalar).
	content := `{"tags": ["x", "y", "z"]}`
	tree := mustParse(t, content)
	w := tree.GetWalker()
	mustOk(t, w.Root())
	mustOk(t, w.Descend(0)) // ['tags']
	mustOk(t, w.Descend(0)) // the tags array
	mustOk(t, w.Descend(0)) // value child of the tags array
	node, err := w.GetNode()
	if err != nil {
		t.Fatalf("GetNode: %v", err)
	}
	if node.Type != NodeValue {
		t.Fatalf("expected value node, got %v", node.Type)
	}
	paths, err := w.BuildFieldPaths()
	if err != nil {
		t.Fatalf("BuildFieldPaths: %v", err)
	}
	sort.Strings(paths)
	want := []string{"$['tags'][0]", "$['tags'][1]", "$['tags'][2]"}
	if len(paths) != len(want) {
		t.Fatalf("expected %v, got %v", want, paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, paths)
		}
	}
}

func TestFieldPathsWithFixedArrayPositions(t *testing.T) {
	// Position 0 holds a number in the first row but an object in the
	// second: per §4.7 point 3, that mixed occupancy flips position 0's
	// recorded-valid flag to false on the shared value node, leaving
	// only position 1 (always a scalar) as a valid field position.
	content := `{"rows": [[1, "x"], [{"k": 1}, "y"]]}`
	tree := mustParse(t, content)
	w := tree.GetWalker()
	mustOk(t, w.Root())
	mustOk(t, w.Descend(0)) // ['rows']
	mustOk(t, w.Descend(0)) // the rows array (an array of arrays)
	mustOk(t, w.Descend(0)) // the inner array element
	mustOk(t, w.Descend(0)) // the value-typed child shared across positions
	node, _ := w.GetNode()
	if node.Type != NodeValue {
		t.Fatalf("expected value node, got %v", node.Type)
	}
	paths, err := w.BuildFieldPaths()
	if err != nil {
		t.Fatalf("BuildFieldPaths: %v", err)
	}
	if len(paths) != 1 || paths[0] != "$['rows'][][1]" {
		t.Fatalf("unexpected field paths: %v", paths)
	}
}

func TestNormalizeTreeSortsChildren(t *testing.T) {
	tree := mustParse(t, `{"b": 1, "a": 2, "c": 3}`)
	tree.NormalizeTree()
	w := tree.GetWalker()
	mustOk(t, w.Root())
	n, _ := w.ChildCount()
	if n != 3 {
		t.Fatalf("expected 3 children, got %d", n)
	}
	var names []string
	for i := 0; i < n; i++ {
		mustOk(t, w.Descend(i))
		node, _ := w.GetNode()
		if node.Type != NodeObjectKey {
			t.Fatalf("expected object_key child, got %v", node.Type)
		}
		names = append(names, tree.root.children[i].name)
		mustOk(t, w.Ascend())
	}
	if !sort.StringsAreSorted(names) {
		t.Fatalf("expected sorted keys after NormalizeTree, got %v", names)
	}
}

func TestProcessRangesEmitsOneRangePerRepeatingRegion(t *testing.T) {
	content := `{"items": [{"id": 1, "name": "a"}, {"id": 2, "name": "b"}]}`
	tree := mustParse(t, content)

	var ranges []TableRange
	if err := tree.ProcessRanges(func(r TableRange) { ranges = append(ranges, r) }); err != nil {
		t.Fatalf("ProcessRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected exactly 1 range, got %d: %+v", len(ranges), ranges)
	}
	r := ranges[0]
	sort.Strings(r.Paths)
	wantPaths := []string{"$['items'][]['id']", "$['items'][]['name']"}
	if len(r.Paths) != len(wantPaths) {
		t.Fatalf("expected paths %v, got %v", wantPaths, r.Paths)
	}
	for i, p := range wantPaths {
		if r.Paths[i] != p {
			t.Fatalf("expected paths %v, got %v", wantPaths, r.Paths)
		}
	}
	if len(r.RowGroups) != 1 || r.RowGroups[0] != "$['items']" {
		t.Fatalf("expected row group $['items'], got %v", r.RowGroups)
	}
}

func TestProcessRangesNestedRepeatsEmitOnlyOuterRange(t *testing.T) {
	content := `{"groups": [{"label": "g1", "items": [1, 2]}, {"label": "g2", "items": [3]}]}`
	tree := mustParse(t, content)

	var ranges []TableRange
	if err := tree.ProcessRanges(func(r TableRange) { ranges = append(ranges, r) }); err != nil {
		t.Fatalf("ProcessRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected exactly 1 outer range (groups), got %d: %+v", len(ranges), ranges)
	}
}

func TestWalkerErrorsOnOutOfRangeDescend(t *testing.T) {
	tree := mustParse(t, `{"a": 1}`)
	w := tree.GetWalker()
	mustOk(t, w.Root())
	if err := w.Descend(5); err == nil {
		t.Fatalf("expected an error descending past child count")
	}
}

func TestWalkerErrorsAscendingFromRoot(t *testing.T) {
	tree := mustParse(t, `{"a": 1}`)
	w := tree.GetWalker()
	mustOk(t, w.Root())
	if err := w.Ascend(); err == nil {
		t.Fatalf("expected an error ascending from the root")
	}
}

func TestWalkerRequiresRootBeforeUse(t *testing.T) {
	tree := mustParse(t, `{"a": 1}`)
	w := tree.GetWalker()
	if _, err := w.GetNode(); err == nil {
		t.Fatalf("expected an error calling GetNode before Root")
	}
}

func TestDumpCompact(t *testing.T) {
	tree := mustParse(t, `{"items": [1, 2]}`)
	var buf bytes.Buffer
	if err := tree.DumpCompact(&buf); err != nil {
		t.Fatalf("DumpCompact: %v", err)
	}
	out := buf.String()
	if out == "" {
		t.Fatalf("expected non-empty dump output")
	}
}

func TestMalformedJSONReturnsStructureError(t *testing.T) {
	tree := New()
	err := tree.Parse([]byte(`{"a": `))
	if err == nil {
		t.Fatalf("expected an error for truncated JSON")
	}
}

func mustOk(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
