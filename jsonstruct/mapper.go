package jsonstruct

// structureMapper walks a tree's repeating regions depth-first, emitting a
// TableRange each time the outermost repeat ancestor is closed
// (json::detail::structure_mapper).
type structureMapper struct {
	walker       *Walker
	rangeHandler RangeHandler
	repeatCount  int
	current      TableRange
}

func newStructureMapper(rh RangeHandler, w *Walker) *structureMapper {
	return &structureMapper{walker: w, rangeHandler: rh}
}

func (m *structureMapper) run() error {
	if err := m.reset(); err != nil {
		return err
	}
	return m.traverse()
}

func (m *structureMapper) reset() error {
	if err := m.walker.Root(); err != nil {
		return err
	}
	m.current = TableRange{}
	m.repeatCount = 0
	return nil
}

func (m *structureMapper) pushRange() {
	m.rangeHandler(m.current)
	m.current = TableRange{}
}

func (m *structureMapper) traverse() error {
	node, err := m.walker.GetNode()
	if err != nil {
		return err
	}

	if node.Repeat {
		m.repeatCount++
		path, err := m.walker.BuildRowGroupPath()
		if err != nil {
			return err
		}
		m.current.RowGroups = append(m.current.RowGroups, path)
	}

	if m.repeatCount > 0 && node.Type == NodeValue {
		paths, err := m.walker.BuildFieldPaths()
		if err != nil {
			return err
		}
		m.current.Paths = append(m.current.Paths, paths...)
	}

	childCount, err := m.walker.ChildCount()
	if err != nil {
		return err
	}
	for i := 0; i < childCount; i++ {
		if err := m.walker.Descend(i); err != nil {
			return err
		}
		if err := m.traverse(); err != nil {
			return err
		}
		if err := m.walker.Ascend(); err != nil {
			return err
		}
	}

	if node.Repeat {
		m.repeatCount--
		if m.repeatCount == 0 {
			m.pushRange()
		}
	}

	return nil
}
