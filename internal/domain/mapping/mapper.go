package mapping

// Mapper translates a current-index taxonomy triple into the previous
// index's vocabulary, using an in-memory load of the mapping edges scoped
// to one (current, previous) index pair.  Resolution cascades from the most
// specific level to the least, first hit wins, and the winning edge supplies
// every previous-side level it carries:
//
//  1. a sub-domain-level edge whose "to" sub-domain equals the current
//     label rewrites the sub-domain and, when populated, the element and
//     main area from that same edge;
//  2. else an element-level edge (one with no sub-domain) whose "to"
//     element equals the current label rewrites the element and, when
//     populated, the main area; the sub-domain stays as-is;
//  3. else a main-area-only edge rewrites the main area;
//  4. else the triple passes through unchanged, so an empty edge set
//     degrades to identity mapping.
type Mapper struct {
	bySubDomain map[string]*SectionMapping
	byElement   map[string]*SectionMapping
	byMainArea  map[string]*SectionMapping
}

// NewMapper indexes the given edges by their "to" label at each edge's own
// level.  When duplicates occur the last edge wins, mirroring the database
// unique constraint that normally prevents them.
func NewMapper(mappings []*SectionMapping) *Mapper {
	m := &Mapper{
		bySubDomain: make(map[string]*SectionMapping),
		byElement:   make(map[string]*SectionMapping),
		byMainArea:  make(map[string]*SectionMapping),
	}
	for _, sm := range mappings {
		switch sm.Level() {
		case LevelSubDomain:
			m.bySubDomain[sm.SubDomainToAr] = sm
		case LevelElement:
			m.byElement[sm.ElementToAr] = sm
		case LevelMainArea:
			m.byMainArea[sm.MainAreaToAr] = sm
		}
	}
	return m
}

// ToPrevious maps a current-index triple to the equivalent previous-index
// triple.  Empty input levels stay empty unless the winning edge supplies
// them.
func (m *Mapper) ToPrevious(current Triple) Triple {
	prev, _ := m.Resolve(current)
	return prev
}

// Resolve is ToPrevious plus the winning edge.  The edge is nil when the
// triple passed through unchanged (identity), which lets coverage reports
// carry the mapping ID that resolved each section.
func (m *Mapper) Resolve(current Triple) (Triple, *SectionMapping) {
	prev := current
	if current.SubDomain != "" {
		if edge, ok := m.bySubDomain[current.SubDomain]; ok {
			prev.SubDomain = edge.SubDomainFromAr
			if edge.ElementFromAr != "" {
				prev.Element = edge.ElementFromAr
			}
			if edge.MainAreaFromAr != "" {
				prev.MainArea = edge.MainAreaFromAr
			}
			return prev, edge
		}
	}
	if current.Element != "" {
		if edge, ok := m.byElement[current.Element]; ok {
			prev.Element = edge.ElementFromAr
			if edge.MainAreaFromAr != "" {
				prev.MainArea = edge.MainAreaFromAr
			}
			return prev, edge
		}
	}
	if current.MainArea != "" {
		if edge, ok := m.byMainArea[current.MainArea]; ok {
			prev.MainArea = edge.MainAreaFromAr
			return prev, edge
		}
	}
	return prev, nil
}

// HasSubDomainMapping reports whether an explicit sub-domain edge exists for
// the given current label, returning the previous-index label.  Callers use
// this to annotate previous-year context responses with the mapped label
// even when no requirement matched.
func (m *Mapper) HasSubDomainMapping(subDomain string) (string, bool) {
	edge, ok := m.bySubDomain[subDomain]
	if !ok {
		return "", false
	}
	return edge.SubDomainFromAr, true
}
