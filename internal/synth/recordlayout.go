package synth

import (
	"fmt"

	"github.com/DanielT/a2ltool/internal/a2ldatatype"
	"github.com/DanielT/a2ltool/internal/a2lmodel"
)

// axisRoles lists the RECORD_LAYOUT axis component role tags in
// fastest-to-slowest order, matching original_source's
// `[axis_pts_x, axis_pts_y, axis_pts_z, axis_pts_4, axis_pts_5]` field
// order in src/update/characteristic.rs.
var axisRoles = []string{"AXIS_PTS_X", "AXIS_PTS_Y", "AXIS_PTS_Z", "AXIS_PTS_4", "AXIS_PTS_5"}

// SelectRecordLayout looks up (or creates) a canonical RECORD_LAYOUT
// whose component list matches shape's addressing needs, per spec.md
// §4.5: "New layouts are only synthesized if no compatible one exists."
// baseName seeds a fresh layout's name when none is reusable.
func SelectRecordLayout(module *a2lmodel.Module, baseName string, shape typeShape, fncType a2ldatatype.DataType) (string, error) {
	wanted := buildComponents(shape, fncType)

	for _, existing := range module.RecordLayouts.All() {
		if componentsEqual(existing.Components, wanted) {
			return existing.Name, nil
		}
	}

	name := baseName + "_RECORD_LAYOUT"
	for i := 2; ; i++ {
		if _, exists := module.RecordLayouts.Get(name); !exists {
			break
		}
		name = fmt.Sprintf("%s_RECORD_LAYOUT_%d", baseName, i)
	}
	module.RecordLayouts.Insert(name, &a2lmodel.RecordLayout{Name: name, Components: wanted})
	return name, nil
}

// buildComponents lays out a RECORD_LAYOUT's components: internal axes
// (fastest axis first) precede FNC_VALUES, matching
// original_source/src/update/record_layout.rs's component ordering.
func buildComponents(shape typeShape, fncType a2ldatatype.DataType) []a2lmodel.RecordLayoutComponent {
	var components []a2lmodel.RecordLayoutComponent
	pos := 0

	for i, axis := range shape.axes {
		if i >= len(axisRoles) {
			break
		}
		components = append(components, a2lmodel.RecordLayoutComponent{
			Role:       axisRoles[i],
			Position:   pos,
			Datatype:   axis.datatype,
			IndexMode:  "INDEX_INCR",
			Addressing: "DIRECT",
		})
		pos++
	}

	fnc := a2lmodel.RecordLayoutComponent{
		Role:       "FNC_VALUES",
		Position:   pos,
		Datatype:   fncType,
		IndexMode:  "ROW_DIR",
		Addressing: "DIRECT",
	}
	components = append(components, fnc)
	return components
}

func componentsEqual(a, b []a2lmodel.RecordLayoutComponent) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Role != b[i].Role || a[i].Datatype != b[i].Datatype ||
			a[i].IndexMode != b[i].IndexMode || a[i].Addressing != b[i].Addressing {
			return false
		}
	}
	return true
}
