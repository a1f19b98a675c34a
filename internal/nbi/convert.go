package nbi

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/orrery/core"
	"github.com/signalsfoundry/orrery/model"
	"google.golang.org/protobuf/types/known/structpb"
)

// SnapshotToStruct renders a published frame. Matrices are column-major.
func SnapshotToStruct(s model.Snapshot) *structpb.Struct {
	bodies := make([]*structpb.Value, 0, len(s.Bodies))
	for _, b := range s.Bodies {
		bodies = append(bodies, structpb.NewStructValue(BodyToStruct(b)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"seq":        structpb.NewNumberValue(float64(s.Seq)),
		"sim_time":   structpb.NewStringValue(s.SimTime.UTC().Format(time.RFC3339Nano)),
		"seconds":    structpb.NewNumberValue(s.Seconds),
		"julian_day": structpb.NewNumberValue(s.JulianDay),
		"bodies":     structpb.NewListValue(&structpb.ListValue{Values: bodies}),
		"camera":     structpb.NewStructValue(CameraToStruct(s.Camera)),
	}}
}

// BodiesToStruct wraps a body list as {"bodies": [...]}.
func BodiesToStruct(bodies []model.BodyState) *structpb.Struct {
	values := make([]*structpb.Value, 0, len(bodies))
	for _, b := range bodies {
		values = append(values, structpb.NewStructValue(BodyToStruct(b)))
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"bodies": structpb.NewListValue(&structpb.ListValue{Values: values}),
	}}
}

func BodyToStruct(b model.BodyState) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"name":     structpb.NewStringValue(b.Name),
		"type":     structpb.NewStringValue(b.Type),
		"primary":  structpb.NewStringValue(b.Primary),
		"radius":   structpb.NewNumberValue(b.Radius),
		"position": vectorValue(b.Position),
		"velocity": vectorValue(b.Velocity),
		"valid":    structpb.NewBoolValue(b.Valid),
	}}
}

// orbitPathValue renders sampled orbit offsets as a list of {x,y,z}.
func orbitPathValue(path []core.Vec3) *structpb.Value {
	values := make([]*structpb.Value, len(path))
	for i, p := range path {
		values[i] = vectorValue(model.Motion{X: p.X, Y: p.Y, Z: p.Z})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

func CameraToStruct(c model.CameraState) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"position":    vectorValue(c.Position),
		"target":      vectorValue(c.Target),
		"orientation": numberList(c.Orientation[:]),
		"fov":         structpb.NewNumberValue(c.FOV),
		"near":        structpb.NewNumberValue(c.Near),
		"far":         structpb.NewNumberValue(c.Far),
		"width":       structpb.NewNumberValue(float64(c.Width)),
		"height":      structpb.NewNumberValue(float64(c.Height)),
		"view":        numberList(c.View[:]),
		"projection":  numberList(c.Projection[:]),
	}}
}

func vectorValue(m model.Motion) *structpb.Value {
	return structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
		"x": structpb.NewNumberValue(m.X),
		"y": structpb.NewNumberValue(m.Y),
		"z": structpb.NewNumberValue(m.Z),
	}})
}

func numberList(xs []float64) *structpb.Value {
	values := make([]*structpb.Value, len(xs))
	for i, x := range xs {
		values[i] = structpb.NewNumberValue(x)
	}
	return structpb.NewListValue(&structpb.ListValue{Values: values})
}

// numberField reads a numeric field from a request struct. Missing fields
// read as zero; a field of any other kind is rejected.
func numberField(s *structpb.Struct, key string) (float64, error) {
	if s == nil {
		return 0, nil
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, fmt.Errorf("%w: field %q must be a number", ErrInvalidArgument, key)
	}
	return n.NumberValue, nil
}
