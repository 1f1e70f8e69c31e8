package ren

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/hostilefork/rebol-sub000/internal/evaluator"
)

// ErrUnsupportedType is returned when a Go value has no language
// counterpart, or a language value cannot fill a Go type.
var ErrUnsupportedType = errors.New("unsupported type")

var valueType = reflect.TypeOf(evaluator.Value{})

// Marshaller handles conversion between Go and language values.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a language value. Integers, bools,
// strings and slices of those are supported; nil becomes null.
func (m *Marshaller) ToValue(val any) (evaluator.Value, error) {
	if val == nil {
		return evaluator.Null(), nil
	}
	if v, ok := val.(evaluator.Value); ok {
		return v, nil
	}

	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return evaluator.Null(), nil
		}
		return m.ToValue(v.Elem().Interface())
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return evaluator.Integer(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return evaluator.Value{}, fmt.Errorf("%d overflows integer", u)
		}
		return evaluator.Integer(int64(u)), nil
	case reflect.Bool:
		return evaluator.Logic(v.Bool()), nil
	case reflect.String:
		return evaluator.Text(v.String()), nil
	case reflect.Slice, reflect.Array:
		return m.sliceToBlock(v)
	}
	return evaluator.Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, val)
}

func (m *Marshaller) sliceToBlock(v reflect.Value) (evaluator.Value, error) {
	cells := make([]evaluator.Value, v.Len())
	for i := range cells {
		elem, err := m.ToValue(v.Index(i).Interface())
		if err != nil {
			return evaluator.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		cells[i] = elem
	}
	return evaluator.BlockOf(evaluator.KindBlock, evaluator.NewArray(cells)), nil
}

// FromValue converts a language value to Go. targetType is optional; when
// nil the natural mapping is used (int64, bool, string, []any, nil).
func (m *Marshaller) FromValue(v evaluator.Value, targetType reflect.Type) (any, error) {
	if targetType == valueType {
		return v, nil
	}
	natural, err := m.natural(v)
	if err != nil {
		return nil, err
	}
	if targetType == nil || targetType.Kind() == reflect.Interface {
		return natural, nil
	}
	if natural == nil {
		return reflect.Zero(targetType).Interface(), nil
	}

	rv := reflect.ValueOf(natural)
	switch targetType.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := natural.(int64)
		if !ok {
			break
		}
		out := reflect.New(targetType).Elem()
		if out.OverflowInt(n) {
			return nil, fmt.Errorf("%d overflows %s", n, targetType)
		}
		out.SetInt(n)
		return out.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, ok := natural.(int64)
		if !ok {
			break
		}
		out := reflect.New(targetType).Elem()
		if n < 0 || out.OverflowUint(uint64(n)) {
			return nil, fmt.Errorf("%d overflows %s", n, targetType)
		}
		out.SetUint(uint64(n))
		return out.Interface(), nil
	case reflect.Slice:
		if v.Kind != evaluator.KindBlock && v.Kind != evaluator.KindGroup {
			break
		}
		cells := v.Cells()
		out := reflect.MakeSlice(targetType, len(cells), len(cells))
		for i := range cells {
			elem, err := m.FromValue(cells[i], targetType.Elem())
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			if elem != nil {
				out.Index(i).Set(reflect.ValueOf(elem))
			}
		}
		return out.Interface(), nil
	default:
		if rv.Kind() == targetType.Kind() && rv.Type().ConvertibleTo(targetType) {
			return rv.Convert(targetType).Interface(), nil
		}
	}
	return nil, fmt.Errorf("%w: cannot convert %s to %s", ErrUnsupportedType, v.Kind, targetType)
}

func (m *Marshaller) natural(v evaluator.Value) (any, error) {
	if v.Quotes > 0 {
		return nil, fmt.Errorf("%w: quoted %s", ErrUnsupportedType, v.Kind)
	}
	switch v.Kind {
	case evaluator.KindNull, evaluator.KindBlank:
		return nil, nil
	case evaluator.KindInteger:
		return v.Int, nil
	case evaluator.KindLogic:
		return v.Logic(), nil
	case evaluator.KindText, evaluator.KindTag, evaluator.KindIssue:
		return v.Text, nil
	case evaluator.KindBlock, evaluator.KindGroup:
		cells := v.Cells()
		out := make([]any, len(cells))
		for i := range cells {
			elem, err := m.natural(cells[i])
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = elem
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Kind)
}
