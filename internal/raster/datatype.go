package raster

import (
	"strings"

	"github.com/pkg/errors"
)

// DataType identifies the numeric type of a single pixel word.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeByte
	TypeInt16
	TypeUInt16
	TypeInt32
	TypeUInt32
	TypeFloat32
	TypeFloat64
)

var typeNames = map[DataType]string{
	TypeUnknown: "Unknown",
	TypeByte:    "Byte",
	TypeInt16:   "Int16",
	TypeUInt16:  "UInt16",
	TypeInt32:   "Int32",
	TypeUInt32:  "UInt32",
	TypeFloat32: "Float32",
	TypeFloat64: "Float64",
}

var typeSizes = map[DataType]int{
	TypeByte:    1,
	TypeInt16:   2,
	TypeUInt16:  2,
	TypeInt32:   4,
	TypeUInt32:  4,
	TypeFloat32: 4,
	TypeFloat64: 8,
}

func (t DataType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "Unknown"
}

// Size returns the width of one word in bytes, 0 for TypeUnknown.
func (t DataType) Size() int {
	return typeSizes[t]
}

func (t DataType) Valid() bool {
	_, ok := typeSizes[t]
	return ok
}

// ParseDataType resolves a case-insensitive type name as used by the
// --ot command line option.
func ParseDataType(name string) (DataType, error) {
	for t, s := range typeNames {
		if t != TypeUnknown && strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return TypeUnknown, errors.Errorf("unknown pixel data type <%s>", name)
}
