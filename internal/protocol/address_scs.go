package protocol

import (
	"fmt"
	"strconv"
)

// SCSAddress is a point-to-point or area/group address on the SCS
// ("MyHome") bus: an area (1..9, 0 meaning all areas) and a point
// (1..15 for point-to-point, 0 meaning the whole area as a group).
type SCSAddress struct {
	Area  int
	Point int
}

// NewSCSAddress validates and builds an SCS point-to-point address.
func NewSCSAddress(area, point int) (SCSAddress, error) {
	if area < 0 || area > 9 {
		return SCSAddress{}, fmt.Errorf("%w: SCS area %d out of range 0..9", ErrInvalidAddress, area)
	}
	if point < 0 || point > 15 {
		return SCSAddress{}, fmt.Errorf("%w: SCS point %d out of range 0..15", ErrInvalidAddress, point)
	}
	return SCSAddress{Area: area, Point: point}, nil
}

func (a SCSAddress) Dialect() Dialect { return Scs }

// WhereField encodes WHERE as the concatenation of area then point,
// using two digits for point whenever it needs them (point >= 10);
// area is always exactly one digit, so the concatenation is
// unambiguous to decode by length alone.
func (a SCSAddress) WhereField() FieldValue {
	if a.Point >= 10 {
		return FieldValue{Value: fmt.Sprintf("%d%02d", a.Area, a.Point)}
	}
	return FieldValue{Value: fmt.Sprintf("%d%d", a.Area, a.Point)}
}

func (a SCSAddress) String() string {
	return fmt.Sprintf("SCS(area=%d,point=%d)", a.Area, a.Point)
}

// DecodeSCSAddress decodes a WHERE value produced by WhereField.
func DecodeSCSAddress(where string) (SCSAddress, error) {
	switch len(where) {
	case 0:
		return SCSAddress{}, fmt.Errorf("%w: empty SCS WHERE", ErrInvalidAddress)
	case 2, 3:
		area, err := strconv.Atoi(where[:1])
		if err != nil {
			return SCSAddress{}, fmt.Errorf("%w: SCS area %q: %v", ErrInvalidAddress, where[:1], err)
		}
		point, err := strconv.Atoi(where[1:])
		if err != nil {
			return SCSAddress{}, fmt.Errorf("%w: SCS point %q: %v", ErrInvalidAddress, where[1:], err)
		}
		return NewSCSAddress(area, point)
	default:
		return SCSAddress{}, fmt.Errorf("%w: SCS WHERE %q has unexpected length", ErrInvalidAddress, where)
	}
}
