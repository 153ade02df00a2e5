package protocol

import (
	"fmt"
	"strconv"
)

// ZigbeeAddress is a MyHome Play mesh address: a 32-bit device
// identifier (conventionally displayed in hex) plus a unit id.
//
// The Frame codec (internal/frame) only accepts decimal digit strings
// per its invariant, so the WHERE field carries the identifier's
// decimal form; String renders the conventional hex form for logs and
// the MQTT bridge's topic naming (external, not part of this module).
type ZigbeeAddress struct {
	ID   uint32
	Unit int
}

const (
	zigbeeMinUnit = 1
	zigbeeMaxUnit = 15
)

// NewZigbeeAddress validates and builds a Zigbee address.
func NewZigbeeAddress(id uint32, unit int) (ZigbeeAddress, error) {
	if unit < zigbeeMinUnit || unit > zigbeeMaxUnit {
		return ZigbeeAddress{}, fmt.Errorf("%w: Zigbee unit %d out of range 1..15", ErrInvalidAddress, unit)
	}
	return ZigbeeAddress{ID: id, Unit: unit}, nil
}

func (a ZigbeeAddress) Dialect() Dialect { return Zigbee }

// WhereField encodes the identifier as a decimal value with the unit
// carried as a parameter, e.g. WHERE = "<id>#<unit>".
func (a ZigbeeAddress) WhereField() FieldValue {
	return FieldValue{
		Value:  strconv.FormatUint(uint64(a.ID), 10),
		Params: []string{strconv.Itoa(a.Unit)},
	}
}

func (a ZigbeeAddress) String() string {
	return fmt.Sprintf("Zigbee(id=%08X,unit=%d)", a.ID, a.Unit)
}

// DecodeZigbeeAddress decodes a WHERE field value/params pair
// produced by WhereField.
func DecodeZigbeeAddress(value string, params []string) (ZigbeeAddress, error) {
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return ZigbeeAddress{}, fmt.Errorf("%w: Zigbee id %q: %v", ErrInvalidAddress, value, err)
	}
	if len(params) != 1 {
		return ZigbeeAddress{}, fmt.Errorf("%w: Zigbee WHERE missing unit parameter", ErrInvalidAddress)
	}
	unit, err := strconv.Atoi(params[0])
	if err != nil {
		return ZigbeeAddress{}, fmt.Errorf("%w: Zigbee unit %q: %v", ErrInvalidAddress, params[0], err)
	}
	return NewZigbeeAddress(uint32(id), unit)
}
