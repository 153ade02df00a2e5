// Package protocol is the high-level typed view over frame.Frame,
// parameterized by OpenWebNet dialect (SCS / Nitoo / Zigbee): message
// classification, address codecs, and per-dialect command/dimension
// tables — a typed model built on top of a byte-level codec.
package protocol

import (
	"errors"
	"fmt"
)

// Dialect identifies which of the three OpenWebNet dialects a Message
// or Address belongs to.
type Dialect int

const (
	Scs Dialect = iota
	Nitoo
	Zigbee
)

func (d Dialect) String() string {
	switch d {
	case Scs:
		return "SCS"
	case Nitoo:
		return "Nitoo"
	case Zigbee:
		return "Zigbee"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// Medium is the transport-level hint carried by a Message.
type Medium int

const (
	MediumBus Medium = iota
	MediumPowerline
	MediumRadio
)

// Mode is the transport-level delivery hint carried by a Message.
type Mode int

const (
	ModeUnicast Mode = iota
	ModeMulticast
	ModeBroadcast
)

// Kind classifies a Message by its wire shape.
type Kind int

const (
	KindBusCommand Kind = iota
	KindStatusRequest
	KindDimensionRequest
	KindDimensionRead
	KindDimensionSet
	KindAck
	KindNack
	KindBusy
	// KindUnknownCommand is produced when (WHO, WHAT|DIMENSION) has no
	// table entry; the raw fields are preserved so higher layers can
	// still pass the message through.
	KindUnknownCommand
)

func (k Kind) String() string {
	switch k {
	case KindBusCommand:
		return "BusCommand"
	case KindStatusRequest:
		return "StatusRequest"
	case KindDimensionRequest:
		return "DimensionRequest"
	case KindDimensionRead:
		return "DimensionRead"
	case KindDimensionSet:
		return "DimensionSet"
	case KindAck:
		return "Ack"
	case KindNack:
		return "Nack"
	case KindBusy:
		return "Busy"
	case KindUnknownCommand:
		return "UnknownCommand"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrInvalidAddress is the sentinel for address encode/decode
// failures; wrapped with the offending component's name.
var ErrInvalidAddress = errors.New("invalid address")

// ErrUnknownFrameShape is returned when a frame matches none of the
// five wire shapes Classify recognizes — it is not itself a protocol
// error the way ErrInvalidAddress is, since Ack/Nack/Busy are fixed
// literals handled separately by Classify.
var ErrUnknownFrameShape = errors.New("unknown frame shape")

// Address is a tagged value whose wire encoding is dialect-specific.
// SCSAddress, NitooAddress and ZigbeeAddress implement it.
type Address interface {
	Dialect() Dialect
	// WhereField renders the address into the WHERE field of a frame.
	WhereField() FieldValue
	String() string
}

// FieldValue is the plain (value, params) shape an Address or
// command/dimension identifier renders into; internal/gateway and
// internal/protocol build frame.Field from it without importing
// frame.Parameter directly in every call site.
type FieldValue struct {
	Value  string
	Params []string
}
