package protocol

import (
	"fmt"

	"github.com/opennetty/opennetty/internal/frame"
)

// Message is the high-level typed view over a frame.Frame.
type Message struct {
	Dialect Dialect
	Kind    Kind

	Who       string     // raw WHO digit string
	WhereRaw  frame.Field // raw WHERE field, as it appeared on the wire
	Address   Address     // populated once WhereRaw is decoded for Dialect; nil until then

	Command   string // raw WHAT value, set for BusCommand
	Dimension string // raw DIMENSION identifier, set for Dimension*

	// CommandName/DimensionName are the symbolic identifiers resolved
	// from Command/Dimension via the dialect's tables (e.g.
	// "Lighting.On"); empty when Kind is KindUnknownCommand.
	CommandName   string
	DimensionName string

	Values []string // value list, set for DimensionRead/DimensionSet

	Medium Medium
	Mode   Mode

	Raw frame.Frame // original frame, always preserved for logging/pass-through
}

// frameShape is the wire-shape-only classification, before command and
// dimension tables are consulted.
type frameShape int

const (
	shapeBusCommand frameShape = iota
	shapeStatusRequest
	shapeDimensionRequest
	shapeDimensionRead
	shapeDimensionSet
)

func isWhoPrefixField(f frame.Field) bool {
	return f.Value == "" && len(f.Params) == 1
}

// Classify derives a Message from a raw Frame for the given dialect.
// It determines the wire shape from field count and the WHO-prefix
// marker, then resolves the WHO/WHAT or WHO/DIMENSION pair against the
// dialect's tables; an unresolved pair degrades Kind to
// KindUnknownCommand while every raw field is preserved unchanged, so
// frames for commands this build doesn't know about still round-trip.
func Classify(dialect Dialect, f frame.Frame) (Message, error) {
	switch {
	case f.Equal(frame.Ack):
		return Message{Dialect: dialect, Kind: KindAck, Raw: f}, nil
	case f.Equal(frame.Nack):
		return Message{Dialect: dialect, Kind: KindNack, Raw: f}, nil
	case f.Equal(frame.Busy):
		return Message{Dialect: dialect, Kind: KindBusy, Raw: f}, nil
	}

	if len(f.Fields) == 0 {
		return Message{}, fmt.Errorf("%w: empty frame", ErrUnknownFrameShape)
	}

	first := f.Fields[0]
	if isWhoPrefixField(first) {
		return classifySpecialShape(dialect, f)
	}
	return classifyBusCommand(dialect, f)
}

func classifyBusCommand(dialect Dialect, f frame.Frame) (Message, error) {
	if len(f.Fields) < 3 {
		return Message{}, fmt.Errorf("%w: BusCommand needs WHO/WHAT/WHERE, got %d fields", ErrUnknownFrameShape, len(f.Fields))
	}
	msg := Message{
		Dialect:  dialect,
		Kind:     KindBusCommand,
		Who:      f.Fields[0].Value,
		Command:  f.Fields[1].Value,
		WhereRaw: f.Fields[2],
		Medium:   defaultMedium(dialect),
		Mode:     ModeUnicast,
		Raw:      f,
	}
	if name, ok := lookupCommand(dialect, msg.Who, msg.Command); ok {
		msg.CommandName = name
	} else {
		msg.Kind = KindUnknownCommand
	}
	return msg, nil
}

func classifySpecialShape(dialect Dialect, f frame.Frame) (Message, error) {
	who := string(f.Fields[0].Params[0])
	if len(f.Fields) < 2 {
		return Message{}, fmt.Errorf("%w: special shape needs at least WHO/WHERE, got %d fields", ErrUnknownFrameShape, len(f.Fields))
	}
	where := f.Fields[1]

	if len(f.Fields) == 2 {
		return Message{
			Dialect: dialect, Kind: KindStatusRequest, Who: who, WhereRaw: where,
			Medium: defaultMedium(dialect), Mode: ModeUnicast, Raw: f,
		}, nil
	}

	third := f.Fields[2]
	if isWhoPrefixField(third) {
		// *#WHO*WHERE*#DIMENSION*V1*V2*…## -> DimensionSet
		dim := string(third.Params[0])
		msg := Message{
			Dialect: dialect, Kind: KindDimensionSet, Who: who, WhereRaw: where, Dimension: dim,
			Values: fieldValues(f.Fields[3:]), Medium: defaultMedium(dialect), Mode: ModeUnicast, Raw: f,
		}
		if name, ok := lookupDimension(dialect, who, dim); ok {
			msg.DimensionName = name
		} else {
			msg.Kind = KindUnknownCommand
		}
		return msg, nil
	}

	dim := third.Value
	kind := KindDimensionRequest
	var values []string
	if len(f.Fields) > 3 {
		kind = KindDimensionRead
		values = fieldValues(f.Fields[3:])
	}
	msg := Message{
		Dialect: dialect, Kind: kind, Who: who, WhereRaw: where, Dimension: dim,
		Values: values, Medium: defaultMedium(dialect), Mode: ModeUnicast, Raw: f,
	}
	if name, ok := lookupDimension(dialect, who, dim); ok {
		msg.DimensionName = name
	} else {
		msg.Kind = KindUnknownCommand
	}
	return msg, nil
}

func fieldValues(fields []frame.Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Value
	}
	return out
}

func defaultMedium(d Dialect) Medium {
	switch d {
	case Nitoo:
		return MediumPowerline
	case Zigbee:
		return MediumRadio
	default:
		return MediumBus
	}
}

// whereFieldOf turns an Address into the wire WHERE field, carrying the
// address's parameters (the Zigbee unit) as field parameters.
func whereFieldOf(addr Address) frame.Field {
	fv := addr.WhereField()
	f := frame.NewField(fv.Value)
	if len(fv.Params) > 0 {
		f = f.WithParams(fv.Params...)
	}
	return f
}

// Encode builds the wire Frame for msg. It is the inverse of Classify:
// for every Message built by Classify, Encode(Classify(f)) reproduces
// an equal Frame (parameter order preserved).
func Encode(msg Message) (frame.Frame, error) {
	switch msg.Kind {
	case KindAck:
		return frame.Ack, nil
	case KindNack:
		return frame.Nack, nil
	case KindBusy:
		return frame.Busy, nil
	}

	where := msg.WhereRaw
	if msg.Address != nil {
		where = whereFieldOf(msg.Address)
	}

	switch msg.Kind {
	case KindBusCommand, KindUnknownCommand:
		if msg.Command == "" {
			// Classify leaves Command empty for a dimension-shaped frame
			// whose (WHO, DIMENSION) has no table entry; re-emit the
			// preserved raw frame so it still round-trips. Only a
			// hand-built Message with neither a WHAT nor a Raw frame fails.
			if msg.Kind == KindUnknownCommand && len(msg.Raw.Fields) > 0 {
				return msg.Raw, nil
			}
			return frame.Frame{}, fmt.Errorf("%w: BusCommand missing WHAT", ErrUnknownFrameShape)
		}
		return frame.New(frame.NewField(msg.Who), frame.NewField(msg.Command), where), nil

	case KindStatusRequest:
		return frame.New(frame.NewField("").WithParams(msg.Who), where), nil

	case KindDimensionRequest:
		return frame.New(frame.NewField("").WithParams(msg.Who), where, frame.NewField(msg.Dimension)), nil

	case KindDimensionRead:
		fields := []frame.Field{frame.NewField("").WithParams(msg.Who), where, frame.NewField(msg.Dimension)}
		for _, v := range msg.Values {
			fields = append(fields, frame.NewField(v))
		}
		return frame.New(fields...), nil

	case KindDimensionSet:
		fields := []frame.Field{frame.NewField("").WithParams(msg.Who), where, frame.NewField("").WithParams(msg.Dimension)}
		for _, v := range msg.Values {
			fields = append(fields, frame.NewField(v))
		}
		return frame.New(fields...), nil

	default:
		return frame.Frame{}, fmt.Errorf("%w: kind %s", ErrUnknownFrameShape, msg.Kind)
	}
}

// WithDecodedAddress returns a copy of msg with Address populated by
// decoding WhereRaw for msg.Dialect.
func (m Message) WithDecodedAddress() (Message, error) {
	addr, err := DecodeAddress(m.Dialect, m.WhereRaw)
	if err != nil {
		return m, err
	}
	m.Address = addr
	return m, nil
}

// DecodeAddress decodes a raw WHERE field into a dialect-specific
// Address.
func DecodeAddress(dialect Dialect, where frame.Field) (Address, error) {
	switch dialect {
	case Scs:
		return DecodeSCSAddress(where.Value)
	case Nitoo:
		return DecodeNitooAddress(where.Value)
	case Zigbee:
		params := make([]string, len(where.Params))
		for i, p := range where.Params {
			params[i] = string(p)
		}
		return DecodeZigbeeAddress(where.Value, params)
	default:
		return nil, fmt.Errorf("%w: unknown dialect %s", ErrInvalidAddress, dialect)
	}
}

// NewBusCommandMessage builds a Message ready for Encode from a
// symbolic command name (e.g. CommandLightingOn), resolving it to the
// dialect's raw WHO/WHAT digits.
func NewBusCommandMessage(dialect Dialect, addr Address, command string) (Message, error) {
	who, ok := whoFor(dialect, command)
	if !ok {
		return Message{}, fmt.Errorf("%w: no WHO registered for command %q on %s", ErrUnknownFrameShape, command, dialect)
	}
	what, ok := whatFor(dialect, command)
	if !ok {
		return Message{}, fmt.Errorf("%w: no WHAT registered for command %q on %s", ErrUnknownFrameShape, command, dialect)
	}
	msg := Message{
		Dialect: dialect, Kind: KindBusCommand, Who: who, Command: what, CommandName: command,
		Address: addr, WhereRaw: whereFieldOf(addr), Medium: defaultMedium(dialect), Mode: ModeUnicast,
	}
	return msg, nil
}

// NewDimensionRequestMessage builds a DimensionRequest Message from a
// symbolic dimension name (e.g. DimensionLightingLevel).
func NewDimensionRequestMessage(dialect Dialect, addr Address, dimension string) (Message, error) {
	who, dim, ok := resolveDimension(dialect, dimension)
	if !ok {
		return Message{}, fmt.Errorf("%w: no WHO registered for dimension %q on %s", ErrUnknownFrameShape, dimension, dialect)
	}
	return Message{
		Dialect: dialect, Kind: KindDimensionRequest, Who: who, Dimension: dim, DimensionName: dimension,
		Address: addr, WhereRaw: whereFieldOf(addr), Medium: defaultMedium(dialect), Mode: ModeUnicast,
	}, nil
}

// NewStatusRequestMessage builds a StatusRequest Message for who (a raw
// WHO subsystem code, e.g. WhoLighting) at addr. Unlike the other
// constructors it takes WHO directly rather than resolving it from a
// registered command, since a StatusRequest targets a subsystem, not
// one of its commands.
func NewStatusRequestMessage(dialect Dialect, addr Address, who string) (Message, error) {
	return Message{
		Dialect: dialect, Kind: KindStatusRequest, Who: who,
		Address: addr, WhereRaw: whereFieldOf(addr), Medium: defaultMedium(dialect), Mode: ModeUnicast,
	}, nil
}

// NewDimensionSetMessage builds a DimensionSet Message from a symbolic
// dimension name.
func NewDimensionSetMessage(dialect Dialect, addr Address, dimension string, values []string) (Message, error) {
	who, dim, ok := resolveDimension(dialect, dimension)
	if !ok {
		return Message{}, fmt.Errorf("%w: no WHO registered for dimension %q on %s", ErrUnknownFrameShape, dimension, dialect)
	}
	return Message{
		Dialect: dialect, Kind: KindDimensionSet, Who: who, Dimension: dim, DimensionName: dimension, Values: values,
		Address: addr, WhereRaw: whereFieldOf(addr), Medium: defaultMedium(dialect), Mode: ModeUnicast,
	}, nil
}
