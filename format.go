package minpack

// Format bytes for the MessagePack wire grammar.
// See: https://github.com/msgpack/msgpack/blob/master/spec.md
const (
	formatPosFixIntMin byte = 0x00
	formatPosFixIntMax byte = 0x7f

	formatFixMapPrefix   byte = 0x80
	formatFixMapMask     byte = 0xf0
	formatFixArrPrefix   byte = 0x90
	formatFixArrMask     byte = 0xf0
	formatFixStrPrefix   byte = 0xa0
	formatFixStrMask     byte = 0xe0
	formatFixStrMaxBytes int  = 31

	formatNil   byte = 0xc0
	formatFalse byte = 0xc2
	formatTrue  byte = 0xc3

	formatBin8  byte = 0xc4
	formatBin16 byte = 0xc5
	formatBin32 byte = 0xc6

	formatExt8  byte = 0xc7
	formatExt16 byte = 0xc8
	formatExt32 byte = 0xc9

	formatFloat32 byte = 0xca
	formatFloat64 byte = 0xcb

	formatUint8  byte = 0xcc
	formatUint16 byte = 0xcd
	formatUint32 byte = 0xce
	formatUint64 byte = 0xcf
	formatInt8   byte = 0xd0
	formatInt16  byte = 0xd1
	formatInt32  byte = 0xd2
	formatInt64  byte = 0xd3

	formatFixExt1  byte = 0xd4
	formatFixExt2  byte = 0xd5
	formatFixExt4  byte = 0xd6
	formatFixExt8  byte = 0xd7
	formatFixExt16 byte = 0xd8

	formatStr8  byte = 0xd9
	formatStr16 byte = 0xda
	formatStr32 byte = 0xdb

	formatArray16 byte = 0xdc
	formatArray32 byte = 0xdd

	formatMap16 byte = 0xde
	formatMap32 byte = 0xdf

	formatNegFixIntMin byte = 0xe0
)

// extTimestamp is the reserved extension type for the built-in timestamp format.
const extTimestamp int8 = -1

// MessageType categorizes the upcoming value on a MessageReader's stream.
// Mirrors the closed MessagePack type system.
type MessageType int

const (
	TypeNil MessageType = iota
	TypeBoolean
	TypeInteger
	TypeFloat
	TypeString
	TypeBinary
	TypeArray
	TypeMap
	TypeExtension
)

func (t MessageType) String() string {
	switch t {
	case TypeNil:
		return "nil"
	case TypeBoolean:
		return "boolean"
	case TypeInteger:
		return "integer"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	case TypeBinary:
		return "binary"
	case TypeArray:
		return "array"
	case TypeMap:
		return "map"
	case TypeExtension:
		return "extension"
	default:
		return "unknown"
	}
}

// IsFixInt reports whether b encodes a positive or negative fixint.
func IsFixInt(b byte) bool {
	return b <= formatPosFixIntMax || b >= formatNegFixIntMin
}

// IsFixStr reports whether b is a fixstr header (0 to 31 bytes).
func IsFixStr(b byte) bool {
	return b&formatFixStrMask == formatFixStrPrefix
}

// IsFixArray reports whether b is a fixarray header (0 to 15 elements).
func IsFixArray(b byte) bool {
	return b&formatFixArrMask == formatFixArrPrefix
}

// IsFixMap reports whether b is a fixmap header (0 to 15 entries).
func IsFixMap(b byte) bool {
	return b&formatFixMapMask == formatFixMapPrefix
}

// messageTypeOf classifies a tag byte into its MessageType.
func messageTypeOf(tag byte) MessageType {
	switch {
	case tag == formatNil:
		return TypeNil
	case tag == formatFalse || tag == formatTrue:
		return TypeBoolean
	case IsFixInt(tag):
		return TypeInteger
	case tag >= formatUint8 && tag <= formatInt64:
		return TypeInteger
	case tag == formatFloat32 || tag == formatFloat64:
		return TypeFloat
	case IsFixStr(tag), tag == formatStr8, tag == formatStr16, tag == formatStr32:
		return TypeString
	case tag == formatBin8, tag == formatBin16, tag == formatBin32:
		return TypeBinary
	case IsFixArray(tag), tag == formatArray16, tag == formatArray32:
		return TypeArray
	case IsFixMap(tag), tag == formatMap16, tag == formatMap32:
		return TypeMap
	case tag >= formatFixExt1 && tag <= formatFixExt16:
		return TypeExtension
	case tag == formatExt8, tag == formatExt16, tag == formatExt32:
		return TypeExtension
	default:
		return TypeNil
	}
}
