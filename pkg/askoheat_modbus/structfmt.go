package askoheat_modbus

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

// Packed binary formats in the style of ">L" or "<2hf": an optional byte
// order prefix followed by type codes with optional repeat counts.
// Native alignment ('@') is not applied, sizes are always the standard ones.

type formatItem struct {
	code  byte
	count int
}

type structFormat struct {
	order binary.ByteOrder
	items []formatItem
	size  int
}

var formatCodeSizes = map[byte]int{
	'x': 1,
	'c': 1,
	'b': 1,
	'B': 1,
	'?': 1,
	'h': 2,
	'H': 2,
	'i': 4,
	'I': 4,
	'l': 4,
	'L': 4,
	'q': 8,
	'Q': 8,
	'f': 4,
	'd': 8,
	's': 1,
}

func parseFormat(format string) (*structFormat, error) {
	sf := &structFormat{order: binary.NativeEndian}
	rest := format
	if len(rest) > 0 {
		switch rest[0] {
		case '>', '!':
			sf.order = binary.BigEndian
			rest = rest[1:]
		case '<':
			sf.order = binary.LittleEndian
			rest = rest[1:]
		case '=', '@':
			rest = rest[1:]
		}
	}
	for i := 0; i < len(rest); {
		j := i
		for j < len(rest) && rest[j] >= '0' && rest[j] <= '9' {
			j++
		}
		count := 1
		if j > i {
			n, err := strconv.Atoi(rest[i:j])
			if err != nil {
				return nil, fmt.Errorf("struct format %q: %w", format, err)
			}
			count = n
		}
		if j >= len(rest) {
			return nil, fmt.Errorf("struct format %q: dangling repeat count", format)
		}
		code := rest[j]
		if code == ' ' {
			i = j + 1
			continue
		}
		size, ok := formatCodeSizes[code]
		if !ok {
			return nil, fmt.Errorf("struct format %q: unsupported code %q", format, code)
		}
		sf.items = append(sf.items, formatItem{code: code, count: count})
		sf.size += size * count
		i = j + 1
	}
	if len(sf.items) == 0 {
		return nil, fmt.Errorf("struct format %q: no fields", format)
	}
	return sf, nil
}

// Unpack decodes data according to format. len(data) must match the
// format size exactly.
func Unpack(format string, data []byte) ([]any, error) {
	sf, err := parseFormat(format)
	if err != nil {
		return nil, err
	}
	if len(data) != sf.size {
		return nil, fmt.Errorf("struct format %q requires %d bytes, got %d", format, sf.size, len(data))
	}
	var values []any
	pos := 0
	for _, item := range sf.items {
		if item.code == 's' {
			values = append(values, string(data[pos:pos+item.count]))
			pos += item.count
			continue
		}
		for n := 0; n < item.count; n++ {
			switch item.code {
			case 'x':
			case 'c':
				values = append(values, data[pos])
			case 'b':
				values = append(values, int8(data[pos]))
			case 'B':
				values = append(values, data[pos])
			case '?':
				values = append(values, data[pos] != 0)
			case 'h':
				values = append(values, int16(sf.order.Uint16(data[pos:])))
			case 'H':
				values = append(values, sf.order.Uint16(data[pos:]))
			case 'i', 'l':
				values = append(values, int32(sf.order.Uint32(data[pos:])))
			case 'I', 'L':
				values = append(values, sf.order.Uint32(data[pos:]))
			case 'q':
				values = append(values, int64(sf.order.Uint64(data[pos:])))
			case 'Q':
				values = append(values, sf.order.Uint64(data[pos:]))
			case 'f':
				values = append(values, math.Float32frombits(sf.order.Uint32(data[pos:])))
			case 'd':
				values = append(values, math.Float64frombits(sf.order.Uint64(data[pos:])))
			}
			pos += formatCodeSizes[item.code]
		}
	}
	return values, nil
}
