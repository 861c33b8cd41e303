package askoheat_modbus

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownBlock = errors.New("unknown register block")
	ErrUnknownKey   = errors.New("unknown entry key")
	ErrNotWritable  = errors.New("entry is read only")
)

// AllBlocks in polling priority order.
var AllBlocks = []*BlockDescriptor{
	EMABlock,
	DataBlock,
	ConfigBlock,
	ParameterBlock,
}

func BlockByName(name string) (*BlockDescriptor, error) {
	for _, b := range AllBlocks {
		if strings.EqualFold(b.Name, name) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBlock, name)
}

// Writable reports whether entries of the category may be written.
func (c Category) Writable() bool {
	switch c {
	case CategorySwitch, CategoryNumber, CategoryText, CategoryTime, CategorySelect:
		return true
	}
	return false
}
