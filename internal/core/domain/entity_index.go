package domain

import "github.com/berfenger/askoheat2mqtt/pkg/askoheat_modbus"

// EntityRef points an MQTT entity id back to the block entry it was built from.
type EntityRef struct {
	Block    *askoheat_modbus.BlockDescriptor
	Category askoheat_modbus.Category
	Entry    askoheat_modbus.Entry
}

// QualifiedKey is the key understood by BlockDescriptor.Lookup.
func (r EntityRef) QualifiedKey() string {
	return string(r.Category) + "." + r.Entry.Key
}

type EntityIndex map[string]EntityRef

func NewEntityIndex(blocks ...*askoheat_modbus.BlockDescriptor) EntityIndex {
	index := EntityIndex{}
	for _, block := range blocks {
		for _, c := range askoheat_modbus.Categories {
			for _, e := range block.Entries(c) {
				index[EntityId(block.Name, e.Key)] = EntityRef{
					Block:    block,
					Category: c,
					Entry:    e,
				}
			}
		}
	}
	return index
}

func (index EntityIndex) Lookup(id string) (EntityRef, bool) {
	ref, ok := index[id]
	return ref, ok
}
