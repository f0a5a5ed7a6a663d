package gc

import "github.com/coregc/coregc/internal/core"

// addrOf returns o's address, or the null address for a nil reference.
func addrOf(o *Object) core.Address {
	if o == nil {
		return 0
	}
	return o.Addr
}

// barrierRecord is the remembered-set slow path shared by every
// wbarrier_* entry point: it records slot's address if obj is NOT in the
// nursery (a nursery-resident slot needs no recording — the nursery is
// always scanned in full) and value IS in the nursery (§4.3 "fast-paths a
// nursery-target check").
func (c *Collector) barrierRecord(tid int, obj *Object, slot int, value *Object) {
	if obj.generation == 0 || value == nil || value.generation != 0 {
		return
	}
	slotAddr := obj.Addr.Add(int64(slot) * core.AllocAlign)
	c.remset.Record(tid, slotAddr)
}

// WBarrierSetField is wbarrier_set_field: obj.Refs[slot] = value. Record
// happens before the store (§4.3 "Stores must be post-barrier").
func (c *Collector) WBarrierSetField(tid int, obj *Object, slot int, value *Object) {
	c.barrierRecord(tid, obj, slot, value)
	obj.Refs[slot] = addrOf(value)
}

// WBarrierSetArrayRef is wbarrier_set_arrayref, identical in contract to
// WBarrierSetField for this object model (arrays and objects both store
// reference slots in Refs).
func (c *Collector) WBarrierSetArrayRef(tid int, arr *Object, idx int, value *Object) {
	c.WBarrierSetField(tid, arr, idx, value)
}

// WBarrierArrayRefCopy is wbarrier_arrayref_copy: copies count reference
// slots from src[srcStart:] to dst[dstStart:], recording each slot whose
// new value is nursery-resident (L3's round-trip law).
func (c *Collector) WBarrierArrayRefCopy(tid int, dst *Object, dstStart int, src *Object, srcStart, count int) {
	for i := 0; i < count; i++ {
		v := src.Refs[srcStart+i]
		if dst.generation != 0 && v != 0 {
			if target, ok := c.resolveNursery(v); ok {
				c.barrierRecord(tid, dst, dstStart+i, target)
			}
		}
		dst.Refs[dstStart+i] = v
	}
}

// WBarrierGenericStore is wbarrier_generic_store: identical to
// WBarrierSetField, used where the caller has no more specific shape
// (object field vs array element) to report.
func (c *Collector) WBarrierGenericStore(tid int, obj *Object, slot int, value *Object) {
	c.WBarrierSetField(tid, obj, slot, value)
}

// WBarrierGenericNoStore is wbarrier_generic_nostore: the caller has
// already written value into obj.Refs[slot] itself (e.g. via a bulk copy)
// and only needs the remembered-set side effect.
func (c *Collector) WBarrierGenericNoStore(tid int, obj *Object, slot int, value *Object) {
	c.barrierRecord(tid, obj, slot, value)
}

// WBarrierValueCopy is wbarrier_value_copy: copies count slots of a value
// type carrying references, recording only the slots desc marks as
// reference-valued.
func (c *Collector) WBarrierValueCopy(tid int, dst *Object, dstStart int, src *Object, srcStart, count int, desc *Descriptor) {
	for i := 0; i < count; i++ {
		if !desc.IsRef(i) {
			continue
		}
		v := src.Refs[srcStart+i]
		if dst.generation != 0 && v != 0 {
			if target, ok := c.resolveNursery(v); ok {
				c.barrierRecord(tid, dst, dstStart+i, target)
			}
		}
		dst.Refs[dstStart+i] = v
	}
}

// WBarrierObjectCopy is wbarrier_object_copy: clones src's entire
// reference payload into dst, for clone operations.
func (c *Collector) WBarrierObjectCopy(tid int, dst, src *Object) {
	dst.Refs = append(dst.Refs[:0], src.Refs...)
	if dst.generation == 0 {
		return
	}
	for i, v := range dst.Refs {
		if v == 0 {
			continue
		}
		if target, ok := c.resolveNursery(v); ok {
			c.barrierRecord(tid, dst, i, target)
		}
	}
}
