package classfile

import (
	"fmt"

	"github.com/openjdk/asmtools-sub002/jvm"
)

// DecodeStackMapTable decodes a StackMapTable attribute body (without the
// name/length header). legacy selects the pre-Java 6 StackMap shape.
func DecodeStackMapTable(data []byte, version jvm.Version, legacy bool, opt jvm.Options) (jvm.Result[[]jvm.StackMapFrame], error) {
	d := newDecoder(data, opt)
	d.version = version
	var frames []jvm.StackMapFrame
	var err error
	if legacy {
		frames, err = d.readStackMap()
	} else {
		frames, err = d.readStackMapTable()
	}
	return jvm.Result[[]jvm.StackMapFrame]{Value: frames, Diags: d.diags}, err
}

// readStackMapTable decodes number_of_entries frames. early_larval wrappers
// are folded into the frame they precede and do not count as entries. The
// first frame's pc is its offset_delta; each later frame is at
// prev + offset_delta + 1.
func (d *decoder) readStackMapTable() ([]jvm.StackMapFrame, error) {
	n, err := d.r.u2("number_of_entries")
	if err != nil {
		return nil, err
	}
	frames := make([]jvm.StackMapFrame, 0, n)
	for i := 0; i < int(n); i++ {
		f, err := d.readFrame()
		if err != nil {
			return frames, fmt.Errorf("frame %d: %w", i, err)
		}
		if i == 0 {
			f.PC = int(f.OffsetDelta)
		} else {
			f.PC = frames[i-1].PC + int(f.OffsetDelta) + 1
		}
		frames = append(frames, f)
	}
	return frames, nil
}

func (d *decoder) readFrame() (jvm.StackMapFrame, error) {
	r := d.r
	var larval []jvm.LarvalWrapper
	for {
		at := r.pos()
		t, err := r.u1("frame_type")
		if err != nil {
			return jvm.StackMapFrame{}, err
		}
		if t == jvm.FrameTypeEarlyLarval {
			if !d.version.AllowsEarlyLarval() {
				d.diag(at, jvm.DiagVersion, fmt.Sprintf("early_larval frame requires a preview class file of version %d or above, found %s",
					jvm.VersionEarlyLarval.Major, d.version))
			}
			n, err := r.u2("number_of_unset_fields")
			if err != nil {
				return jvm.StackMapFrame{}, err
			}
			fields, err := r.u2s(int(n), "unset_fields")
			if err != nil {
				return jvm.StackMapFrame{}, err
			}
			larval = append(larval, jvm.LarvalWrapper{UnsetFields: fields})
			continue
		}

		kind, ok := jvm.FrameKindOf(t)
		if !ok {
			return jvm.StackMapFrame{}, fmt.Errorf("frame type %d at offset %d: %w", t, at, jvm.ErrUnknownFrame)
		}
		f := jvm.StackMapFrame{Type: t, Kind: kind, Larval: larval}
		switch kind {
		case jvm.FrameSame:
			f.OffsetDelta = uint16(t)
		case jvm.FrameSameLocals1:
			f.OffsetDelta = uint16(t - 64)
			f.Stack, err = d.readVerificationTypes(1)
		case jvm.FrameSameLocals1Extended:
			if f.OffsetDelta, err = r.u2("offset_delta"); err == nil {
				f.Stack, err = d.readVerificationTypes(1)
			}
		case jvm.FrameChop:
			f.Chopped = 251 - int(t)
			f.OffsetDelta, err = r.u2("offset_delta")
		case jvm.FrameSameExtended:
			f.OffsetDelta, err = r.u2("offset_delta")
		case jvm.FrameAppend:
			if f.OffsetDelta, err = r.u2("offset_delta"); err == nil {
				f.Locals, err = d.readVerificationTypes(int(t) - 251)
			}
		case jvm.FrameFull:
			if f.OffsetDelta, err = r.u2("offset_delta"); err == nil {
				f.Locals, f.Stack, err = d.readFullLists()
			}
		}
		return f, err
	}
}

func (d *decoder) readFullLists() (locals, stack []jvm.VerificationType, err error) {
	n, err := d.r.u2("number_of_locals")
	if err != nil {
		return nil, nil, err
	}
	if locals, err = d.readVerificationTypes(int(n)); err != nil {
		return nil, nil, err
	}
	if n, err = d.r.u2("number_of_stack_items"); err != nil {
		return nil, nil, err
	}
	stack, err = d.readVerificationTypes(int(n))
	return locals, stack, err
}

func (d *decoder) readVerificationTypes(n int) ([]jvm.VerificationType, error) {
	r := d.r
	out := make([]jvm.VerificationType, 0, n)
	for i := 0; i < n; i++ {
		at := r.pos()
		tag, err := r.u1("verification_type tag")
		if err != nil {
			return nil, err
		}
		v := jvm.VerificationType{Tag: jvm.VerificationTag(tag)}
		switch v.Tag {
		case jvm.ItemTop, jvm.ItemInteger, jvm.ItemFloat, jvm.ItemDouble,
			jvm.ItemLong, jvm.ItemNull, jvm.ItemUninitializedThis:
		case jvm.ItemObject:
			if v.Index, err = r.u2("cpool_index"); err != nil {
				return nil, err
			}
		case jvm.ItemUninitialized:
			if v.Offset, err = r.u2("offset"); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("verification type tag %d at offset %d: %w", tag, at, jvm.ErrUnknownFrame)
		}
		out = append(out, v)
	}
	return out, nil
}

// readStackMap decodes the legacy StackMap: absolute pcs with full
// locals and stack lists.
func (d *decoder) readStackMap() ([]jvm.StackMapFrame, error) {
	n, err := d.r.u2("number_of_entries")
	if err != nil {
		return nil, err
	}
	frames := make([]jvm.StackMapFrame, 0, n)
	for i := 0; i < int(n); i++ {
		pc, err := d.r.u2("pc")
		if err != nil {
			return frames, err
		}
		f := jvm.StackMapFrame{Kind: jvm.FrameLegacy, OffsetDelta: pc, PC: int(pc)}
		if f.Locals, f.Stack, err = d.readFullLists(); err != nil {
			return frames, fmt.Errorf("frame %d: %w", i, err)
		}
		frames = append(frames, f)
	}
	return frames, nil
}
