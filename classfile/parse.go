package classfile

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

const classMagic uint32 = 0xCAFEBABE

// attributeCode is the only attribute name this parser decodes; every other
// attribute (LineNumberTable, StackMapTable, Exceptions, ...) is skipped
// using its declared length, keeping the parser forward-compatible with
// attributes it has no consumer for.
const attributeCode = "Code"

// reader wraps an io.Reader with the big-endian fixed-width reads the class
// file format uses throughout (JVMS 4.1: "all 16-bit, 32-bit, and 64-bit
// quantities are constructed by reading two, four, and eight consecutive
// 8-bit bytes... in big-endian order").
type reader struct {
	r   io.Reader
	off int64
}

func (rd *reader) bytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rd.r, buf); err != nil {
		return nil, errors.Wrapf(err, "at offset %d", rd.off)
	}
	rd.off += int64(n)
	return buf, nil
}

func (rd *reader) u8() (uint8, error) {
	b, err := rd.bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (rd *reader) u16() (uint16, error) {
	b, err := rd.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (rd *reader) u32() (uint32, error) {
	b, err := rd.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (rd *reader) u64() (uint64, error) {
	b, err := rd.bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (rd *reader) skip(n int) error {
	_, err := rd.bytes(n)
	return err
}

// Parse decodes a standard Java .class file, as produced by a conformant
// compiler, into a *Class. It reads fields and most attributes only far
// enough to skip them structurally.
func Parse(r io.Reader) (*Class, error) {
	rd := &reader{r: r}

	magic, err := rd.u32()
	if err != nil {
		return nil, errors.Wrap(err, "reading magic")
	}
	if magic != classMagic {
		return nil, fmt.Errorf("not a class file: bad magic 0x%08X", magic)
	}

	// minor_version, major_version
	if err := rd.skip(4); err != nil {
		return nil, errors.Wrap(err, "reading version")
	}

	cp, err := parseConstantPool(rd)
	if err != nil {
		return nil, errors.Wrap(err, "reading constant pool")
	}

	// access_flags
	if err := rd.skip(2); err != nil {
		return nil, errors.Wrap(err, "reading access_flags")
	}

	thisClassIdx, err := rd.u16()
	if err != nil {
		return nil, errors.Wrap(err, "reading this_class")
	}
	superClassIdx, err := rd.u16()
	if err != nil {
		return nil, errors.Wrap(err, "reading super_class")
	}

	ifaceCount, err := rd.u16()
	if err != nil {
		return nil, errors.Wrap(err, "reading interfaces_count")
	}
	if err := rd.skip(2 * int(ifaceCount)); err != nil {
		return nil, errors.Wrap(err, "skipping interfaces")
	}

	if err := skipMembers(rd); err != nil {
		return nil, errors.Wrap(err, "reading fields")
	}

	methods, err := parseMethods(rd, cp)
	if err != nil {
		return nil, errors.Wrap(err, "reading methods")
	}

	// Top-level attributes (SourceFile, etc.) attached to the class itself.
	if err := skipAttributes(rd); err != nil {
		return nil, errors.Wrap(err, "reading class attributes")
	}

	class := &Class{ConstantPool: cp, Methods: methods}
	if thisClassIdx != 0 {
		class.ThisClass, _ = resolveClassName(cp, thisClassIdx)
	}
	if superClassIdx != 0 {
		class.SuperClass, _ = resolveClassName(cp, superClassIdx)
	}
	return class, nil
}

func resolveClassName(cp ConstantPool, idx uint16) (string, error) {
	e, err := cp.entry(idx)
	if err != nil {
		return "", err
	}
	if e.Tag != TagClass {
		return "", fmt.Errorf("constant pool entry %d is not Class (tag %d)", idx, e.Tag)
	}
	return cp.UTF8(e.NameIndex)
}

// parseConstantPool reads constant_pool_count - 1 entries into a 1-indexed
// ConstantPool. Long and Double entries consume two pool indices.
func parseConstantPool(rd *reader) (ConstantPool, error) {
	count, err := rd.u16()
	if err != nil {
		return nil, err
	}

	cp := make(ConstantPool, count)
	for i := uint16(1); i < count; i++ {
		tag, err := rd.u8()
		if err != nil {
			return nil, errors.Wrapf(err, "reading tag for entry %d", i)
		}

		entry := ConstantPoolEntry{Tag: tag}
		switch tag {
		case TagUtf8:
			n, err := rd.u16()
			if err != nil {
				return nil, err
			}
			b, err := rd.bytes(int(n))
			if err != nil {
				return nil, err
			}
			entry.UTF8 = string(b)
		case TagInteger, TagFloat:
			v, err := rd.u32()
			if err != nil {
				return nil, err
			}
			entry.IntValue = int32(v)
		case TagLong, TagDouble:
			v, err := rd.u64()
			if err != nil {
				return nil, err
			}
			entry.LongValue = int64(v)
		case TagClass, TagString:
			idx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			entry.NameIndex = idx
		case TagFieldref, TagMethodref, TagInterfaceMethodref:
			classIdx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			natIdx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			entry.ClassIndex = classIdx
			entry.NameAndTypeIndex = natIdx
		case TagNameAndType:
			nameIdx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			descIdx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			entry.NameIndex = nameIdx
			entry.DescriptorIndex = descIdx
		default:
			return nil, fmt.Errorf("unsupported constant pool tag %d at entry %d", tag, i)
		}

		cp[i] = entry
		if tag == TagLong || tag == TagDouble {
			// JVMS 4.4.5: occupies two pool indices; the second is unused.
			i++
		}
	}

	return cp, nil
}

// skipMembers reads a fields_count/methods_count-shaped table whose entries
// are (access_flags, name_index, descriptor_index, attributes) and discards
// them, used for the fields table which the core never reads.
func skipMembers(rd *reader) error {
	count, err := rd.u16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		if err := rd.skip(6); err != nil { // access_flags, name_index, descriptor_index
			return err
		}
		if err := skipAttributes(rd); err != nil {
			return err
		}
	}
	return nil
}

func parseMethods(rd *reader, cp ConstantPool) ([]*Method, error) {
	count, err := rd.u16()
	if err != nil {
		return nil, err
	}

	methods := make([]*Method, 0, count)
	for i := uint16(0); i < count; i++ {
		if err := rd.skip(2); err != nil { // access_flags
			return nil, err
		}
		nameIdx, err := rd.u16()
		if err != nil {
			return nil, err
		}
		descIdx, err := rd.u16()
		if err != nil {
			return nil, err
		}

		name, err := cp.UTF8(nameIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "method %d name", i)
		}
		desc, err := cp.UTF8(descIdx)
		if err != nil {
			return nil, errors.Wrapf(err, "method %d descriptor", i)
		}

		method := &Method{Name: name, Descriptor: desc}

		attrCount, err := rd.u16()
		if err != nil {
			return nil, err
		}
		for a := uint16(0); a < attrCount; a++ {
			attrNameIdx, err := rd.u16()
			if err != nil {
				return nil, err
			}
			attrLen, err := rd.u32()
			if err != nil {
				return nil, err
			}
			attrName, err := cp.UTF8(attrNameIdx)
			if err != nil {
				return nil, errors.Wrapf(err, "method %d attribute name", i)
			}

			if attrName != attributeCode {
				if err := rd.skip(int(attrLen)); err != nil {
					return nil, err
				}
				continue
			}

			code, err := parseCodeAttribute(rd)
			if err != nil {
				return nil, errors.Wrapf(err, "method %s%s code attribute", name, desc)
			}
			method.Code = code
		}

		methods = append(methods, method)
	}

	return methods, nil
}

func parseCodeAttribute(rd *reader) (CodeAttribute, error) {
	maxStack, err := rd.u16()
	if err != nil {
		return CodeAttribute{}, err
	}
	maxLocals, err := rd.u16()
	if err != nil {
		return CodeAttribute{}, err
	}
	codeLen, err := rd.u32()
	if err != nil {
		return CodeAttribute{}, err
	}
	code, err := rd.bytes(int(codeLen))
	if err != nil {
		return CodeAttribute{}, err
	}

	// exception_table: entries of (start_pc, end_pc, handler_pc,
	// catch_type), each 8 bytes. Exception tables are out of scope (spec.md
	// Non-goals: exception tables), but must still be skipped structurally
	// so the byte stream stays aligned for the attributes that follow.
	excCount, err := rd.u16()
	if err != nil {
		return CodeAttribute{}, err
	}
	if err := rd.skip(8 * int(excCount)); err != nil {
		return CodeAttribute{}, err
	}

	if err := skipAttributes(rd); err != nil {
		return CodeAttribute{}, err
	}

	return CodeAttribute{MaxStack: maxStack, MaxLocals: maxLocals, Code: code}, nil
}

func skipAttributes(rd *reader) error {
	count, err := rd.u16()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		if err := rd.skip(2); err != nil { // attribute_name_index
			return err
		}
		length, err := rd.u32()
		if err != nil {
			return err
		}
		if err := rd.skip(int(length)); err != nil {
			return err
		}
	}
	return nil
}
