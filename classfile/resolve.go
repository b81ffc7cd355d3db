package classfile

import "fmt"

// FindMethod does a linear scan over the class's method table, first match
// wins, per 4.4 of SPEC_FULL.md.
func (c *Class) FindMethod(name, descriptor string) (*Method, bool) {
	for _, m := range c.Methods {
		if m.Name == name && m.Descriptor == descriptor {
			return m, true
		}
	}
	return nil, false
}

// ResolveMethodRef resolves an invokestatic constant-pool index to a target
// method. It follows Methodref -> NameAndType -> name/descriptor -> FindMethod.
// The Methodref's owning class is not examined. If the entry is not a
// Methodref, its NameAndType or Utf8 entries don't resolve, or no method of
// this class matches the name and descriptor, it falls back to idx modulo
// the method count, which is the contract 4.4 permits when the pool can't
// fully resolve the callee.
func (c *Class) ResolveMethodRef(cpIndex uint16) (*Method, error) {
	entry, err := c.ConstantPool.entry(cpIndex)
	if err != nil {
		return nil, fmt.Errorf("resolving method ref: %w", err)
	}
	if entry.Tag != TagMethodref && entry.Tag != TagInterfaceMethodref {
		return c.fallbackMethod(cpIndex), nil
	}

	nat, err := c.ConstantPool.entry(entry.NameAndTypeIndex)
	if err != nil || nat.Tag != TagNameAndType {
		return c.fallbackMethod(cpIndex), nil
	}

	name, err := c.ConstantPool.UTF8(nat.NameIndex)
	if err != nil {
		return c.fallbackMethod(cpIndex), nil
	}
	descriptor, err := c.ConstantPool.UTF8(nat.DescriptorIndex)
	if err != nil {
		return c.fallbackMethod(cpIndex), nil
	}

	if m, ok := c.FindMethod(name, descriptor); ok {
		return m, nil
	}
	return c.fallbackMethod(cpIndex), nil
}

func (c *Class) fallbackMethod(cpIndex uint16) *Method {
	if len(c.Methods) == 0 {
		return nil
	}
	return c.Methods[int(cpIndex)%len(c.Methods)]
}

// ConstantInt reads the 32-bit integer value stored in constant pool entry
// idx, for use by ldc.
func (c *Class) ConstantInt(idx uint16) (int32, error) {
	entry, err := c.ConstantPool.entry(idx)
	if err != nil {
		return 0, err
	}
	if entry.Tag != TagInteger {
		return 0, fmt.Errorf("constant pool entry %d is not an integer constant (tag %d)", idx, entry.Tag)
	}
	return entry.IntValue, nil
}

// ParamCount derives a method's parameter slot count from its descriptor,
// counting the top-level type tokens between '(' and ')'. Each of B C S I Z
// is one slot; each L<classname>; is one slot; each run of '[' prefixes
// followed by one of the above is one slot (array references are handles).
func ParamCount(descriptor string) (int, error) {
	if len(descriptor) == 0 || descriptor[0] != '(' {
		return 0, fmt.Errorf("malformed descriptor %q: missing '('", descriptor)
	}

	count := 0
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		switch c := descriptor[i]; c {
		case 'B', 'C', 'S', 'I', 'Z', 'J', 'F', 'D':
			count++
			i++
		case 'L':
			end := i + 1
			for end < len(descriptor) && descriptor[end] != ';' {
				end++
			}
			if end >= len(descriptor) {
				return 0, fmt.Errorf("malformed descriptor %q: unterminated class type", descriptor)
			}
			count++
			i = end + 1
		case '[':
			// Array-dimension prefixes don't themselves count; the
			// element type token that follows contributes the one slot.
			i++
		default:
			return 0, fmt.Errorf("malformed descriptor %q: unexpected token %q", descriptor, c)
		}
	}
	if i >= len(descriptor) {
		return 0, fmt.Errorf("malformed descriptor %q: missing ')'", descriptor)
	}

	return count, nil
}
