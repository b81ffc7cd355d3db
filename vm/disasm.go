package vm

import (
	"fmt"
	"strings"
)

// Disassemble renders a method's Code attribute as one mnemonic line per
// instruction, offset-prefixed the way javap -c does. It never executes
// anything and tolerates a truncated or unsupported final instruction by
// reporting it as ??? rather than failing the whole listing — useful for
// inspecting a class that the interpreter itself would reject.
func Disassemble(name, descriptor string, code []byte) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s%s:\n", name, descriptor)

	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		n := op.Length()
		if n == 0 || pc+n > len(code) {
			fmt.Fprintf(&b, "  %4d: ??? (0x%02x)\n", pc, code[pc])
			pc++
			continue
		}

		fmt.Fprintf(&b, "  %4d: %s%s\n", pc, op.String(), operandString(op, code, pc))
		pc += n
	}
	return b.String()
}

func operandString(op Opcode, code []byte, pc int) string {
	switch op.Length() {
	case 2:
		return fmt.Sprintf(" %d", code[pc+1])
	case 3:
		switch op {
		case Sipush, Goto,
			Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle,
			IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple:
			return fmt.Sprintf(" %d", readInt16(code, pc+1))
		case Iinc:
			return fmt.Sprintf(" %d %d", code[pc+1], int8(code[pc+2]))
		default: // GetStatic, InvokeVirtual, InvokeStatic: uint16 cp index
			return fmt.Sprintf(" #%d", readUint16(code, pc+1))
		}
	default:
		return ""
	}
}
