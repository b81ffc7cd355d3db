package vm

/*
	TeenyJVM supports a strict subset of the real JVM instruction set (JVMS
	6.5): 32-bit signed integer arithmetic and bitwise ops, local variable
	load/store, constant loads, conditional/unconditional branches, static
	method invocation, and single-dimensional integer arrays backed by a
	handle-indexed heap.

	Opcode values below are the real JVM byte values (so a class produced by
	a conformant javac for a program that only uses this subset executes
	correctly); opcodes outside the subset decode but dispatch to
	ErrUnknownOpcode.

	Operand shapes:
		iconst_m1..iconst_5          no operand,  1 byte total
		bipush <int8>                 1 byte,      2 bytes total
		sipush <int16 be>              2 bytes,     3 bytes total
		ldc <uint8 cp index, 1-based>  1 byte,      2 bytes total
		iload/aload/istore/astore <uint8 local index>  1 byte, 2 bytes total
		iload_0..3/aload_0..3/istore_0..3/astore_0..3  no operand, 1 byte total
		iinc <uint8 local index><int8 delta>           2 bytes, 3 bytes total
		goto/ifeq../if_icmpeq.. <int16 be branch offset, relative to opcode>  2 bytes, 3 bytes total
		invokestatic/invokevirtual/getstatic <uint16 be cp index>            2 bytes, 3 bytes total
		newarray <uint8 type, ignored>                                        1 byte, 2 bytes total
*/

type Opcode byte

const (
	Nop Opcode = 0x00

	IconstM1 Opcode = 0x02
	Iconst0  Opcode = 0x03
	Iconst1  Opcode = 0x04
	Iconst2  Opcode = 0x05
	Iconst3  Opcode = 0x06
	Iconst4  Opcode = 0x07
	Iconst5  Opcode = 0x08

	Bipush Opcode = 0x10
	Sipush Opcode = 0x11
	Ldc    Opcode = 0x12

	Iload  Opcode = 0x15
	Aload  Opcode = 0x19
	Iload0 Opcode = 0x1A
	Iload1 Opcode = 0x1B
	Iload2 Opcode = 0x1C
	Iload3 Opcode = 0x1D
	Aload0 Opcode = 0x2A
	Aload1 Opcode = 0x2B
	Aload2 Opcode = 0x2C
	Aload3 Opcode = 0x2D

	Iaload Opcode = 0x2E

	Istore  Opcode = 0x36
	Astore  Opcode = 0x3A
	Istore0 Opcode = 0x3B
	Istore1 Opcode = 0x3C
	Istore2 Opcode = 0x3D
	Istore3 Opcode = 0x3E
	Astore0 Opcode = 0x4B
	Astore1 Opcode = 0x4C
	Astore2 Opcode = 0x4D
	Astore3 Opcode = 0x4E

	Iastore Opcode = 0x4F

	Dup Opcode = 0x59

	Iadd  Opcode = 0x60
	Isub  Opcode = 0x64
	Imul  Opcode = 0x68
	Idiv  Opcode = 0x6C
	Irem  Opcode = 0x70
	Ineg  Opcode = 0x74
	Ishl  Opcode = 0x78
	Ishr  Opcode = 0x7A
	Iushr Opcode = 0x7C
	Iand  Opcode = 0x7E
	Ior   Opcode = 0x80
	Ixor  Opcode = 0x82

	Iinc Opcode = 0x84

	Ifeq     Opcode = 0x99
	Ifne     Opcode = 0x9A
	Iflt     Opcode = 0x9B
	Ifge     Opcode = 0x9C
	Ifgt     Opcode = 0x9D
	Ifle     Opcode = 0x9E
	IfIcmpeq Opcode = 0x9F
	IfIcmpne Opcode = 0xA0
	IfIcmplt Opcode = 0xA1
	IfIcmpge Opcode = 0xA2
	IfIcmpgt Opcode = 0xA3
	IfIcmple Opcode = 0xA4

	Goto Opcode = 0xA7

	Ireturn Opcode = 0xAC
	Areturn Opcode = 0xB0
	Return  Opcode = 0xB1

	GetStatic     Opcode = 0xB2
	InvokeVirtual Opcode = 0xB6
	InvokeStatic  Opcode = 0xB8

	NewArray    Opcode = 0xBC
	ArrayLength Opcode = 0xBE
)

var opcodeNames = map[Opcode]string{
	Nop:           "nop",
	IconstM1:      "iconst_m1",
	Iconst0:       "iconst_0",
	Iconst1:       "iconst_1",
	Iconst2:       "iconst_2",
	Iconst3:       "iconst_3",
	Iconst4:       "iconst_4",
	Iconst5:       "iconst_5",
	Bipush:        "bipush",
	Sipush:        "sipush",
	Ldc:           "ldc",
	Iload:         "iload",
	Aload:         "aload",
	Iload0:        "iload_0",
	Iload1:        "iload_1",
	Iload2:        "iload_2",
	Iload3:        "iload_3",
	Aload0:        "aload_0",
	Aload1:        "aload_1",
	Aload2:        "aload_2",
	Aload3:        "aload_3",
	Iaload:        "iaload",
	Istore:        "istore",
	Astore:        "astore",
	Istore0:       "istore_0",
	Istore1:       "istore_1",
	Istore2:       "istore_2",
	Istore3:       "istore_3",
	Astore0:       "astore_0",
	Astore1:       "astore_1",
	Astore2:       "astore_2",
	Astore3:       "astore_3",
	Iastore:       "iastore",
	Dup:           "dup",
	Iadd:          "iadd",
	Isub:          "isub",
	Imul:          "imul",
	Idiv:          "idiv",
	Irem:          "irem",
	Ineg:          "ineg",
	Ishl:          "ishl",
	Ishr:          "ishr",
	Iushr:         "iushr",
	Iand:          "iand",
	Ior:           "ior",
	Ixor:          "ixor",
	Iinc:          "iinc",
	Ifeq:          "ifeq",
	Ifne:          "ifne",
	Iflt:          "iflt",
	Ifge:          "ifge",
	Ifgt:          "ifgt",
	Ifle:          "ifle",
	IfIcmpeq:      "if_icmpeq",
	IfIcmpne:      "if_icmpne",
	IfIcmplt:      "if_icmplt",
	IfIcmpge:      "if_icmpge",
	IfIcmpgt:      "if_icmpgt",
	IfIcmple:      "if_icmple",
	Goto:          "goto",
	Ireturn:       "ireturn",
	Areturn:       "areturn",
	Return:        "return",
	GetStatic:     "getstatic",
	InvokeVirtual: "invokevirtual",
	InvokeStatic:  "invokestatic",
	NewArray:      "newarray",
	ArrayLength:   "arraylength",
}

// String renders an opcode for disassembly and trace logging.
func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "?unknown?"
}

// Length returns the total size in bytes of the instruction starting with
// op (opcode byte included), or 0 if op isn't part of the supported subset.
// Exported for the disassembler (Disassemble in disasm.go); the interpreter's dispatch
// loop uses it under its unexported alias below.
func (op Opcode) Length() int {
	return op.length()
}

func (op Opcode) length() int {
	switch op {
	case Nop, IconstM1, Iconst0, Iconst1, Iconst2, Iconst3, Iconst4, Iconst5,
		Iload0, Iload1, Iload2, Iload3, Aload0, Aload1, Aload2, Aload3,
		Istore0, Istore1, Istore2, Istore3, Astore0, Astore1, Astore2, Astore3,
		Iaload, Iastore, Dup,
		Iadd, Isub, Imul, Idiv, Irem, Ineg, Ishl, Ishr, Iushr, Iand, Ior, Ixor,
		Ireturn, Areturn, Return, ArrayLength:
		return 1
	case Bipush, Ldc, Iload, Aload, Istore, Astore, NewArray:
		return 2
	case Sipush, Iinc,
		Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle,
		IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple,
		Goto, GetStatic, InvokeVirtual, InvokeStatic:
		return 3
	default:
		return 0
	}
}
