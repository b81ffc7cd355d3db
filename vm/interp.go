package vm

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"teenyjvm/classfile"
)

// Interpreter is the narrow surface the frame executor needs against the
// owning class and the shared heap (SPEC_FULL.md 4.4), plus the ambient
// concerns (tracing, a recursion guard) that aren't part of the core
// contract but every real invocation needs. An Interpreter is reused across
// the single top-level Execute call and all the nested invokestatic frames
// it spawns.
type Interpreter struct {
	Class  *classfile.Class
	Heap   *Heap
	Logger *zap.Logger // nil-safe: nil means tracing is off

	// MaxCallDepth bounds invokestatic recursion (SPEC_FULL.md 10.3); zero
	// means unbounded, matching spec.md 5's "bounded only by host stack."
	MaxCallDepth int
}

// Execute interprets method's instructions, starting from a fresh frame
// seeded with args, until it returns. It is the entry point for both the
// top-level main() activation and every nested invokestatic call.
//
// This is the execute(method, locals, class, heap) contract of
// SPEC_FULL.md 4.1: class and heap are carried on the receiver instead of
// as parameters, matching how the teacher's VM methods take their shared
// state from a receiver rather than threading it through every call.
func (in *Interpreter) Execute(method *classfile.Method, args []int32) (*int32, error) {
	return in.execute(method, args, 1)
}

func (in *Interpreter) execute(method *classfile.Method, args []int32, depth int) (*int32, error) {
	if in.MaxCallDepth > 0 && depth > in.MaxCallDepth {
		return nil, ErrCallDepthExceeded
	}

	code := method.Code.Code
	frame := newFrame(int(method.Code.MaxStack), int(method.Code.MaxLocals), args)

	if in.Logger != nil {
		in.Logger.Info("enter frame", zap.String("method", method.Name+method.Descriptor), zap.Int("depth", depth))
		defer in.Logger.Info("exit frame", zap.String("method", method.Name+method.Descriptor), zap.Int("depth", depth))
	}

	for {
		if frame.pc >= len(code) {
			return nil, errAt(method, frame.pc, ErrUnknownOpcode)
		}

		op := Opcode(code[frame.pc])
		if n := op.length(); n == 0 || frame.pc+n > len(code) {
			// Same truncated-instruction condition vm/disasm.go guards
			// against for display; here it is fatal rather than a "???" line.
			return nil, errAt(method, frame.pc, ErrUnknownOpcode)
		}
		if in.Logger != nil {
			in.Logger.Debug("dispatch", zap.Int("pc", frame.pc), zap.String("opcode", op.String()), zap.Int("stackDepth", frame.top))
		}

		result, branched, err := in.dispatch(method, frame, op, depth)
		if err != nil {
			return nil, errAt(method, frame.pc, err)
		}
		if result != returnNone {
			if result == returnVoid {
				return nil, nil
			}
			v := result.value
			return &v, nil
		}
		if !branched {
			frame.pc += op.length()
		}
	}
}

// frameResult distinguishes "still running" from the two ways a frame can
// return: void (no value) or with a value.
type frameResult struct {
	kind  int
	value int32
}

const (
	resultNone = iota
	resultVoid
	resultValue
)

var (
	returnNone  = frameResult{kind: resultNone}
	returnVoid  = frameResult{kind: resultVoid}
)

func returnValue(v int32) frameResult { return frameResult{kind: resultValue, value: v} }

func errAt(method *classfile.Method, pc int, err error) error {
	return errors.Wrapf(err, "%s%s at pc %d", method.Name, method.Descriptor, pc)
}

// dispatch executes the single instruction at frame.pc. It returns a
// non-"none" frameResult when the method is returning, branched=true if it
// already updated frame.pc itself (so the caller must not also advance by
// op.length()), and an error for any fatal condition.
func (in *Interpreter) dispatch(method *classfile.Method, frame *Frame, op Opcode, depth int) (frameResult, bool, error) {
	code := method.Code.Code
	pc := frame.pc

	switch op {
	case Nop:
		// no-op

	case IconstM1, Iconst0, Iconst1, Iconst2, Iconst3, Iconst4, Iconst5:
		if err := frame.push(int32(op) - int32(Iconst0)); err != nil {
			return returnNone, false, err
		}

	case Bipush:
		if err := frame.push(int32(int8(code[pc+1]))); err != nil {
			return returnNone, false, err
		}

	case Sipush:
		if err := frame.push(int32(readInt16(code, pc+1))); err != nil {
			return returnNone, false, err
		}

	case Ldc:
		idx := uint16(code[pc+1])
		val, err := in.Class.ConstantInt(idx)
		if err != nil {
			return returnNone, false, err
		}
		if err := frame.push(val); err != nil {
			return returnNone, false, err
		}

	case Iload, Aload:
		if err := frame.push(frame.local(int(code[pc+1]))); err != nil {
			return returnNone, false, err
		}
	case Iload0, Iload1, Iload2, Iload3:
		if err := frame.push(frame.local(int(op - Iload0))); err != nil {
			return returnNone, false, err
		}
	case Aload0, Aload1, Aload2, Aload3:
		if err := frame.push(frame.local(int(op - Aload0))); err != nil {
			return returnNone, false, err
		}

	case Istore, Astore:
		v, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		frame.setLocal(int(code[pc+1]), v)
	case Istore0, Istore1, Istore2, Istore3:
		v, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		frame.setLocal(int(op-Istore0), v)
	case Astore0, Astore1, Astore2, Astore3:
		v, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		frame.setLocal(int(op-Astore0), v)

	case Iinc:
		i := int(code[pc+1])
		delta := int32(int8(code[pc+2]))
		frame.setLocal(i, frame.local(i)+delta)

	case Iadd, Isub, Imul, Idiv, Irem, Iand, Ior, Ixor:
		if err := in.binaryArith(frame, op); err != nil {
			return returnNone, false, err
		}

	case Ineg:
		a, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		if err := frame.push(ineg(a)); err != nil {
			return returnNone, false, err
		}

	case Ishl, Ishr, Iushr:
		b, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		a, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		var r int32
		switch op {
		case Ishl:
			r = ishl(a, b)
		case Ishr:
			r = ishr(a, b)
		case Iushr:
			r = iushr(a, b)
		}
		if err := frame.push(r); err != nil {
			return returnNone, false, err
		}

	case Dup:
		v, err := frame.peek()
		if err != nil {
			return returnNone, false, err
		}
		if err := frame.push(v); err != nil {
			return returnNone, false, err
		}

	case Goto:
		frame.pc = pc + int(readInt16(code, pc+1))
		return returnNone, true, nil

	case Ifeq, Ifne, Iflt, Ifge, Ifgt, Ifle:
		a, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		if unaryBranchTaken(op, a) {
			frame.pc = pc + int(readInt16(code, pc+1))
		} else {
			frame.pc = pc + 3
		}
		return returnNone, true, nil

	case IfIcmpeq, IfIcmpne, IfIcmplt, IfIcmpge, IfIcmpgt, IfIcmple:
		b, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		a, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		if compareBranchTaken(op, a, b) {
			frame.pc = pc + int(readInt16(code, pc+1))
		} else {
			frame.pc = pc + 3
		}
		return returnNone, true, nil

	case InvokeStatic:
		cpIndex := readUint16(code, pc+1)
		target, err := in.Class.ResolveMethodRef(cpIndex)
		if err != nil {
			return returnNone, false, err
		}
		paramCount, err := classfile.ParamCount(target.Descriptor)
		if err != nil {
			return returnNone, false, err
		}
		args, err := frame.popN(paramCount)
		if err != nil {
			return returnNone, false, err
		}
		retval, err := in.execute(target, args, depth+1)
		if err != nil {
			return returnNone, false, err
		}
		if retval != nil {
			if err := frame.push(*retval); err != nil {
				return returnNone, false, err
			}
		}

	case InvokeVirtual:
		// The only modeled virtual call is System.out.println(int): pop the
		// single integer argument and print it. getstatic (below) pushed no
		// receiver, so there is nothing else to pop (SPEC_FULL.md 1, 9).
		v, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		fmt.Println(v)

	case GetStatic:
		// Semantic no-op: reserves no stack slot (SPEC_FULL.md 1).

	case Return:
		return returnVoid, false, nil

	case Ireturn, Areturn:
		v, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		return returnValue(v), false, nil

	case NewArray:
		n, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		if n < 0 {
			return returnNone, false, ErrNegativeArraySize
		}
		handle := in.Heap.Alloc(n)
		if err := frame.push(handle); err != nil {
			return returnNone, false, err
		}

	case ArrayLength:
		handle, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		arr, err := in.Heap.Get(handle)
		if err != nil {
			return returnNone, false, err
		}
		if err := frame.push(arr.Length()); err != nil {
			return returnNone, false, err
		}

	case Iastore:
		value, index, handle, err := frame.popArrayStoreOperands()
		if err != nil {
			return returnNone, false, err
		}
		arr, err := in.Heap.Get(handle)
		if err != nil {
			return returnNone, false, err
		}
		if index < 0 || int(index) >= len(arr.Elements) {
			return returnNone, false, ErrArrayIndexOutOfBounds
		}
		arr.Elements[index] = value

	case Iaload:
		index, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		handle, err := frame.pop()
		if err != nil {
			return returnNone, false, err
		}
		arr, err := in.Heap.Get(handle)
		if err != nil {
			return returnNone, false, err
		}
		if index < 0 || int(index) >= len(arr.Elements) {
			return returnNone, false, ErrArrayIndexOutOfBounds
		}
		if err := frame.push(arr.Elements[index]); err != nil {
			return returnNone, false, err
		}

	default:
		return returnNone, false, ErrUnknownOpcode
	}

	return returnNone, false, nil
}

func (f *Frame) popArrayStoreOperands() (value, index, handle int32, err error) {
	value, err = f.pop()
	if err != nil {
		return
	}
	index, err = f.pop()
	if err != nil {
		return
	}
	handle, err = f.pop()
	return
}

func (in *Interpreter) binaryArith(frame *Frame, op Opcode) error {
	b, err := frame.pop()
	if err != nil {
		return err
	}
	a, err := frame.pop()
	if err != nil {
		return err
	}

	var r int32
	switch op {
	case Iadd:
		r = iadd(a, b)
	case Isub:
		r = isub(a, b)
	case Imul:
		r = imul(a, b)
	case Idiv:
		r, err = idiv(a, b)
	case Irem:
		r, err = irem(a, b)
	case Iand:
		r = iand(a, b)
	case Ior:
		r = ior(a, b)
	case Ixor:
		r = ixor(a, b)
	}
	if err != nil {
		return err
	}
	return frame.push(r)
}

func unaryBranchTaken(op Opcode, a int32) bool {
	switch op {
	case Ifeq:
		return a == 0
	case Ifne:
		return a != 0
	case Iflt:
		return a < 0
	case Ifge:
		return a >= 0
	case Ifgt:
		return a > 0
	case Ifle:
		return a <= 0
	}
	return false
}

func compareBranchTaken(op Opcode, a, b int32) bool {
	switch op {
	case IfIcmpeq:
		return a == b
	case IfIcmpne:
		return a != b
	case IfIcmplt:
		return a < b
	case IfIcmpge:
		return a >= b
	case IfIcmpgt:
		return a > b
	case IfIcmple:
		return a <= b
	}
	return false
}

// readInt16 decodes a signed 16-bit branch offset from two big-endian
// bytes. SPEC_FULL.md 9 calls out the precedence trap here: the combined
// 16-bit value must be formed (and only then) sign-extended, not the high
// byte sign-extended before the OR.
func readInt16(code []byte, at int) int16 {
	return int16(uint16(code[at])<<8 | uint16(code[at+1]))
}

func readUint16(code []byte, at int) uint16 {
	return uint16(code[at])<<8 | uint16(code[at+1])
}
