package vm

import "errors"

// Sentinel errors, one per taxonomy entry, compared with errors.Is the same
// way the teacher compares vm.errcode against its package-level sentinels.
// All are fatal: the CLI maps every one of them to the runtime-failure exit
// code (see cmd/root.go).
var (
	ErrStackUnderflow        = errors.New("operand stack underflow")
	ErrStackOverflow         = errors.New("operand stack overflow")
	ErrDivisionByZero        = errors.New("division or remainder by zero")
	ErrNegativeArraySize     = errors.New("negative array size")
	ErrInvalidArrayHandle    = errors.New("invalid array handle")
	ErrArrayIndexOutOfBounds = errors.New("array index out of bounds")
	ErrUnknownOpcode         = errors.New("unknown or unsupported opcode")
	ErrCallDepthExceeded     = errors.New("call depth exceeded")
	ErrMissingEntryPoint     = errors.New("class has no main([Ljava/lang/String;)V method")
	ErrNonVoidMainReturn     = errors.New("main returned a value, expected void")
)
