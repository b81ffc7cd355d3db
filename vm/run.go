package vm

import (
	"fmt"

	"go.uber.org/zap"

	"teenyjvm/classfile"
)

const (
	entryPointName       = "main"
	entryPointDescriptor = "([Ljava/lang/String;)V"
)

// Config holds the ambient knobs a run can be tuned with (SPEC_FULL.md 10.3);
// the zero Config runs with unbounded call depth and a nop logger.
type Config struct {
	MaxCallDepth        int
	InitialHeapCapacity int
	Logger              *zap.Logger
}

// Run locates and executes a class's entry point the way `java Class` does:
// find main([Ljava/lang/String;)V, run it with no arguments, and fail if it
// hands back a value instead of returning void (SPEC_FULL.md 6, 12).
//
// Any panic surfacing from deep inside the interpreter (an out-of-range
// local index, a nil array element slice) is recovered here and folded into
// the same runtime-failure error channel as a sentinel error, the way the
// teacher's RunProgram recovers around execInstructions.
func Run(class *classfile.Class, cfg Config) (err error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("interpreter panic: %v", r)
		}
	}()

	method, ok := class.FindMethod(entryPointName, entryPointDescriptor)
	if !ok {
		return ErrMissingEntryPoint
	}

	in := &Interpreter{
		Class:        class,
		Heap:         &Heap{InitialCapacity: cfg.InitialHeapCapacity},
		Logger:       logger,
		MaxCallDepth: cfg.MaxCallDepth,
	}
	defer in.Heap.FreeAll()

	retval, err := in.Execute(method, nil)
	if err != nil {
		return err
	}
	if retval != nil {
		return ErrNonVoidMainReturn
	}
	return nil
}
