// Package vm implements the bytecode virtual machine for Amanda.
//
// The VM is a stack-based interpreter that executes the instruction
// alphabet defined in pkg/bytecode. It's the final stage in the
// execution pipeline: a compiler (outside this module's scope) emits a
// .amac binary container, pkg/loader decodes it into a Module tree, and
// this package runs it.
//
// Virtual Machine Architecture:
//
//  1. Operand stack: holds intermediate values during computation,
//     growing on demand.
//  2. Frame stack: a fixed-capacity ring of activation records (see
//     frame.go), each carrying a base pointer (bp) into the operand
//     stack for its locals.
//  3. Modules: the main module plus its transitively imported modules,
//     each with its own constants, names, code and globals.
//
// Execution Model:
//
// Each frame tracks its own instruction pointer (ip) into its module's
// code buffer. The dispatch loop fetches the opcode byte at the current
// frame's ip, records it as lastI (used for source-line mapping on
// error), dispatches, and -- unless the opcode itself overwrote ip
// (Jump, a taken JumpIfFalse, CallFunction, Return) -- advances ip past
// the instruction's operand bytes.
//
// Example Execution:
//
//	Code: LoadConst[0], LoadConst[1], OpAdd, Mostra, Halt
//	Constants: [Int(2), Int(3)]
//
//	ip=0: LoadConst 0 -> stack=[2]
//	ip=3: LoadConst 1 -> stack=[2,3]
//	ip=6: OpAdd       -> stack=[5]
//	ip=7: Mostra      -> stack=[], stdout: "5\n"
//	ip=8: Halt        -> loop terminates
//
// Error Handling:
//
// Recoverable runtime errors (division by zero, bad index, overflow,
// null dereference, bad cast, unparsable input, recursion limit) unwind
// the frame stack into a *RuntimeError carrying a formatted, multi-line
// trace. Any error a builtin returns, an I/O failure included, is
// reported the same way; builtin I/O failures do not panic. Internal
// invariant violations (empty stack pop, wrong value kind under a
// compiler-guaranteed-safe opcode) are fatal panics; Run does not
// recover them.
package vm

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/amanda-lang/amanda-vm/pkg/alloc"
	"github.com/amanda-lang/amanda-vm/pkg/bytecode"
	"github.com/amanda-lang/amanda-vm/pkg/loader"
	"github.com/amanda-lang/amanda-vm/pkg/value"
)

// VM holds all mutable interpreter state: the operand stack, the frame
// stack, the allocator for heap composites, and the flattened module
// table (main module plus every transitively imported module, keyed by
// name) that CallFunction resolves cross-module calls against.
type VM struct {
	stack []value.Value
	sp    int

	frames  *frameStack
	alloc   *alloc.Allocator
	modules map[string]*loader.Module

	builtins loader.BuiltinExports
	logger   *slog.Logger
}

// New creates a VM ready to Run a module tree. builtins supplies the
// registered builtin modules' export tables (see pkg/builtins); logger
// may be nil, in which case slog.Default() is used as an optional,
// nil-safe diagnostic collaborator threaded through the dispatch loop
// (see DESIGN.md).
func New(builtins loader.BuiltinExports, logger *slog.Logger) *VM {
	if logger == nil {
		logger = slog.Default()
	}
	return &VM{
		stack:    make([]value.Value, 0, 256),
		frames:   newFrameStack(),
		alloc:    alloc.New(),
		builtins: builtins,
		logger:   logger,
	}
}

// Run executes mod to completion: every import is initialized and its
// module-level code executed (in the order given by mod.Imports, which
// the compiler is assumed to have sorted into dependency order), then
// mod itself is initialized and run.
//
// ctx is checked between instructions only, so a host embedding the VM
// can abandon a stuck run. The dispatch loop itself never blocks on it.
func (vm *VM) Run(ctx context.Context, mod *loader.Module) error {
	vm.modules = map[string]*loader.Module{mod.Name: mod}
	imports := orderedImports(mod, vm.modules)

	for _, imp := range imports {
		if err := imp.Initialize(vm.builtins); err != nil {
			return fmt.Errorf("vm: initializing import %q: %w", imp.Name, err)
		}
		vm.logger.Debug("initialized module", "module", imp.Name)
		if err := vm.runEntry(ctx, imp); err != nil {
			return err
		}
		vm.resetExecutionState()
	}

	if err := mod.Initialize(vm.builtins); err != nil {
		return fmt.Errorf("vm: initializing module %q: %w", mod.Name, err)
	}
	vm.logger.Debug("initialized module", "module", mod.Name)
	return vm.runEntry(ctx, mod)
}

// orderedImports walks mod's import graph depth-first, appending into
// into as it goes (dependencies of a module before the module itself),
// and registers every visited module's name in modules for CallFunction
// to resolve cross-module calls against.
func orderedImports(mod *loader.Module, modules map[string]*loader.Module) []*loader.Module {
	var out []*loader.Module
	for _, imp := range mod.Imports {
		out = append(out, orderedImports(imp, modules)...)
		if _, seen := modules[imp.Name]; !seen {
			modules[imp.Name] = imp
			out = append(out, imp)
		}
	}
	return out
}

func (vm *VM) resetExecutionState() {
	vm.stack = vm.stack[:0]
	vm.sp = 0
	vm.frames = newFrameStack()
}

// runEntry pushes mod's main frame and dispatches until that frame's
// Halt instruction fires: the VM asserts the topmost frame is the main
// function (always named "_inicio_") with no unreturned calls above it.
func (vm *VM) runEntry(ctx context.Context, mod *loader.Module) error {
	depthBefore := vm.frames.depth()

	bp := -1
	if mod.Main.Locals > 0 {
		bp = vm.sp
	}
	if err := vm.frames.push(frame{name: mod.Main.Name, module: mod, bp: bp, ip: 0, lastI: 0}); err != nil {
		return vm.fail(err)
	}
	if bp >= 0 {
		for i := 0; i < mod.Main.Locals; i++ {
			vm.pushValue(value.None)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fr := vm.frames.peek()
		op := bytecode.Opcode(fr.module.Code[fr.ip])
		fr.lastI = fr.ip

		if op == bytecode.Halt {
			if vm.frames.depth() != depthBefore+1 {
				panic("vm: Halt reached with unreturned calls on the frame stack")
			}
			vm.frames.pop()
			return nil
		}

		if err := vm.step(fr, op); err != nil {
			return err
		}
	}
}

// step dispatches a single instruction for fr, advancing fr.ip
// afterward. Opcodes that redirect control flow (Jump, a taken
// JumpIfFalse, CallFunction, Return) set ip themselves; every other
// opcode is advanced past its operand bytes here.
func (vm *VM) step(fr *frame, op bytecode.Opcode) error {
	code := fr.module.Code
	operandStart := fr.ip + 1
	width := bytecode.OperandWidth(op)
	next := operandStart + width

	switch op {
	case bytecode.LoadConst:
		idx := readU16(code, operandStart)
		vm.pushValue(fr.module.Constants[idx])

	case bytecode.LoadName:
		idx := readU16(code, operandStart)
		vm.pushValue(value.Str(fr.module.Names[idx]))

	case bytecode.LoadRecord:
		idx := readU16(code, operandStart)
		vm.pushValue(value.Record{Schema: fr.module.Records[idx]})

	case bytecode.OpAdd, bytecode.OpMinus, bytecode.OpMul, bytecode.OpDiv, bytecode.OpFloorDiv, bytecode.OpModulo,
		bytecode.OpAnd, bytecode.OpOr, bytecode.OpEq, bytecode.OpNotEq,
		bytecode.OpGreater, bytecode.OpGreaterEq, bytecode.OpLess, bytecode.OpLessEq:
		right := vm.popValue()
		left := vm.popValue()
		result, err := value.BinOp(left, op, right)
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(result)

	case bytecode.OpInvert:
		v, err := value.Invert(vm.popValue())
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(v)

	case bytecode.OpNot:
		b := vm.popValue().(value.Bool)
		vm.pushValue(!b)

	case bytecode.OpIndexGet:
		idx := vm.popValue()
		target := vm.popValue()
		result, err := vm.indexGet(target, idx)
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(result)

	case bytecode.OpIndexSet:
		val := vm.popValue()
		idx := vm.popValue()
		target := vm.popValue()
		if err := vm.indexSet(target, idx, val); err != nil {
			return vm.fail(err)
		}

	case bytecode.GetGlobal:
		idx := readU16(code, operandStart)
		name := fr.module.Names[idx]
		v, ok := fr.module.Globals[name]
		if !ok {
			panic(fmt.Sprintf("vm: undefined global %q in module %q", name, fr.module.Name))
		}
		vm.pushValue(v)

	case bytecode.SetGlobal:
		idx := readU16(code, operandStart)
		name := fr.module.Names[idx]
		fr.module.Globals[name] = vm.popValue()

	case bytecode.GetLocal:
		idx := int(readU16(code, operandStart))
		vm.pushValue(vm.stack[fr.bp+idx])

	case bytecode.SetLocal:
		idx := int(readU16(code, operandStart))
		vm.stack[fr.bp+idx] = vm.popValue()

	case bytecode.Jump:
		addr := readU64(code, operandStart)
		fr.ip = int(addr)
		return nil

	case bytecode.JumpIfFalse:
		cond := vm.popValue().(value.Bool)
		if !cond {
			addr := readU64(code, operandStart)
			fr.ip = int(addr)
			return nil
		}

	case bytecode.CallFunction:
		argc := int(code[operandStart])
		fr.ip = next
		return vm.callFunction(argc)

	case bytecode.Return:
		return vm.doReturn()

	case bytecode.BuildStr:
		n := int(code[operandStart])
		vm.pushValue(value.Str(vm.buildStr(n)))

	case bytecode.BuildVec:
		n := int(code[operandStart])
		vm.pushValue(vm.buildVec(n))

	case bytecode.BuildObj:
		n := int(code[operandStart])
		v, err := vm.buildObj(n)
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(v)

	case bytecode.GetProp:
		field := string(vm.popValue().(value.Str))
		inst := vm.popValue().(value.RecordInstance)
		v, ok := inst.GetField(field)
		if !ok {
			panic(fmt.Sprintf("vm: unknown field %q on record %q", field, inst.Schema().Name))
		}
		vm.pushValue(v)

	case bytecode.SetProp:
		val := vm.popValue()
		field := string(vm.popValue().(value.Str))
		inst := vm.popValue().(value.RecordInstance)
		inst.SetField(field, val)

	case bytecode.Cast:
		mode := code[operandStart]
		target := vm.popValue().(value.TypeVal).T
		v := vm.popValue()
		var result value.Value
		var err error
		if mode == 0 {
			result, err = value.Cast(v, target)
		} else {
			result, err = value.CheckCast(v, target)
		}
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(result)

	case bytecode.IsNull:
		_, isNone := vm.popValue().(value.NoneVal)
		vm.pushValue(value.Bool(isNone))

	case bytecode.Unwrap:
		hasDefault := code[operandStart] == 1
		var def value.Value
		if hasDefault {
			def = vm.popValue()
		}
		v := vm.popValue()
		if _, isNone := v.(value.NoneVal); isNone {
			if hasDefault {
				vm.pushValue(def)
			} else {
				return vm.fail(fmt.Errorf("Não pode aceder uma referência nula"))
			}
		} else {
			vm.pushValue(v)
		}

	case bytecode.Mostra:
		fmt.Println(value.Display(vm.popValue()))

	default:
		panic(fmt.Sprintf("vm: unknown opcode 0x%02X", byte(op)))
	}

	fr.ip = next
	return nil
}

func readU16(code []byte, at int) uint16 {
	return binary.BigEndian.Uint16(code[at : at+2])
}

func readU64(code []byte, at int) uint64 {
	return binary.BigEndian.Uint64(code[at : at+8])
}

// pushValue grows the operand stack on demand.
func (vm *VM) pushValue(v value.Value) {
	if vm.sp < len(vm.stack) {
		vm.stack[vm.sp] = v
	} else {
		vm.stack = append(vm.stack, v)
	}
	vm.sp++
}

func (vm *VM) popValue() value.Value {
	vm.sp--
	v := vm.stack[vm.sp]
	vm.stack[vm.sp] = nil
	return v
}

func (vm *VM) buildStr(n int) string {
	vals := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		vals[i] = vm.popValue()
	}
	out := ""
	for _, v := range vals {
		out += value.Display(v)
	}
	return out
}

func (vm *VM) buildVec(n int) value.Vector {
	elems := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		elems[i] = vm.popValue()
	}
	return value.NewVector(vm.alloc, elems)
}

func (vm *VM) buildObj(n int) (value.Value, error) {
	fields := make(map[string]value.Value, n)
	for i := 0; i < n; i++ {
		val := vm.popValue()
		name := string(vm.popValue().(value.Str))
		fields[name] = val
	}
	schema := vm.popValue().(value.Record).Schema
	return value.NewRecordInstance(vm.alloc, schema, fields), nil
}

func (vm *VM) indexGet(target, idx value.Value) (value.Value, error) {
	switch t := target.(type) {
	case value.Vector:
		i := int64(idx.(value.Int))
		if err := value.VecIndexCheck(t, i); err != nil {
			return nil, err
		}
		return t.Get(int(i)), nil
	case value.Str:
		return value.IndexString(t, int64(idx.(value.Int)))
	default:
		panic(fmt.Sprintf("vm: OpIndexGet on unsupported type %T", target))
	}
}

func (vm *VM) indexSet(target, idx, val value.Value) error {
	vec, ok := target.(value.Vector)
	if !ok {
		panic(fmt.Sprintf("vm: OpIndexSet on unsupported type %T", target))
	}
	i := int64(idx.(value.Int))
	if err := value.VecIndexCheck(vec, i); err != nil {
		return err
	}
	vec.Set(int(i), val)
	return nil
}

// callFunction implements the CallFunction opcode. step has already
// advanced fr.ip past the operand byte before calling this.
func (vm *VM) callFunction(argc int) error {
	callee := vm.popValue()

	switch fn := callee.(type) {
	case value.Func:
		mod, ok := vm.modules[fn.Module]
		if !ok {
			panic(fmt.Sprintf("vm: call to function in unknown module %q", fn.Module))
		}
		bp := vm.sp
		if argc > 0 {
			bp = vm.sp - argc
		}
		newFrame := frame{name: fn.Name, module: mod, bp: bp, ip: fn.StartIP, lastI: fn.StartIP}
		if err := vm.frames.push(newFrame); err != nil {
			return vm.fail(err)
		}
		for i := argc; i < fn.Locals; i++ {
			vm.pushValue(value.None)
		}
		return nil

	case value.NativeFn:
		args := make([]value.Value, argc)
		base := vm.sp - argc
		copy(args, vm.stack[base:vm.sp])
		vm.sp = base
		result, err := fn.Fn(args, vm.alloc)
		if err != nil {
			return vm.fail(err)
		}
		vm.pushValue(result)
		return nil

	default:
		return vm.fail(fmt.Errorf("Expected function at the top of the stack"))
	}
}

// doReturn implements the Return opcode.
func (vm *VM) doReturn() error {
	retVal := vm.popValue()
	fr := vm.frames.pop()
	if fr.bp >= 0 {
		vm.sp = fr.bp
	}
	vm.pushValue(retVal)
	return nil
}

// fail wraps err (a sentinel/value-layer error) into a *RuntimeError
// carrying the current frame stack's formatted trace.
func (vm *VM) fail(err error) error {
	snap := vm.frames.snapshot()
	trace := make([]StackFrame, len(snap))
	for i, fr := range snap {
		trace[i] = StackFrame{Name: fr.name, Line: loader.OffsetToLine(fr.lastI, fr.module.SrcMap)}
	}
	re := newRuntimeError(err.Error(), trace)
	vm.logger.Warn("runtime error", "error", re.Message)
	return re
}
