// Package bytecode defines the instruction alphabet executed by the Amanda
// virtual machine.
//
// Amanda bytecode is byte-wide with variable-length operands: the dispatch
// loop in pkg/vm fetches a single opcode byte, then (depending on the
// opcode) zero or more operand bytes immediately following it in the code
// stream. There is no fixed-width Instruction record the way a classic
// three-address bytecode might use one — operands are read directly off
// the module's code buffer at the current instruction pointer, matching the
// wire format produced by the compiler and decoded by pkg/loader.
//
// Operand widths:
//
//	u8  - CallFunction (argc), BuildStr/BuildVec/BuildObj (n), Cast (mode),
//	      Unwrap (has_default)
//	u16 - LoadConst, LoadName, LoadRecord, GetGlobal/SetGlobal,
//	      GetLocal/SetLocal (all big-endian indices into a pool)
//	u64 - Jump, JumpIfFalse (absolute code addresses, big-endian)
//	none - everything else: arithmetic, comparison, indexing, Return,
//	      GetProp/SetProp, IsNull, Mostra, Halt
//
// An opcode byte outside this table is a fatal decode error; it indicates a
// corrupt container or a compiler/VM version mismatch, not a recoverable
// runtime condition.
package bytecode

// Opcode identifies a single VM instruction. Opcodes are single bytes,
// keeping the code stream compact and the dispatch switch a flat jump
// table over small integers.
type Opcode byte

const (
	// === Constants & names ===

	// LoadConst pushes module.Constants[idx] onto the operand stack.
	// Operand: u16 constant-pool index.
	LoadConst Opcode = iota

	// LoadName pushes module.Names[idx] as a Str value.
	// Operand: u16 name-pool index.
	LoadName

	// LoadRecord pushes a reference to module.Records[idx].
	// Operand: u16 record-schema index.
	LoadRecord

	// === Arithmetic ===

	// OpAdd pops (left, right), pushes left + right.
	OpAdd
	// OpMinus pops (left, right), pushes left - right.
	OpMinus
	// OpMul pops (left, right), pushes left * right.
	OpMul
	// OpDiv pops (left, right), pushes left / right as a Real.
	OpDiv
	// OpFloorDiv pops (left, right), pushes left div right as an Int.
	OpFloorDiv
	// OpModulo pops (left, right), pushes left mod right.
	OpModulo
	// OpInvert pops one numeric value, pushes its negation.
	OpInvert

	// === Logical ===

	// OpAnd pops (left, right) bools, pushes left && right.
	OpAnd
	// OpOr pops (left, right) bools, pushes left || right.
	OpOr
	// OpNot pops one bool, pushes its negation.
	OpNot

	// === Comparison ===

	// OpEq pops (left, right), pushes a Bool.
	OpEq
	// OpNotEq pops (left, right), pushes a Bool.
	OpNotEq
	// OpGreater pops (left, right) numerics, pushes a Bool.
	OpGreater
	// OpGreaterEq pops (left, right) numerics, pushes a Bool.
	OpGreaterEq
	// OpLess pops (left, right) numerics, pushes a Bool.
	OpLess
	// OpLessEq pops (left, right) numerics, pushes a Bool.
	OpLessEq

	// === Indexing ===

	// OpIndexGet pops (target, index), pushes target[index].
	OpIndexGet
	// OpIndexSet pops (target, index, value), writes target[index] = value.
	OpIndexSet

	// === Globals ===

	// GetGlobal pushes the current module's global named module.Names[idx].
	// Operand: u16 name-pool index.
	GetGlobal
	// SetGlobal pops the top value and stores it as a global.
	// Operand: u16 name-pool index.
	SetGlobal

	// === Locals ===

	// GetLocal pushes operand-stack slot frame.BP + idx.
	// Operand: u16 local-slot index.
	GetLocal
	// SetLocal pops the top value and stores it at frame.BP + idx.
	// Operand: u16 local-slot index.
	SetLocal

	// === Control flow ===

	// Jump sets ip = addr unconditionally.
	// Operand: u64 absolute code address.
	Jump
	// JumpIfFalse pops the condition; if false, sets ip = addr.
	// Operand: u64 absolute code address.
	JumpIfFalse

	// === Calls ===

	// CallFunction pops the callee and invokes it with the top argc
	// operand-stack slots as arguments.
	// Operand: u8 argument count.
	CallFunction
	// Return pops the return value, tears down the current frame, and
	// pushes the return value onto the caller's operand stack.
	Return

	// === Construction ===

	// BuildStr pops the top n values, formats each via its display form,
	// concatenates them in order, and pushes the resulting Str.
	// Operand: u8 operand count.
	BuildStr
	// BuildVec collects the top n stack slots (in order) into a freshly
	// allocated Vector handle.
	// Operand: u8 element count.
	BuildVec
	// BuildObj pops n field/value pairs then a record schema, and pushes a
	// new RecordInstance seeded from those pairs.
	// Operand: u8 pair count.
	BuildObj

	// === Records ===

	// GetProp pops (instance, field-name), pushes the field's value.
	GetProp
	// SetProp pops (instance, field-name, value), writes the field.
	SetProp

	// === Type ===

	// Cast pops a target type (a TypeVal) and then one value, pushes the
	// result of casting the value to that type.
	// Operand: u8 mode (0 = coercion, 1 = runtime type check).
	Cast

	// === Nullable ===

	// IsNull pops one value, pushes a Bool reporting whether it was None.
	IsNull
	// Unwrap pops (value[, default]); if value is None, pushes default
	// when present or raises a null-dereference error.
	// Operand: u8 has_default flag.
	Unwrap

	// === Misc ===

	// Mostra pops the top value and prints its display form followed by a
	// newline to stdout.
	Mostra

	// Halt terminates the dispatch loop. Always encoded as 0xFF rather
	// than the next sequential iota value, so a zeroed or truncated code
	// buffer does not masquerade as a valid halt.
	Halt Opcode = 0xFF
)

// operandWidths maps each opcode to the number of operand bytes that
// immediately follow it in the code stream. Opcodes absent from this map
// take no operand.
var operandWidths = map[Opcode]int{
	LoadConst:    2,
	LoadName:     2,
	LoadRecord:   2,
	GetGlobal:    2,
	SetGlobal:    2,
	GetLocal:     2,
	SetLocal:     2,
	Jump:         8,
	JumpIfFalse:  8,
	CallFunction: 1,
	BuildStr:     1,
	BuildVec:     1,
	BuildObj:     1,
	Cast:         1,
	Unwrap:       1,
}

// OperandWidth returns the number of operand bytes following op in the code
// stream, or 0 if op takes no operand.
func OperandWidth(op Opcode) int {
	return operandWidths[op]
}

// String returns a human-readable mnemonic for op, used by error messages
// and any future disassembly tooling.
func (op Opcode) String() string {
	switch op {
	case LoadConst:
		return "LOAD_CONST"
	case LoadName:
		return "LOAD_NAME"
	case LoadRecord:
		return "LOAD_RECORD"
	case OpAdd:
		return "ADD"
	case OpMinus:
		return "MINUS"
	case OpMul:
		return "MUL"
	case OpDiv:
		return "DIV"
	case OpFloorDiv:
		return "FLOOR_DIV"
	case OpModulo:
		return "MODULO"
	case OpInvert:
		return "INVERT"
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpNot:
		return "NOT"
	case OpEq:
		return "EQ"
	case OpNotEq:
		return "NOT_EQ"
	case OpGreater:
		return "GREATER"
	case OpGreaterEq:
		return "GREATER_EQ"
	case OpLess:
		return "LESS"
	case OpLessEq:
		return "LESS_EQ"
	case OpIndexGet:
		return "INDEX_GET"
	case OpIndexSet:
		return "INDEX_SET"
	case GetGlobal:
		return "GET_GLOBAL"
	case SetGlobal:
		return "SET_GLOBAL"
	case GetLocal:
		return "GET_LOCAL"
	case SetLocal:
		return "SET_LOCAL"
	case Jump:
		return "JUMP"
	case JumpIfFalse:
		return "JUMP_IF_FALSE"
	case CallFunction:
		return "CALL_FUNCTION"
	case Return:
		return "RETURN"
	case BuildStr:
		return "BUILD_STR"
	case BuildVec:
		return "BUILD_VEC"
	case BuildObj:
		return "BUILD_OBJ"
	case GetProp:
		return "GET_PROP"
	case SetProp:
		return "SET_PROP"
	case Cast:
		return "CAST"
	case IsNull:
		return "IS_NULL"
	case Unwrap:
		return "UNWRAP"
	case Mostra:
		return "MOSTRA"
	case Halt:
		return "HALT"
	default:
		return "UNKNOWN"
	}
}
