package bytecode

import (
	"github.com/ethereum/go-ethereum/core/vm"
)

// PushOperandSize returns the amount of operand bytes which follow the provided opcode. PUSH1 through PUSH32 carry
// 1 to 32 bytes of immediate data, every other opcode (including PUSH0) carries none.
func PushOperandSize(op byte) int {
	if op >= byte(vm.PUSH1) && op <= byte(vm.PUSH32) {
		return int(op-byte(vm.PUSH1)) + 1
	}
	return 0
}

// NextInstruction returns the program counter of the instruction following the one at pc. The result may exceed
// len(code) if the instruction at pc is a push whose operand is truncated.
func NextInstruction(code []byte, pc int) int {
	if pc < 0 || pc >= len(code) {
		return pc + 1
	}
	return pc + 1 + PushOperandSize(code[pc])
}

// Walk visits every genuine instruction in code in order, skipping push operands as a unit so that operand bytes are
// never reported as opcodes. The provided callback receives the program counter and opcode of each instruction and
// may return false to stop the walk early.
func Walk(code []byte, fn func(pc int, op byte) bool) {
	for pc := 0; pc < len(code); pc = NextInstruction(code, pc) {
		if !fn(pc, code[pc]) {
			return
		}
	}
}

// ContainsOpcode reports whether op occurs as a genuine instruction starting within the first limit bytes of code.
// A non-positive limit scans the whole sequence.
func ContainsOpcode(code []byte, op byte, limit int) bool {
	if limit <= 0 || limit > len(code) {
		limit = len(code)
	}

	found := false
	Walk(code[:limit], func(pc int, current byte) bool {
		if current == op {
			found = true
			return false
		}
		return true
	})
	return found
}
