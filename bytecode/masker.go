package bytecode

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/vm"
)

// MaskAddresses returns a copy of code in which the operand of every complete PUSH20 instruction has been zeroed,
// along with the amount of operands masked. Operands of other push instructions are left as-is, and a PUSH20 whose
// operand runs past the end of the code is neither masked nor counted.
func MaskAddresses(code []byte) ([]byte, int) {
	masked := make([]byte, len(code))
	copy(masked, code)

	count := 0
	Walk(masked, func(pc int, op byte) bool {
		if op == byte(vm.PUSH20) && pc+1+common.AddressLength <= len(masked) {
			clear(masked[pc+1 : pc+1+common.AddressLength])
			count++
		}
		return true
	})
	return masked, count
}
