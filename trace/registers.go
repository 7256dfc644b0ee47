// This file is part of gbsdiff.
//
// gbsdiff is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// gbsdiff is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with gbsdiff.  If not, see <https://www.gnu.org/licenses/>.

package trace

import (
	"fmt"
	"sort"
	"strings"
)

// Register addresses of the sound chip and the DIV register, which the player
// reports because writing it resets the frame sequencer.
const (
	DIV  uint16 = 0xff04
	NR10 uint16 = 0xff10
	NR11 uint16 = 0xff11
	NR12 uint16 = 0xff12
	NR13 uint16 = 0xff13
	NR14 uint16 = 0xff14
	NR21 uint16 = 0xff16
	NR22 uint16 = 0xff17
	NR23 uint16 = 0xff18
	NR24 uint16 = 0xff19
	NR30 uint16 = 0xff1a
	NR31 uint16 = 0xff1b
	NR32 uint16 = 0xff1c
	NR33 uint16 = 0xff1d
	NR34 uint16 = 0xff1e
	NR41 uint16 = 0xff20
	NR42 uint16 = 0xff21
	NR43 uint16 = 0xff22
	NR44 uint16 = 0xff23
	NR50 uint16 = 0xff24
	NR51 uint16 = 0xff25
	NR52 uint16 = 0xff26

	// wave pattern RAM occupies sixteen addresses
	WaveRAM    uint16 = 0xff30
	WaveRAMEnd uint16 = 0xff3f
)

var registerNames = map[uint16]string{
	DIV:  "DIV",
	NR10: "NR10",
	NR11: "NR11",
	NR12: "NR12",
	NR13: "NR13",
	NR14: "NR14",
	NR21: "NR21",
	NR22: "NR22",
	NR23: "NR23",
	NR24: "NR24",
	NR30: "NR30",
	NR31: "NR31",
	NR32: "NR32",
	NR33: "NR33",
	NR34: "NR34",
	NR41: "NR41",
	NR42: "NR42",
	NR43: "NR43",
	NR44: "NR44",
	NR50: "NR50",
	NR51: "NR51",
	NR52: "NR52",
}

// IsAudioRegister returns true if the port is one of the registers that
// affect sound output.
func IsAudioRegister(port uint16) bool {
	if port >= WaveRAM && port <= WaveRAMEnd {
		return true
	}
	_, ok := registerNames[port]
	return ok
}

// RegisterName returns the conventional name of the register at port. Ports
// that are not audio registers are returned as a hex address.
func RegisterName(port uint16) string {
	if port >= WaveRAM && port <= WaveRAMEnd {
		return fmt.Sprintf("wave RAM[%d]", port-WaveRAM)
	}
	if n, ok := registerNames[port]; ok {
		return n
	}
	return fmt.Sprintf("$%04x", port)
}

// AudioRegisters returns the list of audio register ports in address order.
func AudioRegisters() []uint16 {
	ports := make([]uint16, 0, len(registerNames)+int(WaveRAMEnd-WaveRAM)+1)
	for p := range registerNames {
		ports = append(ports, p)
	}
	for p := WaveRAM; p <= WaveRAMEnd; p++ {
		ports = append(ports, p)
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })
	return ports
}

// LookupRegister returns the port for a register name returned by
// RegisterName(). Names are not case sensitive. Hexadecimal addresses are not
// accepted.
func LookupRegister(name string) (uint16, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for p, n := range registerNames {
		if n == name {
			return p, true
		}
	}

	var i uint16
	if _, err := fmt.Sscanf(strings.ToLower(name), "wave ram[%d]", &i); err == nil && i <= WaveRAMEnd-WaveRAM {
		return WaveRAM + i, true
	}

	return 0, false
}
