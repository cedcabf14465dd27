package serialmux

import (
	"fmt"
	"strings"
)

// InitCommands are the MediaTek bodies sent by Initialize: RMC and GGA
// output only, at one fix per second.
var InitCommands = []string{
	"PMTK314,0,1,0,1,0,0,0,0,0,0,0,0,0,0,0,0,0,0,0",
	"PMTK220,1000",
}

// Sentence frames body as an NMEA sentence with its XOR checksum.
func Sentence(body string) string {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X", body, sum)
}

// SentenceType returns the talker-independent type of an NMEA line: "GGA"
// for both $GPGGA and $GNGGA. Proprietary sentences return their whole
// address ("PMTK001") and non-NMEA lines return "".
func SentenceType(line string) string {
	if !strings.HasPrefix(line, "$") {
		return ""
	}
	addr, _, _ := strings.Cut(line[1:], ",")
	addr, _, _ = strings.Cut(addr, "*")
	if strings.HasPrefix(addr, "P") || len(addr) != 5 {
		return addr
	}
	return addr[2:]
}
