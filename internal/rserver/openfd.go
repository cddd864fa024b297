package rserver

import "os"

// openFile is the per-fd entry in the server's open-fd table, alive for
// the duration of one bulk operation (spec §3 "Open-fd table"). Modeled
// as a struct keyed by fd rather than the source's three-element list
// mutated in place (spec §9 "Mutable state carried by value-lists").
type openFile struct {
	f          *os.File
	truncated  bool
	writeErrno uint16
}
