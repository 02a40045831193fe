// Command libhexdigest builds the native digest library loaded by host runtimes:
//
//	go build -buildmode=c-shared -o libhexdigest.so ./cmd/libhexdigest
//
// Strings returned by sha256Hex are allocated with malloc and must be released
// with sha256HexFree.
package main

/*
#include <stdlib.h>
*/
import "C"

import "unsafe"

//export sha256Hex
func sha256Hex(input *C.char) *C.char {
	return cString(hexOf(input))
}

//export sha256HexFree
func sha256HexFree(s *C.char) {
	C.free(unsafe.Pointer(s))
}

func main() {}
