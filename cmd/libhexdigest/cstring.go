package main

// #include <stdlib.h>
import "C"

import "github.com/satriahrh/cocoa-fruit/hexdigest/bridge"

// hexOf reads a NUL-terminated host string. NULL yields "" without hashing.
func hexOf(input *C.char) string {
	if input == nil {
		return ""
	}
	text := goString(input)
	return bridge.Sha256Hex(&text)
}

// cString copies s into C memory owned by the caller.
func cString(s string) *C.char {
	return C.CString(s)
}

func goString(p *C.char) string {
	return C.GoString(p)
}
