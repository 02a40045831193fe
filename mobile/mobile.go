// Package mobile is the gomobile surface:
//
//	gomobile bind -target=android -javapkg=com.example.hexdigest ./mobile
//
// gomobile maps a null Java/ObjC string to "", so both hash as the empty input.
package mobile

import "github.com/satriahrh/cocoa-fruit/hexdigest/bridge"

const version = "0.1.0"

// Sha256Hex returns the lowercase hex SHA-256 of input.
func Sha256Hex(input string) string {
	return bridge.Sha256Hex(&input)
}

// Sha256HexBytes returns the lowercase hex SHA-256 of data.
func Sha256HexBytes(data []byte) string {
	return bridge.Sha256HexBytes(data)
}

// Version reports the library version.
func Version() string {
	return version
}
