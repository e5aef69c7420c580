package shared

import "fmt"

// Debug controls whether DebugPrintf produces output. Set once at startup
// from the --debug flag.
var Debug bool

// DebugPrintf prints a formatted debug message when debug mode is enabled.
func DebugPrintf(format string, args ...interface{}) {
	if Debug {
		fmt.Printf("DEBUG: "+format, args...)
	}
}
