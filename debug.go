//go:build debug

package bullet

import "fmt"

func debugAssert(truth bool, msg ...interface{}) {
	if !truth {
		panic(fmt.Sprint("Assertion failed: ", fmt.Sprint(msg...), ": ", ErrLogic))
	}
}
