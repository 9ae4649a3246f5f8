//go:build !debug

package bullet

func debugAssert(bool, ...interface{}) {}
