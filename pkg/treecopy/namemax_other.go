//go:build !linux

package treecopy

func nameMax(string) int {
	return defaultNameMax
}
