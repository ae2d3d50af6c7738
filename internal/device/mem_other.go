//go:build !linux && !darwin

package device

// No memory hint on this platform; classification falls back to Mid.
func totalMemoryGB() float64 { return 0 }
