// Package buffer provides the core allocation, ownership and caching types
// shared by every compute backend.
package buffer

// AllocFlag describes who owns a block of backing memory and therefore who
// is responsible for releasing it. It is the single discriminant consulted
// by Buffer.Release.
type AllocFlag uint8

// Ownership variants for a buffer's backing memory.
const (
	// FlagNone marks exclusively owned, freshly allocated memory.
	// The Buffer frees it on Release.
	FlagNone AllocFlag = iota
	// FlagWrapper marks memory borrowed from an external owner.
	// It is never freed by the Buffer.
	FlagWrapper
	// FlagCache marks memory that lives in a device's cache table.
	// Its lifetime belongs to the Cache, not to any Buffer viewing it.
	FlagCache
)

// String returns a human-readable flag name.
func (f AllocFlag) String() string {
	switch f {
	case FlagNone:
		return "None"
	case FlagWrapper:
		return "Wrapper"
	case FlagCache:
		return "Cache"
	default:
		return "Unknown"
	}
}
