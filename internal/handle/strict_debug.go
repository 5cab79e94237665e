//go:build toodledebug

package handle

// strict turns handle misuse into a panic in debug builds.
const strict = true
