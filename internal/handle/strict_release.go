//go:build !toodledebug

package handle

const strict = false
