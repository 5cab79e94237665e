// Package toodle is the managed side of the toodle store: a Store owning one
// native store handle, and Item and Label facades each owning one record
// handle.
//
// Lifetimes are explicit. Every facade returned by a Store is owned by the
// caller until its Close; closing the Store first releases every facade it
// produced that is still open, after which those facades fail with
// types.ErrUseAfterRelease. Labels returned by Item.Labels belong to the
// item and are released with it.
//
// A Store serializes every call on one mutex; facades may be shared across
// goroutines but calls never overlap at the native boundary.
package toodle
