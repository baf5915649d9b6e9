// Package validate implements an optional validation layer for
// bind.Engine.
//
// A Layer is attached with bind.WithValidator. It mirrors the bound
// table's slots in an is-bound table and, before each flush, reports every
// slot the shader reads but the caller never set. When CheckDescriptors
// is enabled, every descriptor passed to a set call is also checked
// against the category it is bound to and, if a MemoryMap is configured,
// against the memory it points at. Each check yields ErrorBits so that
// simultaneous problems are reported together.
//
// Reports go to Config.Callback. Without a callback the layer panics with
// an *Error.
//
// Use one Layer per Engine.
package validate
