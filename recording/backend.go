package recording

import "github.com/gogpu/resbind/bind"

// Backend is the interface that all playback backends must implement.
// A Backend receives the same commands an engine sends to its sink, in
// recording order, bracketed by Begin and End.
//
// Backends are created via the registry using NewBackend(name) and
// registered via Register() in their init() functions.
//
// # Implementation Contract
//
// Each backend must:
//  1. Register in init() using recording.Register()
//  2. Handle every bind.Sink method (even if no-op for some)
//  3. Report deferred failures, such as write errors, from End
//
// # Example Backend Registration
//
//	func init() {
//	    recording.Register("trace", func() recording.Backend {
//	        return trace.NewBackend()
//	    })
//	}
type Backend interface {
	// Begin prepares the backend for a playback.
	Begin() error

	bind.Sink

	// End finishes a playback and returns any error deferred during it.
	End() error
}
