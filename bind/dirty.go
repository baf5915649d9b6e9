package bind

// Dirty records what changed since the last flush.
type Dirty uint8

// Dirty states. Both is ShaderChanged|ResourcesChanged.
const (
	Clean            Dirty = 0
	ShaderChanged    Dirty = 1 << 0
	ResourcesChanged Dirty = 1 << 1
	Both                   = ShaderChanged | ResourcesChanged
)

func (d Dirty) String() string {
	switch d {
	case Clean:
		return "clean"
	case ShaderChanged:
		return "shader"
	case ResourcesChanged:
		return "resources"
	case Both:
		return "shader+resources"
	default:
		return "Dirty(?)"
	}
}

// event is an input to the dirty state machine.
type event uint8

const (
	evShaderBound event = iota // a different shader was bound
	evTableBound               // same shader, different table
	evResourceSet              // a setter ran
	evFlushed                  // flush committed
	evReset                    // new submission cycle
)

// mark is the state transition function.
func (d Dirty) mark(ev event) Dirty {
	switch ev {
	case evShaderBound:
		return d | ShaderChanged
	case evTableBound, evResourceSet:
		return d | ResourcesChanged
	case evFlushed:
		return Clean
	case evReset:
		return Both
	}
	return d
}

// has reports whether d includes every bit of s.
func (d Dirty) has(s Dirty) bool { return d&s == s }
