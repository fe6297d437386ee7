package probe

// Probe is one module's fault-injection surface.
type Probe interface {
	// IsEnabled reports whether the probe may participate at all.
	// The registry evaluates it once, at registration time.
	IsEnabled() bool

	SetException(point string)
	SetDelay(point string)
	SetTermination(point string)
	Unset(point string)

	// Points returns the currently known injection points. It is queried live.
	Points() []string
}
