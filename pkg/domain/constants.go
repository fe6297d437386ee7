package domain

// Field constants for mapstructure and JSON standardization.
const (
	KeyModule = "module"
	KeyPoint  = "point"
	KeyFault  = "fault"
)
