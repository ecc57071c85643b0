package core

// Input codes, numerically identical to GLFW's so host callbacks can pass
// them through unchanged.
const (
	MouseLeft   = 0
	MouseRight  = 1
	MouseMiddle = 2
)

const (
	KeyEscape = 256
	Key1      = 49
	Key9      = 57
)
