package common

// Key is a key code as delivered to window key callbacks. Values are GLFW key codes, which use the ASCII code for
// printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type Key = uint32

// Printable keys.
const (
	KeySpace Key = 32
	KeyA     Key = 65
	KeyD     Key = 68
	KeyS     Key = 83
	KeyW     Key = 87
)

// Non-printable keys.
const (
	KeyEscape Key = 256
	KeyRight  Key = 262
	KeyLeft   Key = 263
	KeyDown   Key = 264
	KeyUp     Key = 265
)
