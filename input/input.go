// The input package provides an interface to mouse and keyboard inputs
// like key clicks and releases, along with some higher level constructs like
// pressed/released this frame, double clicks, and normalized inputs.
//
// Windows feed it through the Handle* functions using the backend neutral Key and
// MouseButton codes, so the demos read the same state with SDL and GLFW.
package input

type Key int32

const (
	KeyUnknown Key = iota
	KeyW
	KeyA
	KeyS
	KeyD
	KeyQ
	KeyE
	KeyC
	KeyM
	KeySpace
	KeyEscape
	KeyLeftShift
)

func (k Key) String() string {

	switch k {
	case KeyW:
		return "W"
	case KeyA:
		return "A"
	case KeyS:
		return "S"
	case KeyD:
		return "D"
	case KeyQ:
		return "Q"
	case KeyE:
		return "E"
	case KeyC:
		return "C"
	case KeyM:
		return "M"
	case KeySpace:
		return "Space"
	case KeyEscape:
		return "Escape"
	case KeyLeftShift:
		return "LeftShift"
	default:
		return "Unknown"
	}
}

type MouseButton int32

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

type keyState struct {
	Key                 Key
	IsDown              bool
	IsPressedThisFrame  bool
	IsReleasedThisFrame bool
}

type mouseBtnState struct {
	Btn    MouseButton
	IsDown bool

	IsPressedThisFrame  bool
	IsReleasedThisFrame bool
	IsDoubleClicked     bool
}

type mouseMotionState struct {
	XDelta float32
	YDelta float32
	XPos   float32
	YPos   float32
}

type mouseWheelState struct {
	XDelta float32
	YDelta float32
}

var (
	mouseWheel  = mouseWheelState{}
	mouseMotion = mouseMotionState{}
	mouseBtnMap = make(map[MouseButton]mouseBtnState)
	keyMap      = make(map[Key]keyState)

	isQuitRequested bool
)

// EventLoopStart resets the per frame state. Call it before handling the events of a frame.
func EventLoopStart() {

	for k, v := range keyMap {
		v.IsPressedThisFrame = false
		v.IsReleasedThisFrame = false
		keyMap[k] = v
	}

	for k, v := range mouseBtnMap {
		v.IsPressedThisFrame = false
		v.IsReleasedThisFrame = false
		v.IsDoubleClicked = false
		mouseBtnMap[k] = v
	}

	mouseMotion.XDelta = 0
	mouseMotion.YDelta = 0

	mouseWheel.XDelta = 0
	mouseWheel.YDelta = 0
}

func ClearKeyboardState() {
	clear(keyMap)
}

func ClearMouseState() {
	clear(mouseBtnMap)
	mouseMotion = mouseMotionState{}
	mouseWheel = mouseWheelState{}
}

// HandleQuit marks that the user asked to close the window. It stays set until ResetQuit.
func HandleQuit() {
	isQuitRequested = true
}

func ResetQuit() {
	isQuitRequested = false
}

func IsQuitClicked() bool {
	return isQuitRequested
}

// HandleKey records a key event. Repeats from holding a key down don't count as presses.
func HandleKey(key Key, isDown, isRepeat bool) {

	if key == KeyUnknown {
		return
	}

	ks, ok := keyMap[key]
	if !ok {
		ks = keyState{Key: key}
	}

	ks.IsDown = isDown
	ks.IsPressedThisFrame = isDown && !isRepeat
	ks.IsReleasedThisFrame = !isDown && !isRepeat

	keyMap[key] = ks
}

func HandleMouseBtn(btn MouseButton, isDown bool, clicks int) {

	mb, ok := mouseBtnMap[btn]
	if !ok {
		mb = mouseBtnState{Btn: btn}
	}

	mb.IsDown = isDown
	mb.IsDoubleClicked = clicks == 2 && isDown
	mb.IsPressedThisFrame = isDown
	mb.IsReleasedThisFrame = !isDown

	mouseBtnMap[btn] = mb
}

// HandleMouseMotion records the cursor position and adds to the motion of this frame
func HandleMouseMotion(x, y, xRel, yRel float32) {

	mouseMotion.XPos = x
	mouseMotion.YPos = y

	mouseMotion.XDelta += xRel
	mouseMotion.YDelta += yRel
}

func HandleMouseWheel(xDelta, yDelta float32) {
	mouseWheel.XDelta += xDelta
	mouseWheel.YDelta += yDelta
}

// GetMousePos returns the window coordinates of the mouse
func GetMousePos() (x, y float32) {
	return mouseMotion.XPos, mouseMotion.YPos
}

// GetMouseMotion returns how many pixels were moved this frame
func GetMouseMotion() (xDelta, yDelta float32) {
	return mouseMotion.XDelta, mouseMotion.YDelta
}

func GetMouseWheelMotion() (xDelta, yDelta float32) {
	return mouseWheel.XDelta, mouseWheel.YDelta
}

// GetMouseWheelYNorm returns 1 if mouse wheel yDelta > 0, -1 if yDelta < 0, and 0 otherwise
func GetMouseWheelYNorm() int32 {

	if mouseWheel.YDelta > 0 {
		return 1
	} else if mouseWheel.YDelta < 0 {
		return -1
	}

	return 0
}

func KeyClicked(key Key) bool {
	return keyMap[key].IsPressedThisFrame
}

func KeyReleased(key Key) bool {
	return keyMap[key].IsReleasedThisFrame
}

func KeyDown(key Key) bool {
	return keyMap[key].IsDown
}

func KeyUp(key Key) bool {
	return !keyMap[key].IsDown
}

// KeyAxis returns 1 if only positive is down, -1 if only negative is down, and 0 otherwise
func KeyAxis(positive, negative Key) float32 {

	var v float32
	if KeyDown(positive) {
		v++
	}

	if KeyDown(negative) {
		v--
	}

	return v
}

func MouseClicked(mb MouseButton) bool {
	return mouseBtnMap[mb].IsPressedThisFrame
}

func MouseDoubleClicked(mb MouseButton) bool {
	return mouseBtnMap[mb].IsDoubleClicked
}

func MouseReleased(mb MouseButton) bool {
	return mouseBtnMap[mb].IsReleasedThisFrame
}

func MouseDown(mb MouseButton) bool {
	return mouseBtnMap[mb].IsDown
}

func MouseUp(mb MouseButton) bool {
	return !mouseBtnMap[mb].IsDown
}
