package assert

import (
	"fmt"

	"github.com/bloeys/deferred/logging"
)

// Enabled controls whether failed checks panic
var Enabled = true

// T panics with the formatted message if check is false
func T(check bool, msg string, args ...any) {

	if !Enabled || check {
		return
	}

	formatted := fmt.Sprintf(msg, args...)
	logging.ErrLog.Println("Assert failed:", formatted)
	panic("Assert failed: " + formatted)
}
