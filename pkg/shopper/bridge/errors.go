package bridge

import "fmt"

type panicError struct {
	value any
}

func (p panicError) Error() string {
	return fmt.Sprintf("sync task panicked: %v", p.value)
}
