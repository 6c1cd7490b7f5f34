package sequence

import (
	"fmt"

	"github.com/LiangrunDa/seqfield/errors"
)

func assertInvariant(b bool, v ...interface{}) {
	if !b {
		panic(errors.AssertionError{Message: fmt.Sprint(v...)})
	}
}

func fail(v ...interface{}) {
	panic(errors.AssertionError{Message: fmt.Sprint(v...)})
}

func unreachableCase(effect MarkEffect) {
	panic(errors.UnknownEffectError{Type: fmt.Sprintf("%T", effect)})
}

func unsupported(reason string) {
	panic(errors.UnsupportedCompositionError{Reason: reason})
}
