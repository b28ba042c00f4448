package assert

import "github.com/emortalmc/glowstone/gerror"

func IsTrue(ok bool, message string, args ...interface{}) {
	if !ok {
		panic(gerror.New(message, args...))
	}
}
