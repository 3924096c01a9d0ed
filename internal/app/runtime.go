package app

import (
	"os"
	"sync"
)

var testMode = sync.OnceValue(func() bool {
	return os.Getenv("MERIDIAN_TEST_MODE") == "1"
})

// InTestMode reports whether the process runs under the test harness, in
// which case the binaries exit before touching postgres or redis.
func InTestMode() bool {
	return testMode()
}
