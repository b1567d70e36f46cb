package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("CREWDECK_TEST_MODE") == "" {
			_ = os.Setenv("CREWDECK_TEST_MODE", "1")
		}
	})
}
