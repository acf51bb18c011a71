package memory

import (
	"testing"

	"personasim/internal/store"
	"personasim/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}
