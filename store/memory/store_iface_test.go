package memory_test

import (
	"github.com/nathoo/skirmish/engine"
	"github.com/nathoo/skirmish/store/memory"
)

var _ engine.Store = (*memory.Store)(nil)
