package postgres_test

import (
	"github.com/nathoo/skirmish/engine"
	"github.com/nathoo/skirmish/store/postgres"
)

var _ engine.Store = (*postgres.Store)(nil)
