package data

import (
	"github.com/google/wire"
)

// ProviderSet is the data layer's wire provider set.
var ProviderSet = wire.NewSet(
	NewDB,
	NewPoliticsRepository,
)
