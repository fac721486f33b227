//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"atlashub/cmd/atlas-service/internal/biz"
	"atlashub/cmd/atlas-service/internal/data"
	"atlashub/cmd/atlas-service/internal/server"
	"atlashub/cmd/atlas-service/internal/service"
)

// ProviderSet is the full dependency graph.
var ProviderSet = wire.NewSet(
	// Config-derived
	provideDBConfig,
	provideSessionStore,
	provideProviders,
	provideTurnProducer,
	provideTurnEventSink,

	// Data
	data.ProviderSet,

	// Biz
	biz.NewClassifier,
	biz.NewDispatcher,
	biz.NewAnswerGenerator,
	biz.NewChatUsecase,

	// Service
	service.NewChatService,

	// Server
	server.NewHTTPServer,
)

func initApp(*Config, log.Logger) (*App, func(), error) {
	panic(wire.Build(
		ProviderSet,
		newApp,
	))
}
