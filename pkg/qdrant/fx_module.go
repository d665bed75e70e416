package qdrant

import (
	"context"
	"log"
	"sync"

	"go.uber.org/fx"
)

// FXModule defines the Fx module for the Qdrant client and product index.
//
// The module:
//  1. Provides the NewQdrantClient factory function to the dependency
//     injection container.
//  2. Provides NewIndex, which wraps the client into the product-level
//     abstraction and ensures the collection exists.
//  3. Invokes RegisterQdrantLifecycle to handle shutdown of the client.
//
// Dependencies required by this module:
// - A qdrant.Config instance must be available in the dependency injection container.
var FXModule = fx.Module("qdrant",
	fx.Provide(
		NewQdrantClient,
		NewIndex,
	),
	fx.Invoke(RegisterQdrantLifecycle),
)

// QdrantParams defines dependencies needed to construct the Qdrant client.
type QdrantParams struct {
	fx.In
	Config *Config
}

// RegisterQdrantLifecycle handles startup/shutdown of the Qdrant client.
func RegisterQdrantLifecycle(lc fx.Lifecycle, client *QdrantClient) {
	var once sync.Once

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Println("[Qdrant] client initialized successfully")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			once.Do(func() {
				if err := client.Close(); err != nil {
					log.Printf("[Qdrant] error closing client: %v", err)
				}
			})
			return nil
		},
	})
}
