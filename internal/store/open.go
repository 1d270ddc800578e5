package store

import (
	"context"
	"fmt"

	"studentattendance/internal/config"
	"studentattendance/internal/docstore"
)

// OpenDocuments connects the document store selected by cfg.StoreBackend.
func OpenDocuments(ctx context.Context, cfg config.App) (docstore.Store, error) {
	switch cfg.StoreBackend {
	case "", "memory":
		return docstore.NewMemory(), nil
	case "mongo":
		docs, err := docstore.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return docs, nil
	case "postgres":
		db, err := NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		docs, err := docstore.NewPostgres(ctx, db.Client)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return docs, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
