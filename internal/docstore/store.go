// Package docstore adapts the extraction pipeline to a MongoDB document
// store under the hierarchical collection naming scheme.
package docstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/rpger/content-extractor/internal/common"
	"github.com/rpger/content-extractor/internal/model"
)

// Page is one page of a collection read.
type Page struct {
	Docs  []map[string]any
	Total int
}

// Store is the document-side capability the orchestrator requires.
type Store interface {
	EnsureCollection(ctx context.Context, name string) error
	// InsertWhole lands one artifact document; folder is the
	// single-with-folder metadata path, empty in the separate layout.
	InsertWhole(ctx context.Context, name string, artifact model.Artifact, folder string) (string, error)
	// InsertSplit lands one document per section, sharing the artifact
	// metadata.
	InsertSplit(ctx context.Context, name string, artifact model.Artifact, folder string) ([]string, error)
	PageThrough(ctx context.Context, name string, offset, limit int, filter map[string]any) (Page, error)
	SearchText(ctx context.Context, name, query string, limit int) ([]map[string]any, error)
	ListCollections(ctx context.Context) ([]string, error)
	Ping(ctx context.Context) error
}

// Config for the MongoDB adapter.
type Config struct {
	URI      string // default mongodb://localhost:27017
	Database string // default rpger
	Timeout  time.Duration
}

// Mongo implements Store.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	cfg    Config
	logger *slog.Logger
}

// New connects the adapter. Server selection is bounded to the configured
// timeout so an unreachable store fails fast.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Mongo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = "rpger"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout).
		SetSocketTimeout(cfg.Timeout))
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "mongo connect", err)
	}
	return &Mongo{client: client, db: client.Database(cfg.Database), cfg: cfg, logger: logger}, nil
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureCollection creates the named collection when missing. MongoDB also
// creates collections lazily, so an existing name is never an error.
func (m *Mongo) EnsureCollection(ctx context.Context, name string) error {
	names, err := m.db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "list collections", err)
	}
	if len(names) > 0 {
		return nil
	}
	if err := m.db.CreateCollection(ctx, name); err != nil {
		// A concurrent creator is fine.
		if cmdErr, ok := err.(mongo.CommandError); ok && cmdErr.Code == 48 {
			return nil
		}
		return common.NewAppError(common.CodeStoreUnreachable, "create collection "+name, err)
	}
	return nil
}

func (m *Mongo) InsertWhole(ctx context.Context, name string, artifact model.Artifact, folder string) (string, error) {
	doc := bson.M{
		"source_name":   artifact.SourceName,
		"source_digest": artifact.SourceHash,
		"import_date":   artifact.IngestedAt,
		"game_metadata": gameMetadata(artifact),
		"summary":       artifact.Summary,
		"confidence":    artifact.Confidence,
		"quality":       artifact.Quality,
		"sections":      artifact.Sections,
	}
	if folder != "" {
		doc["folder_path"] = folder
	}
	if artifact.Verdict.ISBN13 != "" {
		doc["isbn"] = artifact.Verdict.ISBN13
	}
	if artifact.Characters != nil {
		doc["characters"] = artifact.Characters
	}
	res, err := m.db.Collection(name).InsertOne(ctx, doc)
	if err != nil {
		return "", mapWriteErr("insert whole", err)
	}
	m.logger.Info("docstore.insert_whole.ok", "collection", name, "sections", len(artifact.Sections))
	return objectIDHex(res.InsertedID), nil
}

func (m *Mongo) InsertSplit(ctx context.Context, name string, artifact model.Artifact, folder string) ([]string, error) {
	shared := gameMetadata(artifact)
	docs := make([]any, 0, len(artifact.Sections))
	for _, s := range artifact.Sections {
		doc := bson.M{
			"page":          s.Page,
			"ordinal":       s.Ordinal,
			"content":       s.EnhancedText,
			"category":      s.Category,
			"confidence":    s.CategoryConfidence,
			"has_table":     s.HasTable,
			"source_digest": artifact.SourceHash,
			"import_date":   artifact.IngestedAt,
			"game_metadata": shared,
		}
		if len(s.Tables) > 0 {
			doc["tables"] = s.Tables
		}
		if folder != "" {
			doc["folder_path"] = folder
		}
		if artifact.Verdict.ISBN13 != "" {
			doc["isbn"] = artifact.Verdict.ISBN13
		}
		docs = append(docs, doc)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	res, err := m.db.Collection(name).InsertMany(ctx, docs)
	if err != nil {
		return nil, mapWriteErr("insert split", err)
	}
	ids := make([]string, 0, len(res.InsertedIDs))
	for _, id := range res.InsertedIDs {
		ids = append(ids, objectIDHex(id))
	}
	m.logger.Info("docstore.insert_split.ok", "collection", name, "docs", len(ids))
	return ids, nil
}

func (m *Mongo) PageThrough(ctx context.Context, name string, offset, limit int, filter map[string]any) (Page, error) {
	if limit <= 0 {
		limit = 20
	}
	where := bson.M{}
	for k, v := range filter {
		where[k] = v
	}
	coll := m.db.Collection(name)
	total, err := coll.CountDocuments(ctx, where)
	if err != nil {
		return Page{}, common.NewAppError(common.CodeStoreUnreachable, "count "+name, err)
	}
	cursor, err := coll.Find(ctx, where, options.Find().
		SetSkip(int64(offset)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "page", Value: 1}, {Key: "ordinal", Value: 1}}))
	if err != nil {
		return Page{}, common.NewAppError(common.CodeStoreUnreachable, "find "+name, err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	if err := cursor.All(ctx, &docs); err != nil {
		return Page{}, common.NewAppError(common.CodeStoreUnreachable, "decode "+name, err)
	}
	return Page{Docs: docs, Total: int(total)}, nil
}

func (m *Mongo) SearchText(ctx context.Context, name, query string, limit int) ([]map[string]any, error) {
	if limit <= 0 {
		limit = 20
	}
	where := bson.M{"content": bson.M{"$regex": primitive.Regex{Pattern: query, Options: "i"}}}
	cursor, err := m.db.Collection(name).Find(ctx, where, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "search "+name, err)
	}
	defer cursor.Close(ctx)

	var docs []map[string]any
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "decode search "+name, err)
	}
	return docs, nil
}

func (m *Mongo) ListCollections(ctx context.Context) ([]string, error) {
	names, err := m.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "list collections", err)
	}
	return names, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "mongo ping", err)
	}
	return nil
}

func gameMetadata(artifact model.Artifact) bson.M {
	v := artifact.Verdict
	return bson.M{
		"kind":       string(v.Kind),
		"game":       v.Game,
		"edition":    v.Edition,
		"book":       v.BookCode,
		"book_title": v.BookTitle,
		"publisher":  v.Publisher,
		"derivation": string(v.Derivation),
		"confidence": v.Confidence,
	}
}

func mapWriteErr(op string, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return common.NewAppError(common.CodeStoreConflict, op, err)
	}
	return common.NewAppError(common.CodeStoreUnreachable, op, err)
}

func objectIDHex(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprintf("%v", id)
}

var _ Store = (*Mongo)(nil)
