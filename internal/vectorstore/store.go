// Package vectorstore adapts the extraction pipeline to a qdrant vector
// index.
package vectorstore

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/rpger/content-extractor/internal/common"
)

// Record is one upserted section.
type Record struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Sampled is a stored record returned by Sample.
type Sampled struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Store is the vector-side capability the orchestrator requires.
type Store interface {
	EnsureCollection(ctx context.Context, name string) error
	UpsertSections(ctx context.Context, name string, records []Record) error
	ListCollections(ctx context.Context) ([]string, error)
	Sample(ctx context.Context, name string, limit int) ([]Sampled, error)
	Count(ctx context.Context, name string) (int, error)
	Ping(ctx context.Context) error
}

// Config for the qdrant adapter.
type Config struct {
	Addr          string // host:port of the gRPC endpoint, default localhost:6334
	MaxValueBytes int    // single-text limit before store_oversize
}

// Qdrant implements Store over the official Go client.
type Qdrant struct {
	client   *qdrant.Client
	embedder Embedder
	cfg      Config
	logger   *slog.Logger
}

// New connects the qdrant adapter.
func New(cfg Config, embedder Embedder, logger *slog.Logger) (*Qdrant, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if embedder == nil {
		embedder = NewHashingEmbedder(0)
	}
	if cfg.MaxValueBytes <= 0 {
		cfg.MaxValueBytes = 32 << 10
	}
	host, port := parseHostPort(cfg.Addr, "localhost", 6334)
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "qdrant client", err)
	}
	return &Qdrant{client: client, embedder: embedder, cfg: cfg, logger: logger}, nil
}

// Close releases the client connection.
func (q *Qdrant) Close() error {
	return q.client.Close()
}

// EnsureCollection creates the collection when missing; an existing
// collection is fine.
func (q *Qdrant) EnsureCollection(ctx context.Context, name string) error {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "list collections", err)
	}
	for _, c := range collections {
		if c == name {
			return nil
		}
	}
	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(q.embedder.Dim()),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return common.NewAppError(common.CodeStoreConflict, "create collection "+name, err)
	}
	q.logger.Info("vectorstore.collection.created", "name", name, "dim", q.embedder.Dim())
	return nil
}

// UpsertSections writes records idempotently by id. A single record larger
// than the provider limit fails with store_oversize before any network
// call; the orchestrator retries once with truncated text.
func (q *Qdrant) UpsertSections(ctx context.Context, name string, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		if len(rec.Text) > q.cfg.MaxValueBytes {
			return common.Errorf(common.CodeStoreOversize, "record %s is %d bytes (limit %d)",
				rec.ID, len(rec.Text), q.cfg.MaxValueBytes)
		}
		payload := map[string]any{"text": rec.Text, "record_id": rec.ID}
		for k, v := range rec.Metadata {
			payload[k] = v
		}
		points = append(points, &qdrant.PointStruct{
			// Qdrant point ids are numbers or UUIDs; derive a stable UUID
			// from the record id so re-upserts overwrite.
			Id:      qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(rec.ID)).String()),
			Vectors: qdrant.NewVectors(q.embedder.Embed(rec.Text)...),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: name,
		Points:         points,
	})
	if err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "upsert "+name, err)
	}
	q.logger.Info("vectorstore.upsert.ok", "collection", name, "points", len(points))
	return nil
}

func (q *Qdrant) ListCollections(ctx context.Context) ([]string, error) {
	collections, err := q.client.ListCollections(ctx)
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "list collections", err)
	}
	return collections, nil
}

func (q *Qdrant) Sample(ctx context.Context, name string, limit int) ([]Sampled, error) {
	if limit <= 0 {
		limit = 5
	}
	l := uint32(limit)
	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: name,
		Limit:          &l,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, common.NewAppError(common.CodeStoreUnreachable, "sample "+name, err)
	}
	out := make([]Sampled, 0, len(points))
	for _, p := range points {
		s := Sampled{Metadata: make(map[string]any)}
		for k, v := range p.Payload {
			switch k {
			case "text":
				s.Text = v.GetStringValue()
			case "record_id":
				s.ID = v.GetStringValue()
			default:
				s.Metadata[k] = valueToAny(v)
			}
		}
		out = append(out, s)
	}
	return out, nil
}

func (q *Qdrant) Count(ctx context.Context, name string) (int, error) {
	exact := true
	n, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: name,
		Exact:          &exact,
	})
	if err != nil {
		return 0, common.NewAppError(common.CodeStoreUnreachable, "count "+name, err)
	}
	return int(n), nil
}

func (q *Qdrant) Ping(ctx context.Context) error {
	if _, err := q.client.ListCollections(ctx); err != nil {
		return common.NewAppError(common.CodeStoreUnreachable, "qdrant ping", err)
	}
	return nil
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	default:
		return fmt.Sprintf("%v", v)
	}
}

// parseHostPort splits "host:port", falling back per part.
func parseHostPort(addr, defaultHost string, defaultPort int) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, defaultPort
	}
	return host, port
}

var _ Store = (*Qdrant)(nil)
