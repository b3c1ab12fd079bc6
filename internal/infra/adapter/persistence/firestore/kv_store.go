// Package firestore keeps the recipe collection in a Cloud Firestore document.
package firestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"recipe-box/internal/repository"
)

// DefaultCollection is the Firestore collection that holds one document per key.
const DefaultCollection = "kv"

const valueField = "value"

// KVStore maps each key to a document in Collection whose "value" field holds the payload.
type KVStore struct {
	client     *firestore.Client
	collection string
}

// Open connects to the Firestore project. Credentials come from the standard
// Google application default credentials chain (or FIRESTORE_EMULATOR_HOST).
func Open(ctx context.Context, projectID, collection string) (repository.KeyValueStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return New(client, collection), nil
}

// New wraps an existing client.
func New(client *firestore.Client, collection string) *KVStore {
	if collection == "" {
		collection = DefaultCollection
	}
	return &KVStore{client: client, collection: collection}
}

func (s *KVStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := s.client.Collection(s.collection).Doc(key).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("Get: %w", err)
	}
	return decodeDocument(doc.Data())
}

func (s *KVStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.client.Collection(s.collection).Doc(key).Set(ctx, encodeDocument(value)); err != nil {
		return fmt.Errorf("Put: %w", err)
	}
	return nil
}

// Ping reads a sentinel document; NotFound still proves the backend is reachable.
func (s *KVStore) Ping(ctx context.Context) error {
	_, err := s.client.Collection(s.collection).Doc("_ping").Get(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return err
	}
	return nil
}

func (s *KVStore) Close() error {
	return s.client.Close()
}

func encodeDocument(value []byte) map[string]interface{} {
	return map[string]interface{}{valueField: value}
}

func decodeDocument(data map[string]interface{}) ([]byte, bool, error) {
	raw, ok := data[valueField]
	if !ok {
		return nil, false, nil
	}
	switch v := raw.(type) {
	case []byte:
		return v, true, nil
	case string:
		return []byte(v), true, nil
	default:
		return nil, false, fmt.Errorf("unexpected %s field type %T", valueField, raw)
	}
}
