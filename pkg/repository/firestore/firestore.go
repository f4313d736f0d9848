package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m2rads/lime/pkg/domain/interfaces"
)

// ErrNotFound is returned for missing records
var ErrNotFound = interfaces.ErrNotFound

// Collection names. The migrate command creates indexes for these.
const (
	ConnectionsCollection  = "connections"
	TokensCollection       = "tokens"
	RefreshMarksCollection = "refresh_marks"
)

type Firestore struct {
	client           *firestore.Client
	collectionPrefix string
	connection       *connectionRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix and an underscore to every collection
// name, so that tests can share one database
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID), goerr.V("databaseID", databaseID))
	}

	f := &Firestore{client: client}
	for _, opt := range opts {
		opt(f)
	}
	f.connection = &connectionRepository{
		client:     client,
		collection: f.collection(ConnectionsCollection),
	}

	return f, nil
}

func (f *Firestore) collection(name string) *firestore.CollectionRef {
	if f.collectionPrefix != "" {
		return f.client.Collection(f.collectionPrefix + "_" + name)
	}
	return f.client.Collection(name)
}

func (f *Firestore) Connection() interfaces.ConnectionRepository {
	return f.connection
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
