// Package mongo stores contacts as documents in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"gitlab.com/dirk.krummacker/contacts-app/internal/model"
	"gitlab.com/dirk.krummacker/contacts-app/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionName is the collection holding the contact documents.
const CollectionName = "contacts"

// document is the BSON representation of a contact.
type document struct {
	Id        bson.ObjectID `bson:"_id,omitempty"`
	Avatar    string        `bson:"avatar"`
	First     string        `bson:"first"`
	Last      string        `bson:"last"`
	Twitter   string        `bson:"twitter"`
	Favorite  bool          `bson:"favorite"`
	CreatedAt time.Time     `bson:"createdAt"`
}

func (d *document) contact() model.Contact {
	return model.Contact{
		Id:        d.Id.Hex(),
		Avatar:    d.Avatar,
		First:     d.First,
		Last:      d.Last,
		Twitter:   d.Twitter,
		Favorite:  d.Favorite,
		CreatedAt: d.CreatedAt,
	}
}

// Store is a store.Store on top of a MongoDB collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

// Connect opens a client for uri, pings the server and returns a store using the contacts
// collection of database dbName.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return &Store{
		client:     client,
		collection: client.Database(dbName).Collection(CollectionName),
		now:        time.Now,
	}, nil
}

// objectID parses a contact id. Malformed ids cannot name a document.
func objectID(id string) (bson.ObjectID, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return bson.ObjectID{}, store.ErrNotFound
	}
	return oid, nil
}

// searchFilter builds the $or of three case-insensitive regular expressions. The query is
// quoted so it matches as a plain substring.
func searchFilter(filter *store.Filter) bson.M {
	if filter == nil {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(filter.Query)
	return bson.M{
		"$or": bson.A{
			bson.M{"first": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"last": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"twitter": bson.M{"$regex": pattern, "$options": "i"}},
		},
	}
}

// updateDocument translates a patch into a $set document.
func updateDocument(patch model.Patch) bson.M {
	set := bson.M{}
	if patch.Avatar != nil {
		set["avatar"] = *patch.Avatar
	}
	if patch.First != nil {
		set["first"] = *patch.First
	}
	if patch.Last != nil {
		set["last"] = *patch.Last
	}
	if patch.Twitter != nil {
		set["twitter"] = *patch.Twitter
	}
	if patch.Favorite != nil {
		set["favorite"] = *patch.Favorite
	}
	return bson.M{"$set": set}
}

func (s *Store) Insert(ctx context.Context, fields model.Fields) (*model.Contact, error) {
	doc := document{
		Avatar:  fields.Avatar,
		First:   fields.First,
		Last:    fields.Last,
		Twitter: fields.Twitter,
		// BSON dates have millisecond precision.
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	result, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("inserting contact: %w", err)
	}
	oid, ok := result.InsertedID.(bson.ObjectID)
	if !ok {
		return nil, fmt.Errorf("inserting contact: unexpected id type %T", result.InsertedID)
	}
	doc.Id = oid
	c := doc.contact()
	return &c, nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*model.Contact, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc document
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding contact %s: %w", id, err)
	}
	c := doc.contact()
	return &c, nil
}

func (s *Store) FindMany(ctx context.Context, filter *store.Filter) ([]model.Contact, error) {
	cursor, err := s.collection.Find(ctx, searchFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("finding contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decoding contacts: %w", err)
	}
	contacts := make([]model.Contact, 0, len(docs))
	for i := range docs {
		contacts = append(contacts, docs[i].contact())
	}
	return contacts, nil
}

func (s *Store) UpdateByID(ctx context.Context, id string, patch model.Patch) (*model.Contact, error) {
	if patch.Empty() {
		return s.FindByID(ctx, id)
	}
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc document
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, updateDocument(patch), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating contact %s: %w", id, err)
	}
	c := doc.contact()
	return &c, nil
}

func (s *Store) DeleteByID(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("deleting contact %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
