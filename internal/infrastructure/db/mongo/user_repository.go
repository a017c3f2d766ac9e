package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/accessgate/rbac-service/internal/core/domain"
	"github.com/accessgate/rbac-service/internal/core/ports"
)

const collectionUsers = "users"

type UserRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers), now: time.Now}
}

type userDoc struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	FirstName string              `bson:"firstName"`
	LastName  string              `bson:"lastName,omitempty"`
	Username  string              `bson:"username"`
	Email     string              `bson:"email"`
	Password  string              `bson:"password"`
	Role      *primitive.ObjectID `bson:"role,omitempty"`
	Active    bool                `bson:"active"`
	CreatedAt time.Time           `bson:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt"`
}

func (d *userDoc) toDomain() *domain.User {
	u := &domain.User{
		ID:           d.ID.Hex(),
		FirstName:    d.FirstName,
		LastName:     d.LastName,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Active:       d.Active,
		CreatedAt:    d.CreatedAt,
	}
	if d.Role != nil {
		u.RoleID = d.Role.Hex()
	}
	return u
}

// Create inserts a user. The unique indexes on username and email surface
// collisions as domain.ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userDoc{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Username:  user.Username,
		Email:     user.Email,
		Password:  user.PasswordHash,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.CreatedAt,
	}
	if user.RoleID != "" {
		oid, err := primitive.ObjectIDFromHex(user.RoleID)
		if err != nil {
			return nil, domain.Invalid("role does not exist")
		}
		doc.Role = &oid
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// FindByIdentifier matches identifier exactly against username or email.
func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns one page of users, newest first, and the total match count.
func (r *UserRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.User, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Search != "" {
		re := containsPattern(filter.Search)
		query["$or"] = bson.A{
			bson.M{"username": re},
			bson.M{"email": re},
			bson.M{"firstName": re},
			bson.M{"lastName": re},
		}
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	cur, err := r.col.Find(ctx, query, pageOptions(filter.Page, filter.Limit, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, total, nil
}

// Update applies changes and returns the stored document after the write.
func (r *UserRepository) Update(ctx context.Context, id string, changes domain.UserChanges) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	update, err := r.updateDoc(changes)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateMany applies changes to every user matching filter with a single
// updateMany command. An empty filter matches every user.
func (r *UserRepository) UpdateMany(ctx context.Context, filter domain.UserFilter, changes domain.UserChanges) (*ports.BulkResult, error) {
	update, err := r.updateDoc(changes)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx, userFilter(filter), update)
	if err != nil {
		return nil, fmt.Errorf("update users: %w", err)
	}
	return &ports.BulkResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// EnsureIndexes creates the unique username and email indexes.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// updateDoc renders changes as $set/$unset. An empty RoleID unsets the role.
func (r *UserRepository) updateDoc(c domain.UserChanges) (bson.M, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	update := bson.M{"$set": set}

	if c.FirstName != nil {
		set["firstName"] = *c.FirstName
	}
	if c.LastName != nil {
		set["lastName"] = *c.LastName
	}
	if c.PasswordHash != nil {
		set["password"] = *c.PasswordHash
	}
	if c.Active != nil {
		set["active"] = *c.Active
	}
	if c.RoleID != nil {
		if *c.RoleID == "" {
			update["$unset"] = bson.M{"role": ""}
		} else {
			oid, err := primitive.ObjectIDFromHex(*c.RoleID)
			if err != nil {
				return nil, domain.Invalid("role does not exist")
			}
			set["role"] = oid
		}
	}
	return update, nil
}

func inStrings(values []string) bson.M {
	if len(values) == 0 {
		return matchNone
	}
	return bson.M{"$in": values}
}

func userFilter(f domain.UserFilter) bson.M {
	q := bson.M{}
	if f.IDs != nil {
		if len(f.IDs) == 0 {
			q["_id"] = matchNone
		} else {
			q["_id"] = bson.M{"$in": objectIDs(f.IDs)}
		}
	}
	if f.Usernames != nil {
		q["username"] = inStrings(f.Usernames)
	}
	if f.Emails != nil {
		q["email"] = inStrings(f.Emails)
	}
	if f.RoleID != "" {
		if oid, err := primitive.ObjectIDFromHex(f.RoleID); err == nil {
			q["role"] = oid
		} else {
			q["role"] = matchNone
		}
	}
	if f.Active != nil {
		q["active"] = *f.Active
	}
	return q
}
