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

const collectionRoles = "roles"

type RoleRepository struct {
	col *mongo.Collection
	now func() time.Time
}

func NewRoleRepository(db *mongo.Database) *RoleRepository {
	return &RoleRepository{col: db.Collection(collectionRoles), now: time.Now}
}

type roleDoc struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	RoleName      string             `bson:"roleName"`
	AccessModules []string           `bson:"accessModules"`
	Active        bool               `bson:"active"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt"`
}

func (d *roleDoc) toDomain() *domain.Role {
	return &domain.Role{
		ID:            d.ID.Hex(),
		Name:          d.RoleName,
		AccessModules: domain.NewModuleSet(d.AccessModules...),
		Active:        d.Active,
		CreatedAt:     d.CreatedAt,
	}
}

func (r *RoleRepository) Create(ctx context.Context, role *domain.Role) (*domain.Role, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := roleDoc{
		RoleName:      role.Name,
		AccessModules: role.AccessModules.Sorted(),
		Active:        role.Active,
		CreatedAt:     role.CreatedAt,
		UpdatedAt:     role.CreatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("insert role: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *RoleRepository) FindByID(ctx context.Context, id string) (*domain.Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRoleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc roleDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("find role: %w", err)
	}
	return doc.toDomain(), nil
}

// FindByIDs loads several roles in one query. Missing ids are omitted.
func (r *RoleRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Role, error) {
	oids := objectIDs(ids)
	out := make(map[string]*domain.Role, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode roles: %w", err)
	}
	for i := range docs {
		role := docs[i].toDomain()
		out[role.ID] = role
	}
	return out, nil
}

func (r *RoleRepository) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Role, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.Search != "" {
		query["roleName"] = containsPattern(filter.Search)
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count roles: %w", err)
	}

	cur, err := r.col.Find(ctx, query, pageOptions(filter.Page, filter.Limit, bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("find roles: %w", err)
	}
	defer cur.Close(ctx)

	var docs []roleDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode roles: %w", err)
	}

	roles := make([]*domain.Role, 0, len(docs))
	for i := range docs {
		roles = append(roles, docs[i].toDomain())
	}
	return roles, total, nil
}

// Update sets the supplied fields. A non-nil AccessModules overwrites the stored array.
func (r *RoleRepository) Update(ctx context.Context, id string, changes domain.RoleChanges) (*domain.Role, error) {
	set := bson.M{"updatedAt": r.now().UTC()}
	if changes.Name != nil {
		set["roleName"] = *changes.Name
	}
	if changes.AccessModules != nil {
		set["accessModules"] = changes.AccessModules.Sorted()
	}
	if changes.Active != nil {
		set["active"] = *changes.Active
	}
	return r.findAndModify(ctx, id, bson.M{"$set": set})
}

// AddModules performs a server-side set union so concurrent adds never lose writes.
func (r *RoleRepository) AddModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	return r.findAndModify(ctx, id, bson.M{
		"$addToSet": bson.M{"accessModules": bson.M{"$each": modules}},
		"$set":      bson.M{"updatedAt": r.now().UTC()},
	})
}

func (r *RoleRepository) RemoveModules(ctx context.Context, id string, modules []string) (*domain.Role, error) {
	return r.findAndModify(ctx, id, bson.M{
		"$pull": bson.M{"accessModules": bson.M{"$in": modules}},
		"$set":  bson.M{"updatedAt": r.now().UTC()},
	})
}

func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRoleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

// EnsureIndexes creates the unique roleName index.
func (r *RoleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "roleName", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (r *RoleRepository) findAndModify(ctx context.Context, id string, update bson.M) (*domain.Role, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrRoleNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc roleDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoleNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRoleExists
		}
		return nil, fmt.Errorf("update role: %w", err)
	}
	return doc.toDomain(), nil
}
