// Package mongo stores users in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/authportal/internal/domain/user"
	"github.com/geocoder89/authportal/internal/observability"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

const (
	DefaultDatabase = "auth_portal"
	usersCollection = "users"
)

type userDoc struct {
	ID           bson.ObjectID `bson:"_id,omitempty"`
	FullName     string        `bson:"fullName"`
	Email        string        `bson:"email"`
	PasswordHash string        `bson:"password"`
	Age          *int          `bson:"age,omitempty"`
	DateOfBirth  *time.Time    `bson:"dob,omitempty"`
	Gender       string        `bson:"gender,omitempty"`
	Hobbies      []string      `bson:"hobbies,omitempty"`
	MotherName   string        `bson:"motherName,omitempty"`
	FatherName   string        `bson:"fatherName,omitempty"`
	UserMobile   string        `bson:"userMobile,omitempty"`
	ParentMobile string        `bson:"parentMobile,omitempty"`
	Description  string        `bson:"description,omitempty"`
	CreatedAt    time.Time     `bson:"createdAt"`
	LastLogin    *time.Time    `bson:"lastLogin,omitempty"`
}

type UsersRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
	prom   *observability.Prom
}

// Open connects to the deployment in uri, pings it and makes sure the unique
// email index exists. The database comes from the URI path, falling back to
// DefaultDatabase.
func Open(ctx context.Context, uri string, prom *observability.Prom) (*UsersRepo, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("mongo uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultDatabase
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	r := &UsersRepo{
		client: client,
		coll:   client.Database(dbName).Collection(usersCollection),
		prom:   prom,
	}

	if err := r.ensureIndexes(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return r, nil
}

func (r *UsersRepo) ensureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return fmt.Errorf("mongo email index: %w", err)
	}
	return nil
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	u.Email = user.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	doc := toDoc(u)
	doc.ID = bson.NewObjectID()

	err := r.prom.ObserveDB("users.create", func() error {
		_, err := r.coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			return user.ErrEmailTaken
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	return fromDoc(doc), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.findOne(ctx, "users.get_by_email", bson.D{{Key: "email", Value: user.NormalizeEmail(email)}})
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	return r.findOne(ctx, "users.get_by_id", bson.D{{Key: "_id", Value: oid}})
}

func (r *UsersRepo) TouchLastLogin(ctx context.Context, id string, at time.Time) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	// $max sets a missing field and otherwise only moves it forward
	update := bson.D{{Key: "$max", Value: bson.D{{Key: "lastLogin", Value: at.UTC()}}}}

	return r.findOneAndUpdate(ctx, "users.touch_last_login", oid, update)
}

func (r *UsersRepo) UpdateProfile(ctx context.Context, id string, fullName string, p user.Profile) (user.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}

	return r.findOneAndUpdate(ctx, "users.update_profile", oid, profileUpdate(fullName, p))
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *UsersRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *UsersRepo) findOne(ctx context.Context, op string, filter bson.D) (user.User, error) {
	var doc userDoc

	err := r.prom.ObserveDB(op, func() error {
		err := r.coll.FindOne(ctx, filter).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.ErrNotFound
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	return fromDoc(doc), nil
}

func (r *UsersRepo) findOneAndUpdate(ctx context.Context, op string, oid bson.ObjectID, update bson.D) (user.User, error) {
	var doc userDoc

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := r.prom.ObserveDB(op, func() error {
		err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return user.ErrNotFound
		}
		return err
	})
	if err != nil {
		return user.User{}, err
	}

	return fromDoc(doc), nil
}

// profileUpdate sets present profile fields and unsets cleared ones, so the
// stored document carries no empty placeholders.
func profileUpdate(fullName string, p user.Profile) bson.D {
	set := bson.D{{Key: "fullName", Value: fullName}}
	unset := bson.D{}

	put := func(key string, present bool, v any) {
		if present {
			set = append(set, bson.E{Key: key, Value: v})
		} else {
			unset = append(unset, bson.E{Key: key, Value: ""})
		}
	}

	put("age", p.Age != nil, p.Age)
	put("dob", p.DateOfBirth != nil, p.DateOfBirth)
	put("gender", p.Gender != "", p.Gender)
	put("hobbies", len(p.Hobbies) > 0, p.Hobbies)
	put("motherName", p.MotherName != "", p.MotherName)
	put("fatherName", p.FatherName != "", p.FatherName)
	put("userMobile", p.UserMobile != "", p.UserMobile)
	put("parentMobile", p.ParentMobile != "", p.ParentMobile)
	put("description", p.Description != "", p.Description)

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}
	return update
}

func toDoc(u user.User) userDoc {
	return userDoc{
		FullName:     u.FullName,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Age:          u.Profile.Age,
		DateOfBirth:  u.Profile.DateOfBirth,
		Gender:       u.Profile.Gender,
		Hobbies:      u.Profile.Hobbies,
		MotherName:   u.Profile.MotherName,
		FatherName:   u.Profile.FatherName,
		UserMobile:   u.Profile.UserMobile,
		ParentMobile: u.Profile.ParentMobile,
		Description:  u.Profile.Description,
		CreatedAt:    u.CreatedAt,
		LastLogin:    u.LastLogin,
	}
}

func fromDoc(d userDoc) user.User {
	u := user.User{
		ID:           d.ID.Hex(),
		FullName:     d.FullName,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Profile: user.Profile{
			Age:          d.Age,
			DateOfBirth:  d.DateOfBirth,
			Gender:       d.Gender,
			Hobbies:      d.Hobbies,
			MotherName:   d.MotherName,
			FatherName:   d.FatherName,
			UserMobile:   d.UserMobile,
			ParentMobile: d.ParentMobile,
			Description:  d.Description,
		},
		// BSON dates carry millisecond precision.
		CreatedAt: d.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if d.LastLogin != nil {
		t := d.LastLogin.UTC().Truncate(time.Millisecond)
		u.LastLogin = &t
	}
	return u
}
