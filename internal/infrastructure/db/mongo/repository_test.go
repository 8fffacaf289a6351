package mongo

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/sirpyerre/postbox/internal/core/domain"
)

func counterResponse(name string, seq int64) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
		{Key: "_id", Value: name},
		{Key: "seq", Value: seq},
	}})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns sequence id", func(mt *mtest.T) {
		mt.AddMockResponses(counterResponse("users", 7), mtest.CreateSuccessResponse())

		user, err := NewUserRepository(mt.DB).Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "h"})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if user.ID != 7 || user.Email != "a@x.com" {
			mt.Errorf("unexpected user: %+v", user)
		}
	})

	mt.Run("create duplicate email", func(mt *mtest.T) {
		mt.AddMockResponses(
			counterResponse("users", 8),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{Index: 0, Code: 11000, Message: "duplicate key error"}),
		)

		_, err := NewUserRepository(mt.DB).Create(context.Background(), &domain.User{Email: "a@x.com", PasswordHash: "h"})
		if !errors.Is(err, domain.ErrUserExists) {
			mt.Fatalf("expected ErrUserExists, got %v", err)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "postbox.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: int64(3)},
			{Key: "email", Value: "carol@x.com"},
			{Key: "password_hash", Value: "h"},
		}))

		user, err := NewUserRepository(mt.DB).FindByEmail(context.Background(), "carol@x.com")
		if err != nil {
			mt.Fatalf("FindByEmail: %v", err)
		}
		if user.ID != 3 || user.PasswordHash != "h" {
			mt.Errorf("unexpected user: %+v", user)
		}
	})

	mt.Run("find by id not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "postbox.users", mtest.FirstBatch))

		if _, err := NewUserRepository(mt.DB).FindByID(context.Background(), 99); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
	})

	mt.Run("delete cascades then reports missing user", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		if err := NewUserRepository(mt.DB).Delete(context.Background(), 5); !errors.Is(err, domain.ErrUserNotFound) {
			mt.Fatalf("expected ErrUserNotFound, got %v", err)
		}
		if got := len(mt.GetAllStartedEvents()); got != 2 {
			mt.Errorf("expected posts and user deletes, got %d commands", got)
		}
	})
}

func TestPostRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(counterResponse("posts", 1), mtest.CreateSuccessResponse())

		post, err := NewPostRepository(mt.DB).Create(context.Background(), &domain.Post{Text: "hello", OwnerID: 2})
		if err != nil {
			mt.Fatalf("Create: %v", err)
		}
		if post.ID != 1 || post.OwnerID != 2 || post.Text != "hello" {
			mt.Errorf("unexpected post: %+v", post)
		}
	})

	mt.Run("list by owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "postbox.posts", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: int64(1)}, {Key: "text", Value: "a"}, {Key: "owner_id", Value: int64(2)}},
			bson.D{{Key: "_id", Value: int64(4)}, {Key: "text", Value: "b"}, {Key: "owner_id", Value: int64(2)}},
		))

		posts, err := NewPostRepository(mt.DB).ListByOwner(context.Background(), 2)
		if err != nil {
			mt.Fatalf("ListByOwner: %v", err)
		}
		if len(posts) != 2 || posts[0].ID != 1 || posts[1].ID != 4 {
			mt.Errorf("unexpected posts: %+v", posts)
		}
	})

	mt.Run("list empty", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "postbox.posts", mtest.FirstBatch))

		posts, err := NewPostRepository(mt.DB).ListByOwner(context.Background(), 2)
		if err != nil {
			mt.Fatalf("ListByOwner: %v", err)
		}
		if posts == nil || len(posts) != 0 {
			mt.Errorf("expected empty non-nil slice, got %#v", posts)
		}
	})

	mt.Run("delete missing post", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		if err := NewPostRepository(mt.DB).Delete(context.Background(), 9); !errors.Is(err, domain.ErrPostNotFound) {
			mt.Fatalf("expected ErrPostNotFound, got %v", err)
		}
	})
}
