package repository_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/repository/couchdb"
	"github.com/secmon-lab/meetupboard/pkg/repository/firestore"
	"github.com/secmon-lab/meetupboard/pkg/repository/memory"
)

func runMatchedUserRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("GetAll on empty store", func(t *testing.T) {
		repo := newRepo(t)
		users, err := repo.MatchedUser().GetAll(context.Background())
		gt.NoError(t, err).Required()
		gt.Array(t, users).Length(0)
	})

	t.Run("SaveMany then GetAll returns users ordered by ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		prefix := fmt.Sprintf("U%d", time.Now().UnixNano())

		users := []*model.MatchedUser{
			{UserID: model.UserID(prefix + "-b"), TenantID: "t1", UserAadObjectID: "aad-b", UserPrincipalName: "b@example.com", Role: "member"},
			{UserID: model.UserID(prefix + "-a"), TenantID: "t1", UserAadObjectID: "aad-a", UserPrincipalName: "a@example.com", Role: "owner"},
		}
		gt.NoError(t, repo.MatchedUser().SaveMany(ctx, users)).Required()

		got, err := repo.MatchedUser().GetAll(ctx)
		gt.NoError(t, err).Required()
		gt.Array(t, got).Length(2).Required()
		gt.Value(t, got[0].UserID).Equal(users[1].UserID)
		gt.Value(t, got[0].UserPrincipalName).Equal("a@example.com")
		gt.Value(t, got[0].Role).Equal("owner")
		gt.Value(t, got[1].UserID).Equal(users[0].UserID)
		gt.Value(t, got[1].UserAadObjectID).Equal("aad-b")
	})

	t.Run("SaveMany upserts existing users", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		id := model.UserID(fmt.Sprintf("U%d", time.Now().UnixNano()))

		gt.NoError(t, repo.MatchedUser().SaveMany(ctx, []*model.MatchedUser{
			{UserID: id, UserAadObjectID: "aad-1", Role: "member"},
		})).Required()
		gt.NoError(t, repo.MatchedUser().SaveMany(ctx, []*model.MatchedUser{
			{UserID: id, UserAadObjectID: "aad-1", Role: "owner"},
		})).Required()

		got, err := repo.MatchedUser().GetByID(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Role).Equal("owner")
	})

	t.Run("GetByID returns not found for unknown user", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.MatchedUser().GetByID(context.Background(), model.UserID(fmt.Sprintf("missing-%d", time.Now().UnixNano())))
		gt.Error(t, err).Is(model.ErrMatchedUserNotFound)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		id := model.UserID(fmt.Sprintf("U%d", time.Now().UnixNano()))

		user := &model.MatchedUser{UserID: id, UserAadObjectID: "aad-1", Role: "member"}
		gt.NoError(t, repo.MatchedUser().SaveMany(ctx, []*model.MatchedUser{user})).Required()
		user.Role = "mutated"

		got, err := repo.MatchedUser().GetByID(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Role).Equal("member")
	})

	t.Run("SaveMany rejects users without AAD object ID", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.MatchedUser().SaveMany(context.Background(), []*model.MatchedUser{{UserID: "u1"}})
		gt.Error(t, err).Is(model.ErrMissingAadObjectID)
	})
}

func TestMemoryMatchedUserRepository(t *testing.T) {
	runMatchedUserRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreMatchedUserRepository(t *testing.T) {
	runMatchedUserRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		t.Helper()

		projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
		if projectID == "" {
			t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
		}

		databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
		if databaseID == "" {
			t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
		}

		ctx := context.Background()
		prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
		repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
		gt.NoError(t, err).Required()
		t.Cleanup(func() {
			gt.NoError(t, repo.Close())
		})
		return repo
	})
}

func TestCouchDBMatchedUserRepository(t *testing.T) {
	runMatchedUserRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		t.Helper()

		url := os.Getenv("TEST_COUCHDB_URL")
		if url == "" {
			t.Skip("TEST_COUCHDB_URL not set")
		}

		dbName := fmt.Sprintf("test_%d", time.Now().UnixNano())
		repo, err := couchdb.New(context.Background(), url, dbName,
			couchdb.WithBasicAuth(os.Getenv("TEST_COUCHDB_USERNAME"), os.Getenv("TEST_COUCHDB_PASSWORD")),
		)
		gt.NoError(t, err).Required()
		return repo
	})
}
