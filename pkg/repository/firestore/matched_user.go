package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// MatchedUsersCollection holds one document per matched user keyed by user ID
	MatchedUsersCollection = "matched_users"
)

type matchedUserRepository struct {
	client           *firestore.Client
	collectionPrefix string
	tenantID         string
}

var _ interfaces.MatchedUserRepository = &matchedUserRepository{}

func newMatchedUserRepository(client *firestore.Client) *matchedUserRepository {
	return &matchedUserRepository{
		client: client,
	}
}

// matchedUserDoc is the Firestore persistence model
type matchedUserDoc struct {
	UserID            string `firestore:"user_id"`
	TenantID          string `firestore:"tenant_id"`
	UserAadObjectID   string `firestore:"user_aad_object_id"`
	UserPrincipalName string `firestore:"user_principal_name"`
	Role              string `firestore:"role"`
}

// CollectionName returns the name of collection under prefix
func CollectionName(prefix, collection string) string {
	if prefix != "" {
		return prefix + "_" + collection
	}
	return collection
}

func (r *matchedUserRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, MatchedUsersCollection))
}

func (r *matchedUserRepository) toDoc(user *model.MatchedUser) *matchedUserDoc {
	return &matchedUserDoc{
		UserID:            string(user.UserID),
		TenantID:          user.TenantID,
		UserAadObjectID:   user.UserAadObjectID,
		UserPrincipalName: user.UserPrincipalName,
		Role:              user.Role,
	}
}

func (r *matchedUserRepository) fromDoc(doc *matchedUserDoc) *model.MatchedUser {
	return &model.MatchedUser{
		UserID:            model.UserID(doc.UserID),
		TenantID:          doc.TenantID,
		UserAadObjectID:   doc.UserAadObjectID,
		UserPrincipalName: doc.UserPrincipalName,
		Role:              doc.Role,
	}
}

// GetAll lists matched users ordered by user ID. With a tenant filter the
// query needs the composite index created by the migrate command.
func (r *matchedUserRepository) GetAll(ctx context.Context) ([]*model.MatchedUser, error) {
	query := r.collection().Query
	if r.tenantID != "" {
		query = query.Where("tenant_id", "==", r.tenantID)
	}

	iter := query.OrderBy("user_id", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var users []*model.MatchedUser
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate matched users", goerr.V("tenant_id", r.tenantID))
		}

		var userDoc matchedUserDoc
		if err := doc.DataTo(&userDoc); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal matched user", goerr.V("docID", doc.Ref.ID))
		}

		users = append(users, r.fromDoc(&userDoc))
	}

	return users, nil
}

func (r *matchedUserRepository) GetByID(ctx context.Context, id model.UserID) (*model.MatchedUser, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(model.ErrMatchedUserNotFound, "matched user not found", goerr.V("user_id", id))
		}
		return nil, goerr.Wrap(err, "failed to get matched user", goerr.V("user_id", id))
	}

	var userDoc matchedUserDoc
	if err := doc.DataTo(&userDoc); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal matched user", goerr.V("user_id", id))
	}

	if r.tenantID != "" && userDoc.TenantID != r.tenantID {
		return nil, goerr.Wrap(model.ErrMatchedUserNotFound, "matched user belongs to another tenant",
			goerr.V("user_id", id),
			goerr.V("tenant_id", userDoc.TenantID))
	}

	return r.fromDoc(&userDoc), nil
}

// SaveMany upserts users through a BulkWriter, which batches writes internally
func (r *matchedUserRepository) SaveMany(ctx context.Context, users []*model.MatchedUser) error {
	if len(users) == 0 {
		return nil
	}
	for _, user := range users {
		if err := user.Validate(); err != nil {
			return goerr.Wrap(err, "failed to save matched users")
		}
	}

	bulkWriter := r.client.BulkWriter(ctx)
	defer bulkWriter.End()

	jobs := make([]*firestore.BulkWriterJob, 0, len(users))
	for _, user := range users {
		docRef := r.collection().Doc(string(user.UserID))
		job, err := bulkWriter.Set(docRef, r.toDoc(user))
		if err != nil {
			return goerr.Wrap(err, "failed to add Set operation to bulk writer", goerr.V("user_id", user.UserID))
		}
		jobs = append(jobs, job)
	}

	bulkWriter.Flush()

	for i, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to write matched user", goerr.V("user_id", users[i].UserID))
		}
	}

	return nil
}
