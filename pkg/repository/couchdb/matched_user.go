package couchdb

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"github.com/go-resty/resty/v2"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/meetupboard/pkg/domain/interfaces"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

const (
	matchedUserDocType = "matched_user"
	findPageSize       = 200
)

type matchedUserRepository struct {
	client   *resty.Client
	dbName   string
	tenantID string
}

var _ interfaces.MatchedUserRepository = &matchedUserRepository{}

func newMatchedUserRepository(client *resty.Client, dbName string) *matchedUserRepository {
	return &matchedUserRepository{
		client: client,
		dbName: dbName,
	}
}

func (r *matchedUserRepository) path(elem ...string) string {
	p := "/" + url.PathEscape(r.dbName)
	for _, e := range elem {
		p += "/" + e
	}
	return p
}

func toDoc(user *model.MatchedUser) *matchedUserDoc {
	return &matchedUserDoc{
		ID:                string(user.UserID),
		Type:              matchedUserDocType,
		TenantID:          user.TenantID,
		UserAadObjectID:   user.UserAadObjectID,
		UserPrincipalName: user.UserPrincipalName,
		Role:              user.Role,
	}
}

func fromDoc(doc *matchedUserDoc) *model.MatchedUser {
	return &model.MatchedUser{
		UserID:            model.UserID(doc.ID),
		TenantID:          doc.TenantID,
		UserAadObjectID:   doc.UserAadObjectID,
		UserPrincipalName: doc.UserPrincipalName,
		Role:              doc.Role,
	}
}

// GetAll pages through a Mango query and sorts by user ID locally, so no
// design document or sort index is required on the server.
func (r *matchedUserRepository) GetAll(ctx context.Context) ([]*model.MatchedUser, error) {
	selector := map[string]any{"type": matchedUserDocType}
	if r.tenantID != "" {
		selector["tenant_id"] = r.tenantID
	}

	var users []*model.MatchedUser
	bookmark := ""
	for {
		var found findResponse
		var dbErr errorResponse
		resp, err := r.client.R().
			SetContext(ctx).
			SetBody(&findRequest{Selector: selector, Limit: findPageSize, Bookmark: bookmark}).
			SetResult(&found).
			SetError(&dbErr).
			Post(r.path("_find"))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query matched users")
		}
		if resp.IsError() {
			return nil, goerr.Wrap(ErrUnexpectedStatus, "failed to query matched users",
				goerr.V("status", resp.StatusCode()),
				goerr.V("error", dbErr.Error),
				goerr.V("reason", dbErr.Reason))
		}

		for _, doc := range found.Docs {
			users = append(users, fromDoc(doc))
		}
		if len(found.Docs) < findPageSize || found.Bookmark == "" {
			break
		}
		bookmark = found.Bookmark
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].UserID < users[j].UserID
	})
	return users, nil
}

func (r *matchedUserRepository) GetByID(ctx context.Context, id model.UserID) (*model.MatchedUser, error) {
	var doc matchedUserDoc
	var dbErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetResult(&doc).
		SetError(&dbErr).
		Get(r.path(url.PathEscape(string(id))))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get matched user", goerr.V("user_id", id))
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, goerr.Wrap(model.ErrMatchedUserNotFound, "matched user not found", goerr.V("user_id", id))
	}
	if resp.IsError() {
		return nil, goerr.Wrap(ErrUnexpectedStatus, "failed to get matched user",
			goerr.V("user_id", id),
			goerr.V("status", resp.StatusCode()),
			goerr.V("error", dbErr.Error))
	}

	if doc.Type != matchedUserDocType || (r.tenantID != "" && doc.TenantID != r.tenantID) {
		return nil, goerr.Wrap(model.ErrMatchedUserNotFound, "document is not a matched user of this tenant",
			goerr.V("user_id", id),
			goerr.V("type", doc.Type),
			goerr.V("tenant_id", doc.TenantID))
	}

	return fromDoc(&doc), nil
}

// SaveMany upserts users with _bulk_docs. Current revisions are looked up
// first so existing documents are updated instead of conflicting.
func (r *matchedUserRepository) SaveMany(ctx context.Context, users []*model.MatchedUser) error {
	if len(users) == 0 {
		return nil
	}

	keys := make([]string, len(users))
	for i, user := range users {
		if err := user.Validate(); err != nil {
			return goerr.Wrap(err, "failed to save matched users")
		}
		keys[i] = string(user.UserID)
	}

	revs, err := r.currentRevisions(ctx, keys)
	if err != nil {
		return err
	}

	docs := make([]*matchedUserDoc, len(users))
	for i, user := range users {
		docs[i] = toDoc(user)
		docs[i].Rev = revs[docs[i].ID]
	}

	var results []bulkDocsResult
	var dbErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&bulkDocsRequest{Docs: docs}).
		SetResult(&results).
		SetError(&dbErr).
		Post(r.path("_bulk_docs"))
	if err != nil {
		return goerr.Wrap(err, "failed to save matched users", goerr.V("count", len(docs)))
	}
	if resp.IsError() {
		return goerr.Wrap(ErrUnexpectedStatus, "failed to save matched users",
			goerr.V("status", resp.StatusCode()),
			goerr.V("error", dbErr.Error),
			goerr.V("reason", dbErr.Reason))
	}

	for _, result := range results {
		if result.Error != "" {
			return goerr.Wrap(ErrUnexpectedStatus, "failed to save matched user",
				goerr.V("user_id", result.ID),
				goerr.V("error", result.Error),
				goerr.V("reason", result.Reason))
		}
	}

	return nil
}

func (r *matchedUserRepository) currentRevisions(ctx context.Context, keys []string) (map[string]string, error) {
	var all allDocsResponse
	var dbErr errorResponse
	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(&allDocsRequest{Keys: keys}).
		SetResult(&all).
		SetError(&dbErr).
		Post(r.path("_all_docs"))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up matched user revisions")
	}
	if resp.IsError() {
		return nil, goerr.Wrap(ErrUnexpectedStatus, "failed to look up matched user revisions",
			goerr.V("status", resp.StatusCode()),
			goerr.V("error", dbErr.Error))
	}

	revs := make(map[string]string, len(all.Rows))
	for _, row := range all.Rows {
		// deleted documents are recreated without a revision
		if row.Error != "" || row.Value == nil || row.Value.Deleted {
			continue
		}
		revs[row.ID] = row.Value.Rev
	}
	return revs, nil
}
