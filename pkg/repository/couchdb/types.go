package couchdb

import "github.com/m-mizutani/goerr/v2"

// ErrUnexpectedStatus is returned when CouchDB answers with a status the
// repository does not handle
var ErrUnexpectedStatus = goerr.New("unexpected couchdb response")

type okResponse struct {
	OK bool `json:"ok"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

type matchedUserDoc struct {
	ID                string `json:"_id"`
	Rev               string `json:"_rev,omitempty"`
	Type              string `json:"type"`
	TenantID          string `json:"tenant_id"`
	UserAadObjectID   string `json:"user_aad_object_id"`
	UserPrincipalName string `json:"user_principal_name"`
	Role              string `json:"role"`
}

type findRequest struct {
	Selector map[string]any `json:"selector"`
	Limit    int            `json:"limit"`
	Bookmark string         `json:"bookmark,omitempty"`
}

type findResponse struct {
	Docs     []*matchedUserDoc `json:"docs"`
	Bookmark string            `json:"bookmark"`
}

type allDocsRequest struct {
	Keys []string `json:"keys"`
}

type allDocsResponse struct {
	Rows []allDocsRow `json:"rows"`
}

type allDocsRow struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Error string `json:"error,omitempty"`
	Value *struct {
		Rev     string `json:"rev"`
		Deleted bool   `json:"deleted,omitempty"`
	} `json:"value,omitempty"`
}

type bulkDocsRequest struct {
	Docs []*matchedUserDoc `json:"docs"`
}

type bulkDocsResult struct {
	ID     string `json:"id"`
	OK     bool   `json:"ok,omitempty"`
	Rev    string `json:"rev,omitempty"`
	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`
}
