package credential_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/meetupboard/pkg/service/credential"
)

func TestResolveTenant(t *testing.T) {
	tests := []struct {
		name     string
		tenantID string
		rootSite string
		want     string
		wantErr  bool
	}{
		{name: "explicit tenant wins", tenantID: "tenant-guid", rootSite: "https://contoso.sharepoint.com", want: "tenant-guid"},
		{name: "derived from root site", rootSite: "https://contoso.sharepoint.com/sites/team", want: "contoso.onmicrosoft.com"},
		{name: "derived case-insensitively", rootSite: "https://Contoso.SharePoint.com", want: "contoso.onmicrosoft.com"},
		{name: "not a sharepoint url", rootSite: "https://example.com", wantErr: true},
		{name: "nothing configured", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credential.ResolveTenant(tt.tenantID, tt.rootSite)
			if tt.wantErr {
				gt.Error(t, err).Is(credential.ErrMissingTenant)
				return
			}
			gt.NoError(t, err).Required()
			gt.Value(t, got).Equal(tt.want)
		})
	}
}

func TestNewClientCredentialsValidation(t *testing.T) {
	_, err := credential.NewClientCredentials("", "id", "secret", credential.GraphScope)
	gt.Error(t, err).Is(credential.ErrMissingTenant)

	_, err = credential.NewClientCredentials("contoso.onmicrosoft.com", "id", "", credential.GraphScope)
	gt.Error(t, err).Is(credential.ErrMissingClient)

	src, err := credential.NewClientCredentials("contoso.onmicrosoft.com", "id", "secret", credential.GraphScope)
	gt.NoError(t, err).Required()
	gt.Value(t, src.TokenURL()).Equal("https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token")
}

func TestClientCredentialsFetch(t *testing.T) {
	var gotPath, gotScope, gotGrant, gotClientID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.NoError(t, r.ParseForm())
		gotPath = r.URL.Path
		gotScope = r.PostForm.Get("scope")
		gotGrant = r.PostForm.Get("grant_type")
		gotClientID = r.PostForm.Get("client_id")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"graph-token","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	src, err := credential.NewClientCredentials("contoso.onmicrosoft.com", "app-id", "app-secret", credential.GraphScope,
		credential.WithAuthorityURL(srv.URL+"/"),
		credential.WithHTTPClient(srv.Client()),
	)
	gt.NoError(t, err).Required()

	token, err := src.Fetch(context.Background())
	gt.NoError(t, err).Required()
	gt.Value(t, token.Value).Equal("graph-token")
	gt.B(t, token.Expiry.After(time.Now().Add(50*time.Minute))).True()

	gt.Value(t, gotPath).Equal("/contoso.onmicrosoft.com/oauth2/v2.0/token")
	gt.Value(t, gotScope).Equal(credential.GraphScope)
	gt.Value(t, gotGrant).Equal("client_credentials")
	gt.Value(t, gotClientID).Equal("app-id")
}

func TestClientCredentialsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	src, err := credential.NewClientCredentials(credential.BotFrameworkTenant, "app-id", "wrong", credential.BotFrameworkScope,
		credential.WithAuthorityURL(srv.URL),
		credential.WithHTTPClient(srv.Client()),
	)
	gt.NoError(t, err).Required()

	_, err = src.Fetch(context.Background())
	gt.Value(t, err).NotNil()
}
