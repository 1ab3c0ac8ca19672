package usecase_test

import (
	"context"
	"net/http"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/secmon-lab/meetupboard/pkg/domain/model"
)

type staticProvider string

func (p staticProvider) Token(ctx context.Context) (*model.AuthToken, error) {
	return &model.AuthToken{Value: string(p), Expiry: time.Now().Add(time.Hour)}, nil
}

func jsonResponder(status int, body string) httpmock.Responder {
	return func(*http.Request) (*http.Response, error) {
		resp := httpmock.NewStringResponse(status, body)
		if resp.Header == nil {
			resp.Header = http.Header{}
		}
		resp.Header.Set("Content-Type", "application/json")
		return resp, nil
	}
}
