package graph

import (
	"encoding/base64"
	"net/url"

	"github.com/secmon-lab/meetupboard/pkg/domain/model"
	"github.com/secmon-lab/meetupboard/pkg/metrics"
)

const (
	photoDataURIPrefix = "data:image/png;base64,"
	initialsAvatarBase = "https://ui-avatars.com/api/"
)

// PhotoResult is the outcome of a photo fetch: either image bytes or the
// reason no image is available.
type PhotoResult struct {
	data []byte
	err  error
}

// PhotoOK wraps fetched image bytes
func PhotoOK(data []byte) PhotoResult {
	return PhotoResult{data: data}
}

// PhotoErr wraps the reason a photo is unavailable
func PhotoErr(err error) PhotoResult {
	if err == nil {
		err = ErrEmptyPhoto
	}
	return PhotoResult{err: err}
}

func (r PhotoResult) OK() bool {
	return r.err == nil && len(r.data) > 0
}

func (r PhotoResult) Err() error {
	if r.err == nil && len(r.data) == 0 {
		return ErrEmptyPhoto
	}
	return r.err
}

func (r PhotoResult) Data() []byte {
	return r.data
}

// AvatarURI maps a photo result to a displayable image reference: an inline
// base64 data URI for a photo, otherwise a generated initials avatar built
// from the profile's given name and surname.
func AvatarURI(profile *model.Profile, result PhotoResult) string {
	if result.OK() {
		return photoDataURIPrefix + base64.StdEncoding.EncodeToString(result.Data())
	}

	metrics.AvatarFallbackTotal.Inc()
	var given, surname string
	if profile != nil {
		given, surname = profile.GivenName, profile.Surname
	}
	return InitialsAvatarURL(given, surname)
}

// InitialsAvatarURL returns the ui-avatars URL rendering the initials of
// given and surname
func InitialsAvatarURL(given, surname string) string {
	return initialsAvatarBase +
		"?rounded=true&name=" + url.QueryEscape(given) + "+" + url.QueryEscape(surname) +
		"&background=cfe0d6&color=154229&bold=true"
}
