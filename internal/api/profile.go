package api

import (
	"context"

	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/telemetry"
)

// Profile is the slice of the profile endpoint this layer consumes.
type Profile struct {
	User ProfileUser `json:"user"`
}

// ProfileUser carries the signed-in user's account details.
type ProfileUser struct {
	Email string `json:"email"`
}

// FetchProfile returns the profile behind token. Unlike the other
// operations it surfaces the error so callers can decide what a missing
// profile means for them; the degradation is still logged and reported here.
func (c *Client) FetchProfile(ctx context.Context, token string) (Profile, error) {
	const path = "/profile"

	var payload Profile
	if err := c.getJSON(ctx, path, token, nil, &payload); err != nil {
		c.logger.Debug("profile fetch failed (%s): %v", bridgeerrors.Classify(err), err)
		c.report(ctx, telemetry.EventProfileFetchFailed, path, err, nil)
		return Profile{}, err
	}
	return payload, nil
}
