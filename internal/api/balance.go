package api

import (
	"context"
	"net/http"

	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/telemetry"
)

type balanceResponse struct {
	Balance *float64 `json:"balance"`
}

// HasPositiveBalance reports whether the account has credit left. It never
// fails: a missing token, an absent balance field, a non-2xx status or a
// transport error all read as "no balance".
func (c *Client) HasPositiveBalance(ctx context.Context, token, orgID string) bool {
	if token == "" {
		return false
	}

	const path = "/profile/balance"
	header := http.Header{}
	if orgID != "" {
		header.Set(HeaderOrganizationID, orgID)
	}

	var payload balanceResponse
	if err := c.getJSON(ctx, path, token, header, &payload); err != nil {
		c.logger.Debug("balance check failed (%s): %v", bridgeerrors.Classify(err), err)
		extra := map[string]any{}
		if orgID != "" {
			extra[telemetry.PropertyOrganizationID] = orgID
		}
		c.report(ctx, telemetry.EventBalanceCheckFailed, path, err, extra)
		return false
	}
	return payload.Balance != nil && *payload.Balance > 0
}
