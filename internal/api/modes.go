package api

import (
	"context"
	"errors"
	"net/url"

	bridgeerrors "builderbridge/internal/errors"
	"builderbridge/internal/settings"
)

// OrganizationMode is one organization-managed mode definition as served by
// the backend and persisted for the Builder CLI.
type OrganizationMode struct {
	Slug               string   `json:"slug" yaml:"slug"`
	Name               string   `json:"name" yaml:"name"`
	RoleDefinition     string   `json:"roleDefinition,omitempty" yaml:"roleDefinition,omitempty"`
	WhenToUse          string   `json:"whenToUse,omitempty" yaml:"whenToUse,omitempty"`
	CustomInstructions string   `json:"customInstructions,omitempty" yaml:"customInstructions,omitempty"`
	Groups             []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	Source             string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// ModeSourceOrganization marks modes that came from the organization
// endpoint rather than the user's own file.
const ModeSourceOrganization = "organization"

type modesResponse struct {
	Modes []OrganizationMode `json:"modes"`
}

// FetchOrganizationModes lists the mode definitions managed by orgID. The
// error is surfaced so the refresher can fold fetch and persist failures
// into a single degradation report.
func (c *Client) FetchOrganizationModes(ctx context.Context, token, orgID string, providerSettings *settings.ProviderSettings) ([]OrganizationMode, error) {
	if orgID == "" {
		return nil, bridgeerrors.NewReference("organization", orgID)
	}
	path := "/organizations/" + url.PathEscape(orgID) + "/modes"

	header := c.testerHeader(providerSettings)
	header.Set(HeaderOrganizationID, orgID)

	var payload modesResponse
	if err := c.getJSON(ctx, path, token, header, &payload); err != nil {
		c.logger.Debug("organization modes fetch failed (%s): %v", bridgeerrors.Classify(err), err)
		return nil, err
	}
	for _, mode := range payload.Modes {
		if mode.Slug == "" {
			err := bridgeerrors.NewSchema(path, errors.New("mode without slug"))
			c.logger.Debug("organization modes fetch failed (%s): %v", bridgeerrors.Classify(err), err)
			return nil, err
		}
	}
	return payload.Modes, nil
}
