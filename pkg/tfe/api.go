package tfe

import (
	"context"
	"fmt"
	"strconv"
)

// MinimumRelease is the oldest service release able to serve
// configuration-version downloads, as a year-month ordinal.
const MinimumRelease = 202203

// GetRelease fetches the admin release metadata.
func (c *Client) GetRelease(ctx context.Context) (*Release, error) {
	var rel Release
	if err := c.get(ctx, "/admin/release", &rel); err != nil {
		return nil, err
	}
	return &rel, nil
}

// ReleaseOrdinal parses a release string such as "v202203-1" into its
// year-month ordinal.
func ReleaseOrdinal(release string) (int, error) {
	if len(release) < 7 {
		return 0, fmt.Errorf("release %q too short to parse", release)
	}
	n, err := strconv.Atoi(release[1:7])
	if err != nil {
		return 0, fmt.Errorf("release %q has no year-month ordinal: %w", release, err)
	}
	return n, nil
}

// ListWorkspaces fetches every workspace in the organization.
func (c *Client) ListWorkspaces(ctx context.Context, org string) ([]Workspace, error) {
	var list workspaceList
	if err := c.get(ctx, fmt.Sprintf("/organizations/%s/workspaces", org), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// LatestRun fetches the workspace's most recent run, or nil when the
// workspace has no runs yet.
func (c *Client) LatestRun(ctx context.Context, workspaceID string) (*Run, error) {
	var list runList
	if err := c.get(ctx, fmt.Sprintf("/workspaces/%s/runs?page%%5Bsize%%5D=1", workspaceID), &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, nil
	}
	return &list.Data[0], nil
}

// ListConfigurationVersions fetches the workspace's configuration-version
// list. The returned order is authoritative: index 0 is the most recent.
func (c *Client) ListConfigurationVersions(ctx context.Context, workspaceID string) ([]ConfigurationVersion, error) {
	var list configurationVersionList
	if err := c.get(ctx, fmt.Sprintf("/workspaces/%s/configuration-versions", workspaceID), &list); err != nil {
		return nil, err
	}
	return list.Data, nil
}

// DownloadConfigurationVersion downloads the compressed archive for one
// configuration version to dest.
func (c *Client) DownloadConfigurationVersion(ctx context.Context, id, dest string) error {
	return c.Download(ctx, fmt.Sprintf("/configuration-versions/%s/download", id), dest)
}
