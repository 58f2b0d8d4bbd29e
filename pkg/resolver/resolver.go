// Package resolver pairs a run's configuration version with its
// predecessor so the two archives can be diffed.
package resolver

import (
	"strings"

	"github.com/ml4/tfe-probe/pkg/fault"
	"github.com/ml4/tfe-probe/pkg/tfe"
)

// VersionPair is the resolved (current, previous) tuple selected for
// diffing. Current is always the more recent of the two.
type VersionPair struct {
	Current  tfe.ConfigurationVersion
	Previous tfe.ConfigurationVersion
}

// NeedsVersionList reports whether a run's configuration-version reference
// has the expected prefixed shape, meaning the caller should fetch the
// workspace's version list before resolving.
func NeedsVersionList(cvID string) bool {
	return strings.HasPrefix(cvID, "cv-")
}

// Resolve determines whether a valid pair exists for the run given the
// workspace's version list (most recent first).
//
// A nil pair with a nil error is the degenerate, non-fatal outcome: the
// run references no configuration version, or only one version exists (a
// workspace's very first run). An empty list when a reference was
// expected, or a list whose head does not match the run's reference, means
// the remote state changed between reads and is a consistency fault.
func Resolve(run *tfe.Run, versions []tfe.ConfigurationVersion) (*VersionPair, error) {
	cvID := run.Relationships.ConfigurationVersion.ID()
	if cvID == "" || !strings.HasPrefix(cvID, "cv-") {
		return nil, nil
	}

	if len(versions) == 0 {
		return nil, fault.Consistencyf("run %s references configuration version %s but the version list is empty", run.ID, cvID)
	}
	if len(versions) == 1 {
		return nil, nil
	}

	if versions[0].ID != cvID {
		return nil, fault.Consistencyf("run %s references configuration version %s but the version list head is %s", run.ID, cvID, versions[0].ID)
	}

	return &VersionPair{Current: versions[0], Previous: versions[1]}, nil
}
