package tfe

// Release is the admin release metadata used for the minimum-version
// precondition check.
type Release struct {
	Release string `json:"release"`
}

// Workspace is one named unit of managed infrastructure state.
type Workspace struct {
	ID         string              `json:"id"`
	Attributes WorkspaceAttributes `json:"attributes"`
}

// WorkspaceAttributes carries the subset of workspace attributes shown in
// the report.
type WorkspaceAttributes struct {
	Name               string               `json:"name"`
	AutoApply          bool                 `json:"auto-apply"`
	CreatedAt          string               `json:"created-at"`
	Locked             bool                 `json:"locked"`
	SpeculativeEnabled bool                 `json:"speculative-enabled"`
	TerraformVersion   string               `json:"terraform-version"`
	GlobalRemoteState  bool                 `json:"global-remote-state"`
	ResourceCount      int                  `json:"resource-count"`
	Permissions        WorkspacePermissions `json:"permissions"`
}

// WorkspacePermissions carries the permission flags relevant to auditing.
type WorkspacePermissions struct {
	CanReadStateVersions bool `json:"can-read-state-versions"`
}

// Run is one plan/apply execution attempt tied to a workspace.
type Run struct {
	ID            string           `json:"id"`
	Attributes    RunAttributes    `json:"attributes"`
	Relationships RunRelationships `json:"relationships"`
}

// RunAttributes holds the run status and its timestamp ladder.
type RunAttributes struct {
	Status           string         `json:"status"`
	CreatedAt        string         `json:"created-at"`
	CanceledAt       string         `json:"canceled-at"`
	StatusTimestamps RunStatusTimes `json:"status-timestamps"`
}

// RunStatusTimes mirrors the status-timestamps object. Absent phases are
// empty strings.
type RunStatusTimes struct {
	PlanQueueableAt string `json:"plan-queueable-at"`
	PlanQueuedAt    string `json:"plan-queued-at"`
	PlanningAt      string `json:"planning-at"`
	PlannedAt       string `json:"planned-at"`
	ApplyQueuedAt   string `json:"apply-queued-at"`
	ApplyingAt      string `json:"applying-at"`
	ConfirmedAt     string `json:"confirmed-at"`
	AppliedAt       string `json:"applied-at"`
}

// RunRelationships links a run to its creator and configuration version.
type RunRelationships struct {
	CreatedBy            Relationship `json:"created-by"`
	ConfigurationVersion Relationship `json:"configuration-version"`
}

// Relationship is a JSON:API relationship reference.
type Relationship struct {
	Data *RelationshipData `json:"data"`
}

// RelationshipData identifies the referenced record.
type RelationshipData struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// ID returns the referenced record id, or "" when the relationship is
// absent.
func (r Relationship) ID() string {
	if r.Data == nil {
		return ""
	}
	return r.Data.ID
}

// ConfigurationVersion is one immutable configuration snapshot. The order
// of the workspace's version list is authoritative: index 0 is the most
// recent.
type ConfigurationVersion struct {
	ID    string                    `json:"id"`
	Links ConfigurationVersionLinks `json:"links"`
}

// ConfigurationVersionLinks carries the archive download reference.
type ConfigurationVersionLinks struct {
	Download string `json:"download"`
}

// JSON:API response envelopes.

type workspaceList struct {
	Data []Workspace `json:"data"`
}

type runList struct {
	Data []Run `json:"data"`
}

type configurationVersionList struct {
	Data []ConfigurationVersion `json:"data"`
}
