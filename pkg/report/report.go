// Package report drives the audit: it enumerates an organization's
// workspaces, inspects each workspace's most recent run and, when a
// configuration-version pair resolves, downloads, extracts and diffs the
// two configuration trees.
package report

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ml4/tfe-probe/pkg/config"
	"github.com/ml4/tfe-probe/pkg/differ"
	"github.com/ml4/tfe-probe/pkg/fault"
	"github.com/ml4/tfe-probe/pkg/resolver"
	"github.com/ml4/tfe-probe/pkg/staging"
	"github.com/ml4/tfe-probe/pkg/tfe"
)

// Driver runs one full audit pass. Workspaces are processed strictly
// sequentially: the staging area is a single shared resource, so there is
// no fan-out even though workspace audits are logically independent.
type Driver struct {
	client *tfe.Client
	cfg    *config.Config
	opts   config.Options
	log    zerolog.Logger
	out    io.Writer
}

// New builds a driver writing its report to out.
func New(client *tfe.Client, cfg *config.Config, opts config.Options, log zerolog.Logger, out io.Writer) *Driver {
	return &Driver{client: client, cfg: cfg, opts: opts, log: log, out: out}
}

// Run performs the audit for one organization. The first fault anywhere in
// the pipeline aborts the whole audit; a partial audit is untrustworthy.
func (d *Driver) Run(ctx context.Context, org string) error {
	if !d.opts.Quiet {
		drawLine(d.out)
		field(d.out, "TFE", "Address", d.cfg.Address, nameColor)
		field(d.out, "TFE", "CA Cert file", d.cfg.CACertFile, nameColor)
		if d.opts.Debug {
			field(d.out, "TFE", "Token", d.cfg.Token, nameColor)
		}
	}

	if err := d.checkRelease(ctx); err != nil {
		return err
	}
	if !d.opts.Quiet {
		drawLine(d.out)
	}

	workspaces, err := d.client.ListWorkspaces(ctx, org)
	if err != nil {
		return err
	}
	sort.Slice(workspaces, func(i, j int) bool {
		return workspaces[i].Attributes.Name < workspaces[j].Attributes.Name
	})

	for _, ws := range workspaces {
		if err := d.auditWorkspace(ctx, ws); err != nil {
			return err
		}
		fmt.Fprintln(d.out)
	}

	return nil
}

// checkRelease enforces the minimum-release precondition: older releases
// cannot serve configuration-version downloads.
func (d *Driver) checkRelease(ctx context.Context) error {
	rel, err := d.client.GetRelease(ctx)
	if err != nil {
		return err
	}
	field(d.out, "TFE", "Release", rel.Release, detailColor)

	ordinal, err := tfe.ReleaseOrdinal(rel.Release)
	if err != nil {
		return fault.New(fault.Precondition, err)
	}
	if ordinal < tfe.MinimumRelease {
		return fault.Preconditionf("service release %s is older than the 202203-1 needed to download configuration versions", rel.Release)
	}
	return nil
}

func (d *Driver) auditWorkspace(ctx context.Context, ws tfe.Workspace) error {
	attr := ws.Attributes
	field(d.out, "workspace", "Name", attr.Name, detailColor)
	field(d.out, "workspace", "ID", ws.ID, idColor)
	field(d.out, "workspace", "TF Version", attr.TerraformVersion, nameColor)
	field(d.out, "workspace", "Created", attr.CreatedAt, nameColor)
	lockedColor := nameColor
	if attr.Locked {
		lockedColor = errColor
	}
	field(d.out, "workspace", "Locked", strconv.FormatBool(attr.Locked), lockedColor)
	field(d.out, "workspace", "Speculative Enabled", strconv.FormatBool(attr.SpeculativeEnabled), nameColor)
	field(d.out, "workspace", "Global Remote State", strconv.FormatBool(attr.GlobalRemoteState), nameColor)
	field(d.out, "workspace", "Resources in State", strconv.Itoa(attr.ResourceCount), nameColor)

	run, err := d.client.LatestRun(ctx, ws.ID)
	if err != nil {
		return err
	}
	if run == nil {
		field(d.out, "run", "Last Run", "No runs yet", warnColor)
		return nil
	}

	field(d.out, "run", "Last Run", run.ID, idColor)
	if user := run.Relationships.CreatedBy.ID(); user != "" {
		field(d.out, "run", "Created by", user, userColor)
	} else {
		field(d.out, "run", "Created by", "No user found!", errColor)
	}
	if cvID := run.Relationships.ConfigurationVersion.ID(); cvID != "" {
		field(d.out, "run", "Configuration Version", cvID, userColor)
	} else {
		field(d.out, "run", "Configuration Version", "No configuration version found!", errColor)
	}

	if err := d.diffConfigurations(ctx, ws, run); err != nil {
		return err
	}

	d.printRunOutcome(run)
	return nil
}

// diffConfigurations resolves the configuration-version pair for the run
// and, when one exists, downloads, extracts and diffs both trees. The
// staging area is torn down even when a step fails.
func (d *Driver) diffConfigurations(ctx context.Context, ws tfe.Workspace, run *tfe.Run) error {
	cvID := run.Relationships.ConfigurationVersion.ID()
	if cvID == "" {
		return nil
	}

	var versions []tfe.ConfigurationVersion
	if resolver.NeedsVersionList(cvID) {
		var err error
		versions, err = d.client.ListConfigurationVersions(ctx, ws.ID)
		if err != nil {
			return err
		}
	}

	pair, err := resolver.Resolve(run, versions)
	if err != nil {
		return err
	}
	if pair == nil {
		return nil
	}

	field(d.out, "run", "Latest CV", pair.Current.ID, idColor)
	field(d.out, "run", "Latest CV Download", pair.Current.Links.Download, idColor)
	field(d.out, "run", "Previous CV", pair.Previous.ID, idColor)
	field(d.out, "run", "Previous CV Download", pair.Previous.Links.Download, idColor)

	area := staging.New(d.opts.WorkDir, d.log)
	if err := area.Prepare(); err != nil {
		return err
	}

	diffErr := d.stageAndDiff(ctx, pair, area)
	if terr := area.Teardown(); diffErr == nil {
		diffErr = terr
	}
	return diffErr
}

func (d *Driver) stageAndDiff(ctx context.Context, pair *resolver.VersionPair, area *staging.Area) error {
	if err := d.client.DownloadConfigurationVersion(ctx, pair.Current.ID, area.CurrentArchive); err != nil {
		return err
	}
	if err := d.client.DownloadConfigurationVersion(ctx, pair.Previous.ID, area.PreviousArchive); err != nil {
		return err
	}
	if err := area.Extract(area.CurrentArchive, area.CurrentDir); err != nil {
		return err
	}
	if err := area.Extract(area.PreviousArchive, area.PreviousDir); err != nil {
		return err
	}

	field(d.out, "config", "Configuration Changes", "", idColor)
	lines, err := differ.Tree(area.PreviousDir, area.CurrentDir)
	if err != nil {
		return fault.New(fault.Filesystem, err)
	}
	for _, line := range lines {
		fmt.Fprintln(d.out, line)
	}
	return nil
}

// printRunOutcome prints the status-timestamp ladder for the run, with
// placeholders for phases that never happened.
func (d *Driver) printRunOutcome(run *tfe.Run) {
	attr := run.Attributes
	ts := attr.StatusTimestamps

	if attr.CanceledAt != "" {
		timestamp(d.out, "Canceled", attr.CanceledAt, "")
	} else {
		field(d.out, "run", "Canceled", "Not canceled", idColor)
	}
	timestamp(d.out, "Created", attr.CreatedAt, "Not Created")
	timestamp(d.out, "Plan Queueable", ts.PlanQueueableAt, "Not Queueable")
	timestamp(d.out, "Plan Queued", ts.PlanQueuedAt, "Not Queued")
	timestamp(d.out, "Planning", ts.PlanningAt, "Not Planned")
	timestamp(d.out, "Planned", ts.PlannedAt, "Not Planned")
	timestamp(d.out, "Apply Queued", ts.ApplyQueuedAt, "No Apply Queued")
	timestamp(d.out, "Applying", ts.ApplyingAt, "Not Applied")
	timestamp(d.out, "Confirmed", ts.ConfirmedAt, "Not Confirmed")
	timestamp(d.out, "Applied", ts.AppliedAt, "Not Applied")

	switch attr.Status {
	case "":
		field(d.out, "run", "Status (Outcome)", "UNKNOWN", errColor)
	case "applied":
		field(d.out, "run", "Status (Outcome)", attr.Status, appliedColor)
	default:
		field(d.out, "run", "Status (Outcome)", attr.Status, warnColor)
	}
}
