package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ml4/tfe-probe/pkg/fault"
)

// DefaultWorkDir is the root for the scratch staging areas. /var/tmp is
// used rather than /tmp because /tmp is commonly mounted noexec under CIS
// hardening. The paths beneath it are fixed, so at most one audit may run
// on a host at a time.
const DefaultWorkDir = "/var/tmp"

// Options are the presentational settings for a report pass. They never
// change what data is fetched.
type Options struct {
	// Quiet suppresses decorative output such as banners and separators.
	Quiet bool `yaml:"quiet"`
	// Debug adds verbose tracing of outbound calls and raw payloads.
	Debug bool `yaml:"debug"`
	// WorkDir is the root under which the staging areas are created.
	WorkDir string `yaml:"work_dir"`
}

// DefaultOptions returns the options used when no file or flags are given.
func DefaultOptions() Options {
	return Options{WorkDir: DefaultWorkDir}
}

// LoadOptions reads an options file. A missing file yields the defaults;
// an unreadable or unparsable file is a precondition fault.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return opts, nil
	}
	if err != nil {
		return opts, fault.New(fault.Precondition, fmt.Errorf("reading options file %s: %w", path, err))
	}

	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fault.New(fault.Precondition, fmt.Errorf("parsing options file %s: %w", path, err))
	}
	if opts.WorkDir == "" {
		opts.WorkDir = DefaultWorkDir
	}
	return opts, nil
}

const defaultOptionsFile = `# tfe-probe options file
# Presentational settings only; connection settings come from the
# environment (TFE_ADDR, TFE_TOKEN, TFE_CACERT).

# Hide banners and separator lines for pipeline-friendly output.
quiet: false

# Trace outbound API calls and raw response payloads.
debug: false

# Root directory for the scratch staging areas. The audit creates and
# removes cv0/ and cv1/ beneath this path; only one audit may use a given
# work_dir at a time.
work_dir: /var/tmp
`

// WriteDefaultOptions writes a commented default options file, refusing to
// overwrite an existing one.
func WriteDefaultOptions(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("options file %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(defaultOptionsFile), 0644); err != nil {
		return fmt.Errorf("failed to write options file: %w", err)
	}
	return nil
}
