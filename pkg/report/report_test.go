package report

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ml4/tfe-probe/pkg/config"
	"github.com/ml4/tfe-probe/pkg/fault"
	"github.com/ml4/tfe-probe/pkg/tfe"
)

func init() {
	color.NoColor = true
}

// makeArchive builds the gzip-compressed tar stream the download endpoint
// serves for one configuration version.
func makeArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var tarBuf bytes.Buffer
	tw := tar.NewWriter(&tarBuf)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Typeflag: tar.TypeReg,
			Mode:     0644,
			Size:     int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(tarBuf.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func writeTestCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "tfe-probe test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ca.pem")
	var buf bytes.Buffer
	require.NoError(t, pem.Encode(&buf, &pem.Block{Type: "CERTIFICATE", Bytes: der}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

// fixture describes the remote state one scenario serves.
type fixture struct {
	release    string
	runCV      string // configuration version the latest run references; "" for no runs
	versionIDs []string
	archives   map[string][]byte // version id -> gzip tar stream
}

func newFixtureServer(t *testing.T, fx fixture) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/admin/release", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"release":%q}`, fx.release)
	})
	mux.HandleFunc("/api/v2/organizations/acme/workspaces", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"ws-1","attributes":{
			"name":"networking","auto-apply":true,"created-at":"2024-01-02T03:04:05Z",
			"locked":false,"speculative-enabled":true,"terraform-version":"1.7.5",
			"global-remote-state":false,"resource-count":3,
			"permissions":{"can-read-state-versions":true}}}]}`))
	})
	mux.HandleFunc("/api/v2/workspaces/ws-1/runs", func(w http.ResponseWriter, r *http.Request) {
		if fx.runCV == "" {
			w.Write([]byte(`{"data":[]}`))
			return
		}
		fmt.Fprintf(w, `{"data":[{"id":"run-1","attributes":{
			"status":"applied","created-at":"2024-02-01T00:00:00Z",
			"status-timestamps":{"planning-at":"2024-02-01T00:01:00Z","applied-at":"2024-02-01T00:05:00Z"}},
			"relationships":{
				"created-by":{"data":{"id":"user-9","type":"users"}},
				"configuration-version":{"data":{"id":%q,"type":"configuration-versions"}}}}]}`, fx.runCV)
	})
	mux.HandleFunc("/api/v2/workspaces/ws-1/configuration-versions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[`)
		for i, id := range fx.versionIDs {
			if i > 0 {
				fmt.Fprint(w, ",")
			}
			fmt.Fprintf(w, `{"id":%q,"links":{"download":"/api/v2/configuration-versions/%s/download"}}`, id, id)
		}
		fmt.Fprint(w, `]}`)
	})
	for id, archive := range fx.archives {
		blob := archive
		mux.HandleFunc("/api/v2/configuration-versions/"+id+"/download", func(w http.ResponseWriter, r *http.Request) {
			w.Write(blob)
		})
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestDriver(t *testing.T, srv *httptest.Server, workDir string) (*Driver, *bytes.Buffer) {
	t.Helper()

	cfg := &config.Config{Address: srv.URL, Token: "tok", CACertFile: writeTestCA(t)}
	client, err := tfe.NewClient(cfg, zerolog.Nop())
	require.NoError(t, err)

	var out bytes.Buffer
	opts := config.Options{Quiet: true, WorkDir: workDir}
	return New(client, cfg, opts, zerolog.Nop(), &out), &out
}

func TestRun_DriftBetweenConfigurationVersions(t *testing.T) {
	srv := newFixtureServer(t, fixture{
		release:    "v202306-1",
		runCV:      "cv-002",
		versionIDs: []string{"cv-002", "cv-001"},
		archives: map[string][]byte{
			"cv-002": makeArchive(t, map[string]string{"main.tf": "foo=2\n"}),
			"cv-001": makeArchive(t, map[string]string{"main.tf": "foo=1\n"}),
		},
	})
	workDir := t.TempDir()
	driver, out := newTestDriver(t, srv, workDir)

	require.NoError(t, driver.Run(context.Background(), "acme"))

	report := out.String()
	assert.Contains(t, report, "networking")
	assert.Contains(t, report, "run-1")
	assert.Contains(t, report, "Latest CV")
	assert.Contains(t, report, "cv-002")
	assert.Contains(t, report, "-foo=1")
	assert.Contains(t, report, "+foo=2")

	// The staging area must be gone once the pass completes.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_VersionListHeadMismatchAborts(t *testing.T) {
	srv := newFixtureServer(t, fixture{
		release:    "v202306-1",
		runCV:      "cv-002",
		versionIDs: []string{"cv-003", "cv-002"},
	})
	driver, _ := newTestDriver(t, srv, t.TempDir())

	err := driver.Run(context.Background(), "acme")

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Consistency))
}

func TestRun_EmptyVersionListWithReferenceAborts(t *testing.T) {
	srv := newFixtureServer(t, fixture{
		release: "v202306-1",
		runCV:   "cv-002",
	})
	driver, _ := newTestDriver(t, srv, t.TempDir())

	err := driver.Run(context.Background(), "acme")

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Consistency))
}

func TestRun_FirstConfigurationVersionSkipsDiff(t *testing.T) {
	srv := newFixtureServer(t, fixture{
		release:    "v202306-1",
		runCV:      "cv-001",
		versionIDs: []string{"cv-001"},
	})
	workDir := t.TempDir()
	driver, out := newTestDriver(t, srv, workDir)

	require.NoError(t, driver.Run(context.Background(), "acme"))

	report := out.String()
	assert.NotContains(t, report, "Latest CV")
	assert.Contains(t, report, "Status (Outcome)")

	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_NoRunsYet(t *testing.T) {
	srv := newFixtureServer(t, fixture{release: "v202306-1"})
	driver, out := newTestDriver(t, srv, t.TempDir())

	require.NoError(t, driver.Run(context.Background(), "acme"))

	assert.Contains(t, out.String(), "No runs yet")
}

func TestRun_OldReleaseIsPreconditionFault(t *testing.T) {
	srv := newFixtureServer(t, fixture{release: "v202110-2"})
	driver, _ := newTestDriver(t, srv, t.TempDir())

	err := driver.Run(context.Background(), "acme")

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Precondition))
}

func TestRun_StaleStagingDirectoryAborts(t *testing.T) {
	srv := newFixtureServer(t, fixture{
		release:    "v202306-1",
		runCV:      "cv-002",
		versionIDs: []string{"cv-002", "cv-001"},
		archives: map[string][]byte{
			"cv-002": makeArchive(t, map[string]string{"main.tf": "foo=2\n"}),
			"cv-001": makeArchive(t, map[string]string{"main.tf": "foo=1\n"}),
		},
	})
	workDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(workDir, "cv0"), 0755))
	driver, _ := newTestDriver(t, srv, workDir)

	err := driver.Run(context.Background(), "acme")

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.Filesystem))
}
