package build

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/pagebuilder/internal/config"
	"git.home.luguber.info/inful/pagebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/pagebuilder/internal/page"
	"git.home.luguber.info/inful/pagebuilder/internal/version"
)

// ManifestFile is written to the output directory after every batch that writes pages.
const ManifestFile = ".pagebuilder-manifest.json"

const manifestVersion = 1

// Manifest records what the previous batch wrote so unchanged pages can be skipped.
type Manifest struct {
	Version   int       `json:"version"`
	BatchID   string    `json:"batch_id"`
	Generated time.Time `json:"generated"`
	// SiteSignature covers everything shared by all pages: site nav, chrome,
	// page nav depth, revision and the pagebuilder version.
	SiteSignature string                   `json:"site_signature"`
	Pages         map[string]ManifestEntry `json:"pages"` // keyed by output path
}

// ManifestEntry is the record of one written page.
type ManifestEntry struct {
	Source      string `json:"source"`
	Fingerprint string `json:"fingerprint"`
}

// NewManifest returns an empty manifest.
func NewManifest(batchID string, generated time.Time, signature string) *Manifest {
	return &Manifest{
		Version:       manifestVersion,
		BatchID:       batchID,
		Generated:     generated.UTC(),
		SiteSignature: signature,
		Pages:         make(map[string]ManifestEntry),
	}
}

// LoadManifest reads the manifest in dir. A missing, unreadable or outdated
// manifest yields nil so every page is rebuilt.
func LoadManifest(dir string) *Manifest {
	// #nosec G304 -- manifest path is inside the configured output directory.
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil
	}
	var m Manifest
	if json.Unmarshal(data, &m) != nil || m.Version != manifestVersion || m.Pages == nil {
		return nil
	}
	return &m
}

// Save writes the manifest into dir.
func (m *Manifest) Save(dir string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return writeFile(filepath.Join(dir, ManifestFile), append(data, '\n'))
}

// Unchanged reports whether output was last written from a source with the same
// fingerprint under the same site signature.
func (m *Manifest) Unchanged(output, fingerprint, signature string) bool {
	if m == nil || fingerprint == "" || m.SiteSignature != signature {
		return false
	}
	entry, ok := m.Pages[output]
	return ok && entry.Fingerprint == fingerprint
}

// sourceFingerprint hashes a source file's frontmatter and body with mdfp.
// An empty result means the page is always rebuilt.
func sourceFingerprint(path string) string {
	// #nosec G304 -- path comes from source discovery.
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	block, body, err := frontmatter.Split(content)
	if err != nil {
		return ""
	}
	fields, err := frontmatter.ParseYAML(block.Raw)
	if err != nil {
		return ""
	}
	fp, err := frontmatter.Fingerprint(fields, body)
	if err != nil {
		return ""
	}
	return fp
}

// siteSignature hashes the inputs shared by every page. The chrome must be
// loaded without the generation time so that it does not change every batch.
func siteSignature(cfg *config.Config, chrome *page.Chrome, revision string) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(struct {
		Site     config.SiteConfig
		MaxLevel int
		Revision string
		Version  string
	}{cfg.Site, cfg.Render.PageNavMaxLevel, revision, version.Version}); err != nil {
		return "", err
	}
	for _, part := range [][]*html.Node{chrome.Head, chrome.Header, chrome.Footer} {
		for _, n := range part {
			if err := html.Render(h, n); err != nil {
				return "", err
			}
		}
		_, _ = h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
