// Package assets decides how each artifact of a workload reaches the
// container: as an explicit download step in the action graph, as a
// host-level cached dependency, or as an image layer delivered by the
// container runtime.
package assets

import (
	"errors"
	"fmt"

	"github.com/me/diegobridge/pkg/bbs"
)

// Mode selects the delivery mechanism configured for the deployment.
type Mode int

const (
	// Legacy delivers reusable artifacts as cached dependencies and
	// per-build artifacts as explicit download steps.
	Legacy Mode = iota
	// Declarative delegates digest-verified artifacts to the runtime as
	// image layers.
	Declarative
)

func (m Mode) String() string {
	if m == Declarative {
		return "declarative"
	}
	return "legacy"
}

// ModeFor maps the enable_declarative_asset_downloads flag to a Mode.
func ModeFor(declarative bool) Mode {
	if declarative {
		return Declarative
	}
	return Legacy
}

// Scope says whether an artifact is unique to one build or reusable
// across builds.
type Scope int

const (
	// PerBuild artifacts (package, droplet, build cache) become Exclusive layers.
	PerBuild Scope = iota
	// Reusable artifacts (lifecycle bundles, buildpacks) become Shared layers.
	Reusable
)

// Checksum algorithms understood by the runtime.
const (
	SHA256 = "sha256"
	SHA512 = "sha512"
)

// ErrIncompleteDigest is returned when a digest carries only one of its
// algorithm and value.
var ErrIncompleteDigest = errors.New("digest must set both algorithm and value, or neither")

// Digest is an integrity checksum for an artifact.
type Digest struct {
	Algorithm string
	Value     string
}

// IsZero reports whether no digest is set.
func (d Digest) IsZero() bool { return d.Algorithm == "" && d.Value == "" }

// Validate checks that algorithm and value are set together.
func (d Digest) Validate() error {
	if (d.Algorithm == "") != (d.Value == "") {
		return ErrIncompleteDigest
	}
	return nil
}

// Strong reports whether the digest is a content hash the runtime can
// verify when it fetches an image layer itself.
func (d Digest) Strong() bool {
	return d.Value != "" && (d.Algorithm == SHA256 || d.Algorithm == SHA512)
}

func (d Digest) layerAlgorithm() bbs.DigestAlgorithm {
	switch d.Algorithm {
	case SHA256:
		return bbs.DigestAlgorithmSHA256
	case SHA512:
		return bbs.DigestAlgorithmSHA512
	}
	return bbs.DigestAlgorithmInvalid
}

// Artifact describes one file set that must be present in the container.
type Artifact struct {
	Name string // e.g. "app package", "droplet"
	URI  string
	// Path is the destination inside the container.
	Path string
	// LayerPath overrides Path when the artifact is delivered as an image
	// layer. Droplets extract to "." as a step but to the stack's droplet
	// destination as a layer.
	LayerPath  string
	CacheKey   string
	User       string
	LogSource  string
	MediaType  bbs.MediaType
	Scope      Scope
	BestEffort bool
	Digest     Digest
}

// Delivery is the outcome of Resolve. Exactly one field is set.
type Delivery struct {
	Step             *bbs.Action
	CachedDependency *bbs.CachedDependency
	Layer            *bbs.ImageLayer
}

// Kind names the chosen strategy: "step", "cached_dependency" or "image_layer".
func (d Delivery) Kind() string {
	switch {
	case d.Step != nil:
		return "step"
	case d.CachedDependency != nil:
		return "cached_dependency"
	case d.Layer != nil:
		return "image_layer"
	}
	return ""
}

// Resolve picks the delivery strategy for a single artifact. It is a pure
// function of its inputs.
//
//   - declarative with a strong digest: image layer, Exclusive for per-build
//     artifacts and Shared for reusable ones.
//   - declarative without a strong digest: per-build artifacts fall back to
//     an explicit download; reusable artifacts stay a Shared layer without
//     a digest, which the runtime fetches unverified.
//   - legacy: reusable artifacts are cached dependencies, per-build
//     artifacts are explicit downloads, wrapped in Try when best-effort.
func Resolve(a Artifact, mode Mode) (Delivery, error) {
	if err := a.Digest.Validate(); err != nil {
		return Delivery{}, fmt.Errorf("artifact %q: %w", a.Name, err)
	}

	if mode == Declarative {
		switch {
		case a.Digest.Strong():
			return Delivery{Layer: a.layer(true)}, nil
		case a.Scope == Reusable:
			return Delivery{Layer: a.layer(false)}, nil
		}
		return Delivery{Step: a.step()}, nil
	}

	if a.Scope == Reusable {
		return Delivery{CachedDependency: &bbs.CachedDependency{
			Name:              a.Name,
			From:              a.URI,
			To:                a.Path,
			CacheKey:          a.CacheKey,
			LogSource:         a.LogSource,
			ChecksumAlgorithm: a.Digest.Algorithm,
			ChecksumValue:     a.Digest.Value,
		}}, nil
	}
	return Delivery{Step: a.step()}, nil
}

func (a Artifact) step() *bbs.Action {
	dl := bbs.Download(&bbs.DownloadAction{
		Artifact:          a.Name,
		From:              a.URI,
		To:                a.Path,
		CacheKey:          a.CacheKey,
		LogSource:         a.LogSource,
		User:              a.User,
		ChecksumAlgorithm: a.Digest.Algorithm,
		ChecksumValue:     a.Digest.Value,
	})
	if a.BestEffort {
		return bbs.Try(dl)
	}
	return dl
}

func (a Artifact) layer(withDigest bool) *bbs.ImageLayer {
	dest := a.Path
	if a.LayerPath != "" {
		dest = a.LayerPath
	}
	l := &bbs.ImageLayer{
		Name:            a.Name,
		URL:             a.URI,
		DestinationPath: dest,
		LayerType:       bbs.LayerTypeExclusive,
		MediaType:       a.MediaType,
	}
	if a.Scope == Reusable {
		l.LayerType = bbs.LayerTypeShared
	}
	if withDigest {
		l.DigestAlgorithm = a.Digest.layerAlgorithm()
		l.DigestValue = a.Digest.Value
	}
	return l
}

// Set accumulates the sidecar references produced while resolving the
// artifacts of one workload.
type Set struct {
	CachedDependencies []*bbs.CachedDependency
	ImageLayers        []*bbs.ImageLayer
}

// Add records the cached dependency or image layer of d and returns the
// explicit step, if any, for the caller to place in its action graph.
func (s *Set) Add(d Delivery) *bbs.Action {
	if d.CachedDependency != nil {
		s.CachedDependencies = append(s.CachedDependencies, d.CachedDependency)
	}
	if d.Layer != nil {
		s.ImageLayers = append(s.ImageLayers, d.Layer)
	}
	return d.Step
}

// Resolve resolves a and records its sidecar reference in s.
func (s *Set) Resolve(a Artifact, mode Mode) (*bbs.Action, error) {
	d, err := Resolve(a, mode)
	if err != nil {
		return nil, err
	}
	return s.Add(d), nil
}
