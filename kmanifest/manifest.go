// Package kmanifest turns a BuildResult into a serialisable manifest that the
// packaging stage consumes, and checks it for reproducibility.
package kmanifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/birdayz/kbuild"
	"github.com/birdayz/kbuild/kserde"
)

var (
	ErrDigestMismatch = errors.New("manifest digest mismatch")
	ErrUnencodable    = errors.New("item payload cannot be encoded")
)

// Manifest is the JSON view of one build.
type Manifest struct {
	BuildID   string       `json:"buildId"`
	CreatedAt time.Time    `json:"createdAt"`
	Features  []string     `json:"features"`
	Kinds     []KindRecord `json:"kinds"`
	Steps     []StepRecord `json:"steps"`
	// Digest covers Features, Kinds and Steps without durations, so two
	// builds of the same registry have the same digest.
	Digest string `json:"digest"`
}

type KindRecord struct {
	Kind  string       `json:"kind"`
	Items []ItemRecord `json:"items"`
}

type ItemRecord struct {
	Producer string          `json:"producer"`
	Key      string          `json:"key,omitempty"`
	Value    json.RawMessage `json:"value"`
}

type StepRecord struct {
	Step       string `json:"step"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Produced   int    `json:"produced"`
	DurationMS int64  `json:"durationMs"`
}

// FromResult builds a manifest from a (possibly partial) build result.
func FromResult(res *kbuild.BuildResult, buildID string) (Manifest, error) {
	m := Manifest{
		BuildID:   buildID,
		CreatedAt: time.Now().UTC(),
		Features:  res.Features(),
	}
	if m.Features == nil {
		m.Features = []string{}
	}

	for _, kind := range res.Kinds() {
		rec := KindRecord{Kind: string(kind)}
		for _, it := range res.Items(kind) {
			v, err := json.Marshal(it.Value())
			if err != nil {
				return Manifest{}, fmt.Errorf("%w: %s from %s: %w", ErrUnencodable, kind, it.Producer(), err)
			}
			rec.Items = append(rec.Items, ItemRecord{Producer: it.Producer(), Key: it.Key(), Value: v})
		}
		m.Kinds = append(m.Kinds, rec)
	}

	for _, o := range res.Outcomes() {
		rec := StepRecord{
			Step:       o.Step,
			Status:     o.Status.String(),
			Produced:   o.Produced,
			DurationMS: o.Duration.Milliseconds(),
		}
		if o.Err != nil {
			rec.Error = o.Err.Error()
		}
		m.Steps = append(m.Steps, rec)
	}

	digest, err := m.ComputeDigest()
	if err != nil {
		return Manifest{}, err
	}
	m.Digest = digest
	return m, nil
}

// ComputeDigest hashes the reproducible content of the manifest.
func (m Manifest) ComputeDigest() (string, error) {
	type stepContent struct {
		Step     string `json:"step"`
		Status   string `json:"status"`
		Error    string `json:"error,omitempty"`
		Produced int    `json:"produced"`
	}
	content := struct {
		Features []string      `json:"features"`
		Kinds    []KindRecord  `json:"kinds"`
		Steps    []stepContent `json:"steps"`
	}{
		Features: m.Features,
		Kinds:    m.Kinds,
	}
	for _, s := range m.Steps {
		content.Steps = append(content.Steps, stepContent{Step: s.Step, Status: s.Status, Error: s.Error, Produced: s.Produced})
	}

	b, err := json.Marshal(content)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Verify recomputes the digest and compares it with the stored one.
func (m Manifest) Verify() error {
	digest, err := m.ComputeDigest()
	if err != nil {
		return err
	}
	if digest != m.Digest {
		return fmt.Errorf("%w: stored %s, computed %s", ErrDigestMismatch, m.Digest, digest)
	}
	return nil
}

// Succeeded reports whether every step in the manifest succeeded.
func (m Manifest) Succeeded() bool {
	for _, s := range m.Steps {
		if s.Status != kbuild.StatusSucceeded.String() {
			return false
		}
	}
	return true
}

// SameContent reports whether two manifests describe identical builds.
func SameContent(a, b Manifest) bool {
	return a.Digest != "" && a.Digest == b.Digest
}

// Serde encodes manifests as JSON.
var Serde = kserde.JSON[Manifest]()

func Encode(m Manifest) ([]byte, error) {
	return Serde.Serializer(m)
}

// Decode parses a manifest and verifies its digest.
func Decode(b []byte) (Manifest, error) {
	m, err := Serde.Deserializer(b)
	if err != nil {
		return Manifest{}, err
	}
	if err := m.Verify(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
