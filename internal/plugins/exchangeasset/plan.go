package exchangeassetplugin

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
)

// assetPlan is the reconciliation plan for one asset step: which mutations
// are needed to reach the declared state. It is computed once by Evaluate and
// consumed once by Apply.
type assetPlan struct {
	Exists     bool
	Deprecated bool

	UpdateName        bool
	UpdateDescription bool
	UpdateIcon        bool
	UpdateTags        bool
}

func (p assetPlan) mustUpdate() bool {
	return p.UpdateName || p.UpdateDescription || p.UpdateIcon || p.UpdateTags
}

// requiresAction is the decision table mapping (declared state, plan) to
// whether any mutation must be issued.
func requiresAction(state string, p assetPlan) bool {
	switch state {
	case "absent":
		return p.Exists
	case "present":
		if !p.Exists {
			return true
		}
		return p.Deprecated || p.mustUpdate()
	case "deprecated":
		if !p.Exists {
			return true
		}
		return !p.Deprecated
	}
	return false
}

// diffAsset computes per-field update flags by strict inequality between the
// declared attributes and an observed record. localIconMD5 is the digest of
// the declared icon file, empty when no icon is declared.
func diffAsset(desired *config.ExchangeAssetStep, detail *anypoint.AssetDetail, localIconMD5 string) assetPlan {
	p := assetPlan{Exists: true, Deprecated: detail.Deprecated()}

	if desired.Name != "" && desired.Name != detail.Name {
		p.UpdateName = true
	}
	if desired.Description != detail.Description {
		p.UpdateDescription = true
	}
	if !equalTagSets(desired.Tags, detail.Labels) {
		p.UpdateTags = true
	}

	remoteIcon := detail.Icon()
	switch {
	case remoteIcon == nil && desired.Icon == "":
		// both absent
	case remoteIcon == nil || desired.Icon == "":
		p.UpdateIcon = true
	default:
		p.UpdateIcon = localIconMD5 != remoteIcon.MD5
	}

	return p
}

// equalTagSets compares two tag lists as sets: membership matters, ordering
// and duplicates do not.
func equalTagSets(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, tag := range a {
		setA[tag] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		setB[tag] = struct{}{}
	}
	if len(setA) != len(setB) {
		return false
	}
	for tag := range setA {
		if _, ok := setB[tag]; !ok {
			return false
		}
	}
	return true
}

func md5File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("reading icon file: %w", err)
	}
	defer f.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("hashing icon file: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
