package exchangeassetplugin

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muleops/muleops/internal/anypoint"
	"github.com/muleops/muleops/internal/config"
)

func TestRequiresAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state string
		plan  assetPlan
		want  bool
	}{
		{name: "absent and missing needs nothing", state: "absent", plan: assetPlan{}, want: false},
		{name: "absent but exists must delete", state: "absent", plan: assetPlan{Exists: true}, want: true},
		{name: "present and missing must create", state: "present", plan: assetPlan{}, want: true},
		{name: "present and matching needs nothing", state: "present", plan: assetPlan{Exists: true}, want: false},
		{name: "present but deprecated must undeprecate", state: "present", plan: assetPlan{Exists: true, Deprecated: true}, want: true},
		{name: "present with drifted name", state: "present", plan: assetPlan{Exists: true, UpdateName: true}, want: true},
		{name: "present with drifted description", state: "present", plan: assetPlan{Exists: true, UpdateDescription: true}, want: true},
		{name: "present with drifted icon", state: "present", plan: assetPlan{Exists: true, UpdateIcon: true}, want: true},
		{name: "present with drifted tags", state: "present", plan: assetPlan{Exists: true, UpdateTags: true}, want: true},
		{name: "deprecated and missing must create", state: "deprecated", plan: assetPlan{}, want: true},
		{name: "deprecated and already deprecated needs nothing", state: "deprecated", plan: assetPlan{Exists: true, Deprecated: true}, want: false},
		{name: "deprecated but active must deprecate", state: "deprecated", plan: assetPlan{Exists: true}, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, requiresAction(tt.state, tt.plan))
		})
	}
}

func TestDiffAsset(t *testing.T) {
	t.Parallel()

	base := func() *config.ExchangeAssetStep {
		return &config.ExchangeAssetStep{
			State:        "present",
			Name:         "My API",
			AssetType:    "oas",
			GroupID:      "org-id",
			AssetID:      "my-api",
			AssetVersion: "1.0.0",
			Description:  "A description",
			Tags:         []string{"billing", "internal"},
		}
	}
	matching := func() *anypoint.AssetDetail {
		return &anypoint.AssetDetail{
			Name:        "My API",
			Description: "A description",
			Status:      "published",
			Labels:      []string{"internal", "billing"},
		}
	}

	t.Run("matching record flags nothing", func(t *testing.T) {
		t.Parallel()
		p := diffAsset(base(), matching(), "")
		assert.True(t, p.Exists)
		assert.False(t, p.mustUpdate())
	})

	t.Run("name drift", func(t *testing.T) {
		t.Parallel()
		detail := matching()
		detail.Name = "Old Name"
		p := diffAsset(base(), detail, "")
		assert.True(t, p.UpdateName)
		assert.False(t, p.UpdateDescription)
	})

	t.Run("description drift is strict inequality", func(t *testing.T) {
		t.Parallel()
		desired := base()
		desired.Description = ""
		p := diffAsset(desired, matching(), "")
		assert.True(t, p.UpdateDescription)
	})

	t.Run("tags compare as a set", func(t *testing.T) {
		t.Parallel()
		p := diffAsset(base(), matching(), "")
		assert.False(t, p.UpdateTags)

		detail := matching()
		detail.Labels = []string{"billing"}
		p = diffAsset(base(), detail, "")
		assert.True(t, p.UpdateTags)
	})

	t.Run("deprecated status carries into the plan", func(t *testing.T) {
		t.Parallel()
		detail := matching()
		detail.Status = "deprecated"
		p := diffAsset(base(), detail, "")
		assert.True(t, p.Deprecated)
	})

	t.Run("icon comparison", func(t *testing.T) {
		t.Parallel()

		iconFile := &anypoint.AssetFile{Classifier: "icon", MD5: "abc"}

		tests := []struct {
			name       string
			declared   string
			remote     *anypoint.AssetFile
			localMD5   string
			wantUpdate bool
		}{
			{name: "both absent", declared: "", remote: nil, wantUpdate: false},
			{name: "declared but not uploaded", declared: "icon.png", remote: nil, wantUpdate: true},
			{name: "uploaded but not declared", declared: "", remote: iconFile, wantUpdate: true},
			{name: "same digest", declared: "icon.png", remote: iconFile, localMD5: "abc", wantUpdate: false},
			{name: "different digest", declared: "icon.png", remote: iconFile, localMD5: "def", wantUpdate: true},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()
				desired := base()
				desired.Icon = tt.declared
				detail := matching()
				if tt.remote != nil {
					detail.Files = []anypoint.AssetFile{*tt.remote}
				}
				p := diffAsset(desired, detail, tt.localMD5)
				assert.Equal(t, tt.wantUpdate, p.UpdateIcon)
			})
		}
	})
}

func TestEqualTagSets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []string
		want bool
	}{
		{name: "both empty", want: true},
		{name: "nil equals empty", a: nil, b: []string{}, want: true},
		{name: "order does not matter", a: []string{"a", "b"}, b: []string{"b", "a"}, want: true},
		{name: "duplicates do not matter", a: []string{"a", "a", "b"}, b: []string{"a", "b"}, want: true},
		{name: "missing member", a: []string{"a", "b"}, b: []string{"a"}, want: false},
		{name: "extra member", a: []string{"a"}, b: []string{"a", "b"}, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, equalTagSets(tt.a, tt.b))
		})
	}
}

func TestMD5File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "icon.png")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	sum, err := md5File(path)
	require.NoError(t, err)
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", sum)

	_, err = md5File(filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
}
