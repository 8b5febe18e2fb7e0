package anypoint

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// Client performs bearer-authenticated REST calls against the platform.
// There are no retries: a failed call is surfaced as-is and the operator
// re-runs the whole reconciliation.
type Client struct {
	host       string
	bearer     string
	httpClient *http.Client
}

// NewClient builds a REST client for the given control plane host.
func NewClient(host, bearer string) *Client {
	return &Client{host: host, bearer: bearer, httpClient: http.DefaultClient}
}

// NewClientWith builds a client with an explicit http.Client, used by tests.
func NewClientWith(host, bearer string, httpClient *http.Client) *Client {
	return &Client{host: host, bearer: bearer, httpClient: httpClient}
}

func (c *Client) graphURL() string {
	return "https://" + c.host + "/graph/api/v1/graphql"
}

func (c *Client) exchangeV1URL(orgID, groupID, assetID, version string) string {
	url := "https://" + c.host + "/exchange/api/v1/organizations/" + orgID + "/assets/"
	if version != "" {
		return url + AssetIdentifier(groupID, assetID, version)
	}
	return url + groupID + "/" + assetID
}

func (c *Client) exchangeV2URL(groupID, assetID, version string) string {
	url := "https://" + c.host + "/exchange/api/v2/assets/"
	if version != "" {
		return url + AssetIdentifier(groupID, assetID, version)
	}
	return url + groupID + "/" + assetID
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.bearer)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: reading response: %w", method, url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s %s: status %d: %s", method, url, resp.StatusCode, bytes.TrimSpace(payload))
	}
	return payload, nil
}

func (c *Client) doJSON(ctx context.Context, method, url string, body any, out any) error {
	var reader io.Reader
	contentType := ""
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	payload, err := c.do(ctx, method, url, reader, contentType)
	if err != nil {
		return err
	}
	if out != nil && len(payload) > 0 {
		if err := json.Unmarshal(payload, out); err != nil {
			return fmt.Errorf("%s %s: malformed JSON response: %w", method, url, err)
		}
	}
	return nil
}

// AssetSummary is the normalized result of the catalog query.
type AssetSummary struct {
	GroupID string `json:"groupId"`
	AssetID string `json:"assetId"`
	Version string `json:"version"`
	Type    string `json:"type"`
	Name    string `json:"name"`
}

// FindAsset looks an asset up through the graph query endpoint.
// A 404-classed query error maps to ErrNotFound; any other error is fatal.
func (c *Client) FindAsset(ctx context.Context, groupID, assetID, version string) (*AssetSummary, error) {
	query := fmt.Sprintf(
		`{assets(asset: {groupId: %q, assetId: %q, version: %q}){assetId groupId version type name}}`,
		groupID, assetID, version,
	)

	var resp struct {
		Data struct {
			Assets []AssetSummary `json:"assets"`
		} `json:"data"`
		Errors []struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := c.doJSON(ctx, http.MethodPost, c.graphURL(), map[string]string{"query": query}, &resp); err != nil {
		return nil, err
	}

	if len(resp.Errors) > 0 {
		if resp.Errors[0].Status == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("asset query failed: %s", resp.Errors[0].Message)
	}
	if len(resp.Data.Assets) == 0 {
		return nil, ErrNotFound
	}
	return &resp.Data.Assets[0], nil
}

// AssetFile is one file attached to an asset version.
type AssetFile struct {
	Classifier string `json:"classifier"`
	MD5        string `json:"md5"`
}

// AssetDetail is the platform's current record for one asset version.
type AssetDetail struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Status      string      `json:"status"`
	Labels      []string    `json:"labels"`
	Files       []AssetFile `json:"files"`
}

// Deprecated reports whether the asset version is in the deprecated substate.
func (d *AssetDetail) Deprecated() bool {
	return d.Status == "deprecated"
}

// Icon returns the attached icon file, if any.
func (d *AssetDetail) Icon() *AssetFile {
	for i := range d.Files {
		if d.Files[i].Classifier == "icon" {
			return &d.Files[i]
		}
	}
	return nil
}

// AssetDetail fetches the full current record for an asset version.
func (c *Client) AssetDetail(ctx context.Context, groupID, assetID, version string) (*AssetDetail, error) {
	var detail AssetDetail
	if err := c.doJSON(ctx, http.MethodGet, c.exchangeV2URL(groupID, assetID, version), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// SetAssetName updates the asset's display name.
func (c *Client) SetAssetName(ctx context.Context, groupID, assetID, name string) error {
	return c.doJSON(ctx, http.MethodPatch, c.exchangeV2URL(groupID, assetID, ""), map[string]string{"name": name}, nil)
}

// SetAssetDescription updates the asset's description. An empty description
// clears the current one.
func (c *Client) SetAssetDescription(ctx context.Context, groupID, assetID, description string) error {
	return c.doJSON(ctx, http.MethodPatch, c.exchangeV2URL(groupID, assetID, ""), map[string]string{"description": description}, nil)
}

// SetAssetTags replaces the asset's tag set. An empty set clears all tags.
func (c *Client) SetAssetTags(ctx context.Context, orgID, groupID, assetID, version string, tags []string) error {
	type tagEntry struct {
		Value string `json:"value"`
	}
	payload := make([]tagEntry, 0, len(tags))
	for _, tag := range tags {
		payload = append(payload, tagEntry{Value: tag})
	}
	url := c.exchangeV1URL(orgID, groupID, assetID, version) + "/tags"
	return c.doJSON(ctx, http.MethodPut, url, payload, nil)
}

// iconContentType maps supported icon extensions to upload content types.
// Any other extension is a configuration error.
func iconContentType(path string) (string, error) {
	switch filepath.Ext(path) {
	case ".png", ".jpg", ".jpeg":
		return "image/png", nil
	case ".svg":
		return "image/svg+xml", nil
	default:
		return "", fmt.Errorf("unsupported icon extension %q (supported: svg, png, jpg, jpeg)", filepath.Ext(path))
	}
}

// SetAssetIcon uploads a new icon for the asset.
func (c *Client) SetAssetIcon(ctx context.Context, groupID, assetID, iconPath string) error {
	contentType, err := iconContentType(iconPath)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(iconPath)
	if err != nil {
		return err
	}
	url := c.exchangeV2URL(groupID, assetID, "") + "/icon"
	_, err = c.do(ctx, http.MethodPut, url, bytes.NewReader(payload), contentType)
	return err
}

// DeleteAssetIcon removes the asset's icon, if it has one.
func (c *Client) DeleteAssetIcon(ctx context.Context, groupID, assetID string) error {
	url := c.exchangeV2URL(groupID, assetID, "") + "/icon"
	_, err := c.do(ctx, http.MethodDelete, url, nil, "")
	return err
}

// DeleteAsset removes an asset version from the catalog.
func (c *Client) DeleteAsset(ctx context.Context, orgID, groupID, assetID, version string) error {
	_, err := c.do(ctx, http.MethodDelete, c.exchangeV1URL(orgID, groupID, assetID, version), nil, "")
	return err
}

// OrganizationID resolves an organization name to its id using the caller's
// profile. An organization outside the caller's memberships is fatal.
func (c *Client) OrganizationID(ctx context.Context, name string) (string, error) {
	var profile struct {
		MemberOfOrganizations []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"memberOfOrganizations"`
	}
	url := "https://" + c.host + "/accounts/api/profile"
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &profile); err != nil {
		return "", err
	}
	for _, org := range profile.MemberOfOrganizations {
		if org.Name == name {
			return org.ID, nil
		}
	}
	return "", fmt.Errorf("business group %q not found among caller's memberships", name)
}

// EnvironmentClientSecret fetches the client secret for an environment's
// client id. Secrets are only ever fetched, never generated locally.
func (c *Client) EnvironmentClientSecret(ctx context.Context, orgID, clientID string) (string, error) {
	var client struct {
		ClientSecret string `json:"client_secret"`
	}
	url := "https://" + c.host + "/accounts/api/organizations/" + orgID + "/clients/" + clientID
	if err := c.doJSON(ctx, http.MethodGet, url, nil, &client); err != nil {
		return "", err
	}
	return client.ClientSecret, nil
}
