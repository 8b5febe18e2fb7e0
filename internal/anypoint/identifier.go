package anypoint

// AssetIdentifier formats the composite key addressing an Exchange asset.
// The concatenation is order-preserving and stable: group, asset, version.
func AssetIdentifier(groupID, assetID, version string) string {
	return groupID + "/" + assetID + "/" + version
}

// EnvironmentIdentifier formats the composite key addressing an account
// environment within an organization.
func EnvironmentIdentifier(name, organization string) string {
	return organization + "/" + name
}
