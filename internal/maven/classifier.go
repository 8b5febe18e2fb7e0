package maven

import (
	"fmt"
	"path/filepath"
)

// artifactKey selects a publishing classifier from the declared asset type
// and the payload file extension.
type artifactKey struct {
	AssetType string
	Extension string
}

// classifiers is the fixed (type, extension) -> classifier table. Mule 3
// connectors ship as zip, everything else as jar.
var classifiers = map[artifactKey]string{
	{AssetType: "connector", Extension: ".zip"}: "studio-plugin",
	{AssetType: "extension", Extension: ".jar"}: "mule-plugin",
	{AssetType: "policy", Extension: ".jar"}:    "mule-policy",
	{AssetType: "example", Extension: ".jar"}:   "mule-application-example",
	{AssetType: "template", Extension: ".jar"}:  "mule-application-template",
}

// projectClassifiers selects the mule-maven-plugin classifier written into a
// rewritten build descriptor for source builds.
var projectClassifiers = map[string]string{
	"example":  "mule-application-example",
	"template": "mule-application-template",
}

// ClassifierFor returns the deployment classifier for the given asset type
// and payload file. Any pair outside the table is a configuration error.
func ClassifierFor(assetType, filePath string) (string, error) {
	ext := filepath.Ext(filePath)
	classifier, ok := classifiers[artifactKey{AssetType: assetType, Extension: ext}]
	if !ok {
		return "", fmt.Errorf("invalid file extension %q for %s asset type (only .zip for mule 3 and .jar for mule 4 are supported)", ext, assetType)
	}
	return classifier, nil
}
