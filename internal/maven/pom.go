package maven

import (
	"fmt"

	"github.com/beevik/etree"
)

// groupPlaceholder marks dependency group ids that should resolve to the
// asset's own business group, used by templated projects.
const groupPlaceholder = "${bg_id}"

// POMUpdate describes the identity fields rewritten into a build descriptor
// before a source build is deployed.
type POMUpdate struct {
	GroupID   string
	AssetID   string
	Version   string
	Name      string
	AssetType string
}

// RewritePOM loads the descriptor, compare-and-sets the identity elements and
// the mule-maven-plugin classifier, substitutes placeholder dependency group
// ids, and writes the document back in place. A missing required element is
// an error.
func RewritePOM(path string, upd POMUpdate) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return fmt.Errorf("reading build descriptor %s: %w", path, err)
	}

	project := doc.Root()
	if project == nil || project.Tag != "project" {
		return fmt.Errorf("build descriptor %s has no project root element", path)
	}

	for tag, value := range map[string]string{
		"version":    upd.Version,
		"artifactId": upd.AssetID,
		"groupId":    upd.GroupID,
		"name":       upd.Name,
	} {
		el := project.SelectElement(tag)
		if el == nil {
			return fmt.Errorf("build descriptor %s is missing element %q", path, tag)
		}
		if el.Text() != value {
			el.SetText(value)
		}
	}

	if err := rewriteClassifier(project, path, upd.AssetType); err != nil {
		return err
	}

	substituteGroupPlaceholders(project, upd.GroupID)

	return doc.WriteToFile(path)
}

func rewriteClassifier(project *etree.Element, path, assetType string) error {
	classifier, ok := projectClassifiers[assetType]
	if !ok {
		return fmt.Errorf("asset type %q cannot be built from sources", assetType)
	}

	build := project.SelectElement("build")
	if build == nil {
		return fmt.Errorf("build descriptor %s is missing element %q", path, "build")
	}
	plugins := build.SelectElement("plugins")
	if plugins == nil {
		return fmt.Errorf("build descriptor %s is missing element %q", path, "build/plugins")
	}

	for _, plugin := range plugins.SelectElements("plugin") {
		artifact := plugin.SelectElement("artifactId")
		if artifact == nil || artifact.Text() != "mule-maven-plugin" {
			continue
		}
		configuration := plugin.SelectElement("configuration")
		if configuration == nil {
			return fmt.Errorf("build descriptor %s: mule-maven-plugin has no configuration element", path)
		}
		el := configuration.SelectElement("classifier")
		if el == nil {
			return fmt.Errorf("build descriptor %s: mule-maven-plugin has no classifier element", path)
		}
		if el.Text() != classifier {
			el.SetText(classifier)
		}
		return nil
	}

	return fmt.Errorf("build descriptor %s does not declare the mule-maven-plugin", path)
}

func substituteGroupPlaceholders(project *etree.Element, groupID string) {
	dependencies := project.SelectElement("dependencies")
	if dependencies == nil {
		return
	}
	for _, dependency := range dependencies.SelectElements("dependency") {
		if el := dependency.SelectElement("groupId"); el != nil && el.Text() == groupPlaceholder {
			el.SetText(groupID)
		}
	}
}
