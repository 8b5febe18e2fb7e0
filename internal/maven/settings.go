package maven

import (
	"path/filepath"

	"github.com/beevik/etree"
)

// tokenUsername is the synthetic username the distribution repository expects
// when the password carries a session access token.
const tokenUsername = "~~~Token~~~"

// serverIDs are the repository server ids a deploy may authenticate against.
var serverIDs = []string{"Repository", "anypoint-exchange", "anypoint-exchange-v2"}

// SettingsPath returns the deterministic location of the generated user
// settings file for one asset. The file is keyed by the composite identifier
// so concurrent runs for different assets never collide.
func SettingsPath(dir, groupID, assetID string) string {
	return filepath.Join(dir, groupID+"_"+assetID+"_settings.xml")
}

// WriteSettings generates a maven user settings file embedding the bearer
// token as credentials for each known server id. The file is not cleaned up
// afterwards; the token it embeds is session-scoped.
func WriteSettings(path, bearer string) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	settings := doc.CreateElement("settings")
	settings.CreateAttr("xmlns", "http://maven.apache.org/SETTINGS/1.0.0")
	settings.CreateAttr("xmlns:xsi", "http://www.w3.org/2001/XMLSchema-instance")
	settings.CreateAttr("xsi:schemaLocation", "http://maven.apache.org/SETTINGS/1.0.0 http://maven.apache.org/xsd/settings-1.0.0.xsd")

	servers := settings.CreateElement("servers")
	for _, id := range serverIDs {
		server := servers.CreateElement("server")
		server.CreateElement("id").SetText(id)
		server.CreateElement("username").SetText(tokenUsername)
		server.CreateElement("password").SetText(bearer)
	}

	doc.Indent(4)
	return doc.WriteToFile(path)
}
