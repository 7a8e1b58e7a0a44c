package android

import (
	"encoding/xml"
	"fmt"
)

// Permission holds data about all the declared permissions in an AndroidManifest.xml file
type Permission struct {
	Name     string `xml:"name,attr"`
	Required string `xml:"required,attr"`
}

// SDKInfo holds information about the target and compilation SDK of the given App
type SDKInfo struct {
	MinimumSDKVersion string `xml:"minSdkVersion,attr"`
	TargetSDKVersion  string `xml:"targetSdkVersion,attr"`
	MaximumSDKVersion string `xml:"maxSdkVersion,attr"`
}

// IntentAction holds data about the declared Actions that can be performed in given Activity.
type IntentAction struct {
	Name string `xml:"name,attr"`
}

// IntentCategory is the Activity's category.
type IntentCategory struct {
	Name string `xml:"name,attr"`
}

// IntentFilter holds imformational data about the `intention-filter` tag for the given Activity.
type IntentFilter struct {
	Categories IntentCategory `xml:"category"`
	Actions    []IntentAction `xml:"action"`
}

// Activity represents an Activity entry in the manifest file
type Activity struct {
	Name         string       `xml:"name,attr"`
	IntentFilter IntentFilter `xml:"intent-filter"`
}

// BroadcastReceiver represents a broadcast receiver entry in the manifest file
type BroadcastReceiver struct {
	Name       string `xml:"name,attr"`
	Enabled    string `xml:"enabled,attr"`
	IsExported string `xml:"exported,attr"`
	Permission string `xml:"permission,attr"`
}

// Service represents a Service entry in the manifest file
type Service struct {
	Name       string `xml:"name,attr"`
	IsExported string `xml:"exported,attr"`
	Permission string `xml:"permission,attr"`
}

// ApplicationInfo holds all the data about the application components of the app
type ApplicationInfo struct {
	Name               string              `xml:"name,attr"`
	AllowADBBackup     string              `xml:"allowBackup,attr"`
	Activities         []Activity          `xml:"activity"`
	BroadcastReceivers []BroadcastReceiver `xml:"receiver"`
	Services           []Service           `xml:"service"`
}

// Manifest is a marshaled version of all the data in the AndroidManifest.xml file
type Manifest struct {
	PackageName string          `xml:"package,attr"`
	SDKInfo     SDKInfo         `xml:"uses-sdk"`
	Application ApplicationInfo `xml:"application"`
	Permissions []Permission    `xml:"uses-permission"`
}

// ParseManifest decodes an AndroidManifest.xml document into its typed representation. Rules
// that need the xpath-level view of the document (platforms.StructuredDataRule) operate on
// the raw file directly instead; ParseManifest exists for analyzers that want the declared
// permissions, activities or SDK bounds as Go values rather than XML nodes.
func ParseManifest(content []byte) (*Manifest, error) {
	var m Manifest
	if err := xml.Unmarshal(content, &m); err != nil {
		return nil, fmt.Errorf("decode android manifest: %w", err)
	}

	return &m, nil
}
