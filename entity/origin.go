package entity

import (
	"net/url"
	"runtime/debug"
)

// Origin identifies the software publishing discovery payloads. Home Assistant requires it for device based discovery
// and writes it to its event log when entities are discovered.
type Origin struct {
	Name            string   `json:"name"`
	SoftwareVersion string   `json:"sw,omitempty"`
	SupportURL      *url.URL `json:"url,omitempty"`
}

var (
	supportURL, _ = url.Parse("https://github.com/govje/govje-weather")

	// DefaultOrigin is used by Device.Configure when Device.Origin is nil.
	DefaultOrigin = Origin{
		Name:            "govje-weather",
		SoftwareVersion: version(),
		SupportURL:      supportURL,
	}
)

func version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "devel"
	}

	return info.Main.Version
}
