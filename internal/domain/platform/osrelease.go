package platform

import (
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// OSRelease is the subset of os-release(5) the installer cares about.
type OSRelease struct {
	ID              string
	IDLike          []string
	VersionID       string
	VersionCodename string
	PrettyName      string
}

// ReadOSRelease parses an os-release file.
func ReadOSRelease(path string) (OSRelease, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return OSRelease{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return fromSection(cfg.Section("")), nil
}

// ParseOSRelease parses os-release content.
func ParseOSRelease(data []byte) (OSRelease, error) {
	cfg, err := ini.Load(data)
	if err != nil {
		return OSRelease{}, fmt.Errorf("failed to parse os-release: %w", err)
	}
	return fromSection(cfg.Section("")), nil
}

func fromSection(s *ini.Section) OSRelease {
	value := func(key string) string {
		return unquote(s.Key(key).String())
	}

	rel := OSRelease{
		ID:              strings.ToLower(value("ID")),
		VersionID:       value("VERSION_ID"),
		VersionCodename: value("VERSION_CODENAME"),
		PrettyName:      value("PRETTY_NAME"),
	}
	if like := value("ID_LIKE"); like != "" {
		rel.IDLike = strings.Fields(strings.ToLower(like))
	}
	return rel
}

func unquote(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

// Is reports whether ID equals distro. Derivatives listing distro only in
// ID_LIKE do not match.
func (r OSRelease) Is(distro string) bool {
	return r.ID == strings.ToLower(distro)
}

// String returns PRETTY_NAME, or ID and VERSION_ID when unset.
func (r OSRelease) String() string {
	if r.PrettyName != "" {
		return r.PrettyName
	}
	return strings.TrimSpace(r.ID + " " + r.VersionID)
}
