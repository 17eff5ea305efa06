package jvm

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a class file major:minor pair.
type Version struct {
	Major uint16
	Minor uint16
}

// PreviewMinor marks a class file compiled with preview features.
const PreviewMinor = 0xFFFF

// Version gates for attributes and frames.
var (
	VersionModule              = Version{53, 0}
	VersionNest                = Version{55, 0}
	VersionRecord              = Version{58, PreviewMinor}
	VersionPermittedSubclasses = Version{59, PreviewMinor}
	VersionEarlyLarval         = Version{67, PreviewMinor}
	VersionStackMapTable       = Version{50, 0}
)

func (v Version) IsZero() bool { return v.Major == 0 && v.Minor == 0 }

func (v Version) IsPreview() bool { return v.Minor == PreviewMinor }

// AtLeast reports whether v is ordered at or after min.
func (v Version) AtLeast(min Version) bool {
	if v.Major != min.Major {
		return v.Major > min.Major
	}
	return v.Minor >= min.Minor
}

// AllowsEarlyLarval reports whether early_larval frames are legal: a preview
// class file of a release that carries value types.
func (v Version) AllowsEarlyLarval() bool {
	return v.IsPreview() && v.Major >= VersionEarlyLarval.Major
}

func (v Version) String() string {
	return fmt.Sprintf("%d:%d", v.Major, v.Minor)
}

// ParseVersion accepts "55", "55:0" or "55.0".
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	major, minor, found := strings.Cut(s, ":")
	if !found {
		major, minor, found = strings.Cut(s, ".")
	}
	ma, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("version %q: bad major: %w", s, err)
	}
	v := Version{Major: uint16(ma)}
	if found {
		mi, err := strconv.ParseUint(minor, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("version %q: bad minor: %w", s, err)
		}
		v.Minor = uint16(mi)
	}
	return v, nil
}
