package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPlatform is returned when a platform selector is not one of the supported platforms.
var ErrInvalidPlatform = errors.New("invalid platform")

// Platform identifies the operating system a threat model is written for.
type Platform string

const (
	PlatformMacOS   Platform = "macOS"
	PlatformWindows Platform = "Windows"
	PlatformLinux   Platform = "Linux"
	PlatformIOS     Platform = "iOS"
	PlatformAndroid Platform = "Android"
)

// Platforms returns every supported platform.
func Platforms() []Platform {
	return []Platform{PlatformMacOS, PlatformWindows, PlatformLinux, PlatformIOS, PlatformAndroid}
}

// ParsePlatform accepts a platform name and normalizes its casing.
func ParsePlatform(raw string) (Platform, error) {
	raw = strings.TrimSpace(raw)
	for _, p := range Platforms() {
		if strings.EqualFold(raw, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidPlatform, raw, platformList())
}

func platformList() string {
	names := make([]string, 0, len(Platforms()))
	for _, p := range Platforms() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
