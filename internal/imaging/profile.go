package imaging

import (
	"fmt"
	"strings"
)

// Profile bundles the resize bounds, encode quality and largest accepted
// source size for a batch of uploads.
type Profile struct {
	Name        string
	MaxWidth    int
	MaxHeight   int
	Quality     int
	MaxFileSize int64
}

const mb = 1024 * 1024

var (
	ProfileHigh   = Profile{Name: "high", MaxWidth: 1600, MaxHeight: 1600, Quality: 90, MaxFileSize: 15 * mb}
	ProfileMedium = Profile{Name: "medium", MaxWidth: 1000, MaxHeight: 1000, Quality: 80, MaxFileSize: 10 * mb}
	ProfileLow    = Profile{Name: "low", MaxWidth: 640, MaxHeight: 640, Quality: 70, MaxFileSize: 5 * mb}
)

// ProfileByName looks up a profile by its case-insensitive name.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "high":
		return ProfileHigh, nil
	case "medium", "":
		return ProfileMedium, nil
	case "low":
		return ProfileLow, nil
	default:
		return Profile{}, fmt.Errorf("unknown image profile %q", name)
	}
}
