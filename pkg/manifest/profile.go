// SPDX-License-Identifier: MPL-2.0

package manifest

const (
	DebugNone               DebugSetting = "none"
	DebugLineDirectivesOnly DebugSetting = "line-directives-only"
	DebugLineTablesOnly     DebugSetting = "line-tables-only"
	DebugLimited            DebugSetting = "limited"
	DebugFull               DebugSetting = "full"

	StripNone      StripSetting = "none"
	StripDebuginfo StripSetting = "debuginfo"
	StripSymbols   StripSetting = "symbols"

	// LTOThinLocal is what `lto = false` means.
	LTOThinLocal LTOSetting = "thin-local"
	LTOFat       LTOSetting = "fat"
	LTOThin      LTOSetting = "thin"
	LTOOff       LTOSetting = "off"
)

type (
	// DebugSetting is the normalized `debug` profile value.
	DebugSetting string
	// StripSetting is the normalized `strip` profile value.
	StripSetting string
	// LTOSetting is the normalized `lto` profile value.
	LTOSetting string

	// Profiles is the [profile] table.
	Profiles struct {
		Release *Profile
		Dev     *Profile
		Test    *Profile
		Bench   *Profile
		Doc     *Profile
		// Custom holds user-defined profiles.
		Custom map[string]*Profile
	}

	// Profile is one compiler settings profile.
	Profile struct {
		// OptLevel is "0" to "3", "s" or "z".
		OptLevel        string
		Debug           *DebugSetting
		Strip           *StripSetting
		LTO             *LTOSetting
		Panic           string
		CodegenUnits    *int64
		Incremental     *bool
		OverflowChecks  *bool
		DebugAssertions *bool
		Rpath           *bool
		SplitDebuginfo  string
		Inherits        string
		// Package holds per-dependency overrides, kept as written.
		Package       map[string]any
		BuildOverride any
	}

	// Lint is one lint level setting.
	Lint struct {
		Level    string
		Priority int64
	}

	// LintGroups maps a tool (rust, clippy, rustdoc) to its lint settings.
	LintGroups map[string]map[string]Lint

	// Lints is the [lints] table.
	Lints struct {
		// Workspace is the `workspace = true` delegation marker.
		Workspace bool
		Groups    LintGroups
	}
)

// Named returns the profile with the given name, built-in or custom.
func (p Profiles) Named(name string) *Profile {
	switch name {
	case "release":
		return p.Release
	case "dev":
		return p.Dev
	case "test":
		return p.Test
	case "bench":
		return p.Bench
	case "doc":
		return p.Doc
	default:
		return p.Custom[name]
	}
}
