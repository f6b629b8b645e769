// SPDX-License-Identifier: MPL-2.0

package manifest

import "fmt"

func bindLib(v any, key string) (*Target, error) {
	t, err := bindTable(v, key)
	if err != nil {
		return nil, err
	}
	lib, err := bindTarget(t, key, TargetLib)
	if err != nil {
		return nil, err
	}
	return &lib, nil
}

func bindTargets(v any, key string, kind TargetKind) ([]Target, error) {
	tables, err := bindTableArray(v, key)
	if err != nil {
		return nil, err
	}
	out := make([]Target, 0, len(tables))
	seen := make(map[string]struct{}, len(tables))
	for i, t := range tables {
		k := fmt.Sprintf("%s[%d]", key, i)
		target, err := bindTarget(t, k, kind)
		if err != nil {
			return nil, err
		}
		if target.Name == "" {
			return nil, Errorf(ErrSchemaViolation, joinKey(k, "name"), "%s target must have a name", kind)
		}
		if _, dup := seen[target.Name]; dup {
			return nil, duplicateTarget(kind, target.Name)
		}
		seen[target.Name] = struct{}{}
		out = append(out, target)
	}
	return out, nil
}

//nolint:gocyclo // flat dispatch over target keys
func bindTarget(t map[string]any, prefix string, kind TargetKind) (Target, error) {
	target := Target{Kind: kind}
	var err error
	for _, key := range sortedKeys(t) {
		val := t[key]
		k := joinKey(prefix, key)
		switch key {
		case "name":
			target.Name, err = bindString(val, k)
		case "path":
			target.Path, err = bindString(val, k)
		case "required-features":
			target.RequiredFeatures, err = bindStrings(val, k)
		case "crate-type", "crate_type":
			target.CrateTypes, err = bindStrings(val, k)
		case "edition":
			target.Edition, err = bindEdition(val, k)
		case "test":
			target.Test, err = bindBoolPtr(val, k)
		case "doctest":
			target.Doctest, err = bindBoolPtr(val, k)
		case "bench":
			target.Bench, err = bindBoolPtr(val, k)
		case "doc":
			target.Doc, err = bindBoolPtr(val, k)
		case "harness":
			target.Harness, err = bindBoolPtr(val, k)
		case "plugin":
			target.Plugin, err = bindBoolPtr(val, k)
		case "proc-macro", "proc_macro":
			target.ProcMacro, err = bindBoolPtr(val, k)
		}
		if err != nil {
			return Target{}, err
		}
	}
	return target, nil
}

func bindProfiles(v any, prefix string) (Profiles, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return Profiles{}, err
	}
	var p Profiles
	for _, name := range sortedKeys(t) {
		val := t[name]
		profile, err := bindProfile(val, joinKey(prefix, name))
		if err != nil {
			return Profiles{}, err
		}
		switch name {
		case "release":
			p.Release = profile
		case "dev":
			p.Dev = profile
		case "test":
			p.Test = profile
		case "bench":
			p.Bench = profile
		case "doc":
			p.Doc = profile
		default:
			if p.Custom == nil {
				p.Custom = make(map[string]*Profile)
			}
			p.Custom[name] = profile
		}
	}
	return p, nil
}

//nolint:gocyclo // flat dispatch over profile keys
func bindProfile(v any, prefix string) (*Profile, error) {
	t, err := bindTable(v, prefix)
	if err != nil {
		return nil, err
	}
	p := &Profile{}
	for _, key := range sortedKeys(t) {
		val := t[key]
		k := joinKey(prefix, key)
		switch key {
		case "opt-level":
			p.OptLevel, err = bindOptLevel(val, k)
		case "debug":
			var d DebugSetting
			if d, err = bindDebug(val, k); err == nil {
				p.Debug = &d
			}
		case "strip":
			var s StripSetting
			if s, err = bindStrip(val, k); err == nil {
				p.Strip = &s
			}
		case "lto":
			var l LTOSetting
			if l, err = bindLTO(val, k); err == nil {
				p.LTO = &l
			}
		case "panic":
			p.Panic, err = bindString(val, k)
		case "codegen-units":
			var n int64
			if n, err = bindInt(val, k); err == nil {
				p.CodegenUnits = &n
			}
		case "incremental":
			p.Incremental, err = bindBoolPtr(val, k)
		case "overflow-checks":
			p.OverflowChecks, err = bindBoolPtr(val, k)
		case "debug-assertions":
			p.DebugAssertions, err = bindBoolPtr(val, k)
		case "rpath":
			p.Rpath, err = bindBoolPtr(val, k)
		case "split-debuginfo":
			p.SplitDebuginfo, err = bindString(val, k)
		case "inherits":
			p.Inherits, err = bindString(val, k)
		case "package":
			p.Package, err = bindTable(val, k)
		case "build-override":
			p.BuildOverride = val
		}
		if err != nil {
			return nil, err
		}
	}
	return p, nil
}

func bindOptLevel(v any, key string) (string, error) {
	switch val := v.(type) {
	case int64:
		if val < 0 || val > 3 {
			return "", Errorf(ErrSchemaViolation, key, "opt-level must be 0-3, \"s\" or \"z\"")
		}
		return fmt.Sprint(val), nil
	case string:
		switch val {
		case "0", "1", "2", "3", "s", "z":
			return val, nil
		}
		return "", Errorf(ErrSchemaViolation, key, "opt-level must be 0-3, \"s\" or \"z\"")
	default:
		return "", shapeError(key, "an integer or a string", v)
	}
}

func bindDebug(v any, key string) (DebugSetting, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return DebugFull, nil
		}
		return DebugNone, nil
	case int64:
		switch val {
		case 0:
			return DebugNone, nil
		case 1:
			return DebugLimited, nil
		case 2:
			return DebugFull, nil
		}
		return "", Errorf(ErrSchemaViolation, key, "debug level must be 0, 1 or 2")
	case string:
		d := DebugSetting(val)
		switch d {
		case DebugNone, DebugLineDirectivesOnly, DebugLineTablesOnly, DebugLimited, DebugFull:
			return d, nil
		}
		return "", Errorf(ErrSchemaViolation, key, "unknown debug setting %q", val)
	default:
		return "", shapeError(key, "a boolean, an integer or a string", v)
	}
}

func bindStrip(v any, key string) (StripSetting, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return StripSymbols, nil
		}
		return StripNone, nil
	case string:
		s := StripSetting(val)
		switch s {
		case StripNone, StripDebuginfo, StripSymbols:
			return s, nil
		}
		return "", Errorf(ErrSchemaViolation, key, "unknown strip setting %q", val)
	default:
		return "", shapeError(key, "a boolean or a string", v)
	}
}

func bindLTO(v any, key string) (LTOSetting, error) {
	switch val := v.(type) {
	case bool:
		if val {
			return LTOFat, nil
		}
		return LTOThinLocal, nil
	case string:
		l := LTOSetting(val)
		switch l {
		case LTOFat, LTOThin, LTOOff:
			return l, nil
		}
		return "", Errorf(ErrSchemaViolation, key, "unknown lto setting %q", val)
	default:
		return "", shapeError(key, "a boolean or a string", v)
	}
}
