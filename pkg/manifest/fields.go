// SPDX-License-Identifier: MPL-2.0

package manifest

// FieldDescriptor describes one inheritable package field. The table returned
// by InheritableFields is the single place that lists what a member may take
// from [workspace.package].
type FieldDescriptor struct {
	// Key is the manifest key, e.g. "license-file".
	Key string
	// PathValued marks fields holding a path relative to the manifest directory.
	PathValued bool

	delegated func(*SharedFields) bool
	set       func(*SharedFields) bool
	inherit   func(dst, src *SharedFields)
	rebase    func(s *SharedFields, fn func(string) string)
}

var sharedFieldTable = []FieldDescriptor{
	field("version", func(s *SharedFields) *Inheritable[string] { return &s.Version }),
	field("edition", func(s *SharedFields) *Inheritable[Edition] { return &s.Edition }),
	field("rust-version", func(s *SharedFields) *Inheritable[string] { return &s.RustVersion }),
	field("authors", func(s *SharedFields) *Inheritable[[]string] { return &s.Authors }),
	field("description", func(s *SharedFields) *Inheritable[string] { return &s.Description }),
	field("documentation", func(s *SharedFields) *Inheritable[string] { return &s.Documentation }),
	field("homepage", func(s *SharedFields) *Inheritable[string] { return &s.Homepage }),
	field("license", func(s *SharedFields) *Inheritable[string] { return &s.License }),
	pathField("license-file", func(s *SharedFields) *Inheritable[string] { return &s.LicenseFile },
		func(v string, fn func(string) string) string { return fn(v) }),
	field("repository", func(s *SharedFields) *Inheritable[string] { return &s.Repository }),
	pathField("readme", func(s *SharedFields) *Inheritable[OptionalFile] { return &s.Readme },
		func(v OptionalFile, fn func(string) string) OptionalFile {
			if v.Path != "" {
				v.Path = fn(v.Path)
			}
			return v
		}),
	field("keywords", func(s *SharedFields) *Inheritable[[]string] { return &s.Keywords }),
	field("categories", func(s *SharedFields) *Inheritable[[]string] { return &s.Categories }),
	field("exclude", func(s *SharedFields) *Inheritable[[]string] { return &s.Exclude }),
	field("include", func(s *SharedFields) *Inheritable[[]string] { return &s.Include }),
	field("publish", func(s *SharedFields) *Inheritable[Publish] { return &s.Publish }),
}

func field[T any](key string, get func(*SharedFields) *Inheritable[T]) FieldDescriptor {
	return FieldDescriptor{
		Key:       key,
		delegated: func(s *SharedFields) bool { return get(s).IsDelegated() },
		set:       func(s *SharedFields) bool { return get(s).IsSet() },
		inherit:   func(dst, src *SharedFields) { *get(dst) = cloneInheritable(*get(src)) },
	}
}

func pathField[T any](key string, get func(*SharedFields) *Inheritable[T], rebase func(T, func(string) string) T) FieldDescriptor {
	d := field(key, get)
	d.PathValued = true
	d.rebase = func(s *SharedFields, fn func(string) string) {
		if v := get(s); v.IsSet() {
			*v = Local(rebase(v.value, fn))
		}
	}
	return d
}

// InheritableFields lists the fields a package may delegate to the workspace.
func (p *Package) InheritableFields() []FieldDescriptor {
	return sharedFieldTable
}

// DelegatedFields returns the keys of all fields still delegated to the workspace.
func (p *Package) DelegatedFields() []string {
	return p.SharedFields.DelegatedFields()
}

// DelegatedFields returns the keys of all delegated fields.
func (s *SharedFields) DelegatedFields() []string {
	var keys []string
	for _, d := range sharedFieldTable {
		if d.delegated(s) {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Delegated reports whether the field is delegated in s.
func (d FieldDescriptor) Delegated(s *SharedFields) bool { return d.delegated(s) }

// IsSet reports whether the field holds a local value in s.
func (d FieldDescriptor) IsSet(s *SharedFields) bool { return d.set(s) }

// Inherit copies the field from src into dst.
func (d FieldDescriptor) Inherit(dst, src *SharedFields) { d.inherit(dst, src) }

// Rebase rewrites a path-valued field in s with fn. It is a no-op for other fields.
func (d FieldDescriptor) Rebase(s *SharedFields, fn func(string) string) {
	if d.rebase != nil {
		d.rebase(s, fn)
	}
}

func cloneInheritable[T any](v Inheritable[T]) Inheritable[T] {
	switch value := any(v.value).(type) {
	case []string:
		v.value = any(cloneStrings(value)).(T)
	case Publish:
		value.Registries = cloneStrings(value.Registries)
		v.value = any(value).(T)
	}
	return v
}
