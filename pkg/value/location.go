// Copyright 2024 The OSS Rebuild Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package value

// SpecKind enumerates the LocationSpecifier variants.
type SpecKind int

const (
	SpecFilesystem SpecKind = iota
	SpecVariable
	SpecArtifact
	SpecFilesystemAnyUnderDir
	SpecArtifactAnyFilename
	SpecConsole
	SpecInstalled
	SpecParameterPlaceholder
)

// LocationSpecifier is the tagged variant describing "what" within a scope a
// Location names.
type LocationSpecifier struct {
	Kind SpecKind

	// Filesystem, FilesystemAnyUnderDir, Installed, ParameterPlaceholderLocation
	Path *Value
	// Variable
	Name *Value
	// Artifact
	ArtifactName *Value
	ArtifactFile *Value
	// ArtifactAnyFilename
	FilenameOf *Value
}

func Filesystem(path *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecFilesystem, Path: path}
}
func Variable(name *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecVariable, Name: name}
}
func Artifact(name, file *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecArtifact, ArtifactName: name, ArtifactFile: file}
}
func FilesystemAnyUnderDir(path *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecFilesystemAnyUnderDir, Path: path}
}
func ArtifactAnyFilename(name *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecArtifactAnyFilename, FilenameOf: name}
}
func Console() LocationSpecifier { return LocationSpecifier{Kind: SpecConsole} }
func Installed(name *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecInstalled, Path: name}
}
func ParameterPlaceholderLocation(name *Value) LocationSpecifier {
	return LocationSpecifier{Kind: SpecParameterPlaceholder, Path: name}
}

// Equal reports structural equality of two specifiers (values compared
// structurally, per §4.A).
func (s LocationSpecifier) Equal(o LocationSpecifier) bool {
	if s.Kind != o.Kind {
		return false
	}
	switch s.Kind {
	case SpecFilesystem, SpecFilesystemAnyUnderDir, SpecInstalled, SpecParameterPlaceholder:
		return s.Path.Equal(o.Path)
	case SpecVariable:
		return s.Name.Equal(o.Name)
	case SpecArtifact:
		return s.ArtifactName.Equal(o.ArtifactName) && s.ArtifactFile.Equal(o.ArtifactFile)
	case SpecArtifactAnyFilename:
		return s.FilenameOf.Equal(o.FilenameOf)
	case SpecConsole:
		return true
	default:
		return false
	}
}

func (s LocationSpecifier) sexpr(forKey bool) string {
	switch s.Kind {
	case SpecFilesystem:
		return "$Filesystem(" + s.Path.sexpr(forKey) + ")"
	case SpecVariable:
		return "$Variable(" + s.Name.sexpr(forKey) + ")"
	case SpecArtifact:
		return "$Artifact(" + s.ArtifactName.sexpr(forKey) + "," + s.ArtifactFile.sexpr(forKey) + ")"
	case SpecFilesystemAnyUnderDir:
		return "$FilesystemAnyUnderDir(" + s.Path.sexpr(forKey) + ")"
	case SpecArtifactAnyFilename:
		return "$ArtifactAnyFilename(" + s.FilenameOf.sexpr(forKey) + ")"
	case SpecConsole:
		return "$Console"
	case SpecInstalled:
		return "$Installed(" + s.Path.sexpr(forKey) + ")"
	case SpecParameterPlaceholder:
		return "$ParameterPlaceholderLocation(" + s.Path.sexpr(forKey) + ")"
	default:
		return "$UnknownSpec"
	}
}

// Location is a pair (scope, specifier). Locations compare by structural
// equality of the specifier plus object identity of the scope.
type Location struct {
	Scope *Scope
	Spec  LocationSpecifier
}

// NewLocation constructs a Location.
func NewLocation(scope *Scope, spec LocationSpecifier) *Location {
	return &Location{Scope: scope, Spec: spec}
}

// Equal reports whether l and o name the same location: same scope object
// (or both nil) and structurally-equal specifiers.
func (l *Location) Equal(o *Location) bool {
	if l == o {
		return true
	}
	if l == nil || o == nil {
		return false
	}
	return l.Scope == o.Scope && l.Spec.Equal(o.Spec)
}

// String renders the debug s-expression `[ $Scope("id") , Spec ]`.
func (l *Location) String() string { return l.sexpr(false) }

// Key renders a stable map key. Because scope identity can't round-trip
// through a string, Key uses the scope's Name — callers that need to
// disambiguate same-named-but-distinct scopes must key maps on *Location
// pointers or a (scope-pointer, spec-key) pair instead of this string form.
func (l *Location) Key() string { return l.sexpr(true) }

func (l *Location) sexpr(forKey bool) string {
	if l == nil {
		return "$nil"
	}
	return "[" + l.Scope.String() + ", " + l.Spec.sexpr(forKey) + "]"
}
