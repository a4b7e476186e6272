// SPDX-License-Identifier: Apache-2.0
// Package descriptor loads version descriptors and flattens inheritance chains.
package descriptor

// Descriptor is one launchable version. A merged descriptor is a plain value
// produced per launch; nothing here is shared or mutated after Resolve returns.
type Descriptor struct {
	ID                 string       `json:"id"`
	InheritsFrom       string       `json:"inheritsFrom,omitempty"`
	Type               string       `json:"type,omitempty"`
	MainClass          string       `json:"mainClass,omitempty"`
	Jar                string       `json:"jar,omitempty"`
	Assets             string       `json:"assets,omitempty"`
	AssetIndex         *AssetIndex  `json:"assetIndex,omitempty"`
	JavaVersion        *JavaVersion `json:"javaVersion,omitempty"`
	Libraries          []Library    `json:"libraries,omitempty"`
	Arguments          *Arguments   `json:"arguments,omitempty"`
	MinecraftArguments string       `json:"minecraftArguments,omitempty"`
	ReleaseTime        string       `json:"releaseTime,omitempty"`

	// Lineage lists the ids of the merged chain, leaf first. Set by Resolve.
	Lineage []string `json:"-"`
}

// AssetIndex names the asset index the game expects.
type AssetIndex struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// JavaVersion is an explicit runtime requirement.
type JavaVersion struct {
	Component    string `json:"component,omitempty"`
	MajorVersion int    `json:"majorVersion"`
}

// Arguments holds the structured argument lists used by modern descriptors.
type Arguments struct {
	Game []Argument `json:"game,omitempty"`
	JVM  []Argument `json:"jvm,omitempty"`
}

// Argument is either an unconditional token or a group of tokens gated by rules.
type Argument struct {
	Values []string
	Rules  []Rule
}

// Library is a single library reference.
type Library struct {
	Name      string            `json:"name"`
	URL       string            `json:"url,omitempty"`
	Downloads *Downloads        `json:"downloads,omitempty"`
	Rules     []Rule            `json:"rules,omitempty"`
	Natives   map[string]string `json:"natives,omitempty"`
	Extract   *ExtractRules     `json:"extract,omitempty"`
}

// Downloads describes where a library's archives live.
type Downloads struct {
	Artifact    *Artifact            `json:"artifact,omitempty"`
	Classifiers map[string]*Artifact `json:"classifiers,omitempty"`
}

// Artifact is one downloadable archive.
type Artifact struct {
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
	SHA1 string `json:"sha1,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// ExtractRules lists archive path prefixes that must not be extracted.
type ExtractRules struct {
	Exclude []string `json:"exclude,omitempty"`
}

// Rule gates a library or argument on the host platform and enabled features.
type Rule struct {
	Action   string          `json:"action"`
	OS       *OSRule         `json:"os,omitempty"`
	Features map[string]bool `json:"features,omitempty"`
}

// OSRule is the platform predicate of a Rule.
type OSRule struct {
	Name    string `json:"name,omitempty"`
	Arch    string `json:"arch,omitempty"`
	Version string `json:"version,omitempty"`
}

// JVMArguments returns the structured JVM list, or nil when the chain has none.
func (d *Descriptor) JVMArguments() []Argument {
	if d.Arguments == nil {
		return nil
	}
	return d.Arguments.JVM
}

// GameArguments returns the structured game list, or nil when the chain has none.
func (d *Descriptor) GameArguments() []Argument {
	if d.Arguments == nil {
		return nil
	}
	return d.Arguments.Game
}

// AssetIndexName returns the asset index id, falling back to the assets field.
func (d *Descriptor) AssetIndexName() string {
	if d.AssetIndex != nil && d.AssetIndex.ID != "" {
		return d.AssetIndex.ID
	}
	return d.Assets
}

// JarID returns the id whose directory holds the primary archive.
func (d *Descriptor) JarID() string {
	if d.Jar != "" {
		return d.Jar
	}
	return d.ID
}
