// SPDX-License-Identifier: Apache-2.0
package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/hashicorp/go-hclog"
)

// Resolver loads descriptors from an instance and flattens inheritance.
type Resolver struct {
	paths  *Paths
	logger hclog.Logger
}

// NewResolver returns a Resolver reading from paths.
func NewResolver(paths *Paths, logger hclog.Logger) *Resolver {
	return &Resolver{paths: paths, logger: logger.Named("descriptor")}
}

// Load reads and decodes a single descriptor file without following inheritance.
func Load(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrMalformed, path, err)
	}

	var d Descriptor
	if err := sonic.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrMalformed, path, err)
	}
	return &d, nil
}

// Resolve loads id and merges it with every ancestor. The result is a fresh
// value; on any failure no partial descriptor is returned.
func (r *Resolver) Resolve(id string) (*Descriptor, error) {
	d, err := r.resolve(id, nil)
	if err != nil {
		return nil, err
	}
	r.logger.Info("📦 Resolved descriptor",
		"id", id,
		"lineage", strings.Join(d.Lineage, " -> "),
		"libraries", len(d.Libraries),
		"main_class", d.MainClass)
	return d, nil
}

func (r *Resolver) resolve(id string, visited []string) (*Descriptor, error) {
	chain := append(append([]string(nil), visited...), id)

	if !validID(id) {
		return nil, &Error{ID: id, Chain: chain, Err: fmt.Errorf("%w: invalid id", ErrNotFound)}
	}
	for _, seen := range visited {
		if seen == id {
			r.logger.Error("❌ Inheritance cycle", "chain", strings.Join(chain, " -> "))
			return nil, &Error{ID: id, Chain: chain, Err: ErrCycle}
		}
	}

	r.logger.Debug("🔍 Loading descriptor", "id", id, "path", r.paths.VersionJSON(id))
	d, err := Load(r.paths.VersionJSON(id))
	if err != nil {
		return nil, &Error{ID: id, Chain: chain, Err: err}
	}
	if d.ID == "" {
		d.ID = id
	}

	if d.InheritsFrom == "" {
		d.Lineage = []string{d.ID}
		return d, nil
	}

	r.logger.Debug("🔗 Following inheritance", "id", id, "parent", d.InheritsFrom)
	parent, err := r.resolve(d.InheritsFrom, chain)
	if err != nil {
		return nil, err
	}
	return Merge(parent, d), nil
}

func validID(id string) bool {
	return id != "" && id != "." && id != ".." && !strings.ContainsAny(id, `/\`)
}

// Merge flattens child over parent. Libraries are de-duplicated by merge key
// with the child's entry taking the parent's slot; argument lists are
// concatenated parent first; other fields take the child's value when set.
func Merge(parent, child *Descriptor) *Descriptor {
	merged := &Descriptor{
		ID:                 child.ID,
		Type:               pick(child.Type, parent.Type),
		MainClass:          pick(child.MainClass, parent.MainClass),
		Jar:                pick(child.Jar, parent.Jar),
		Assets:             pick(child.Assets, parent.Assets),
		MinecraftArguments: pick(child.MinecraftArguments, parent.MinecraftArguments),
		ReleaseTime:        pick(child.ReleaseTime, parent.ReleaseTime),
		AssetIndex:         parent.AssetIndex,
		JavaVersion:        parent.JavaVersion,
		Libraries:          mergeLibraries(parent.Libraries, child.Libraries),
		Arguments:          mergeArguments(parent.Arguments, child.Arguments),
		Lineage:            append([]string{child.ID}, parent.Lineage...),
	}
	if child.AssetIndex != nil {
		merged.AssetIndex = child.AssetIndex
	}
	if child.JavaVersion != nil {
		merged.JavaVersion = child.JavaVersion
	}
	return merged
}

func pick(child, parent string) string {
	if child != "" {
		return child
	}
	return parent
}

// mergeKey identifies a library across inheritance levels by
// group:artifact:version; the classifier is not part of the key.
func mergeKey(l *Library) (string, bool) {
	c, ok := ParseCoordinate(l.Name)
	if !ok {
		return "", false
	}
	return c.Key(), true
}

func mergeLibraries(parent, child []Library) []Library {
	out := make([]Library, 0, len(parent)+len(child))
	index := make(map[string]int, len(parent)+len(child))

	for _, lib := range parent {
		if key, ok := mergeKey(&lib); ok {
			index[key] = len(out)
		}
		out = append(out, lib)
	}

	for _, lib := range child {
		key, ok := mergeKey(&lib)
		if !ok {
			out = append(out, lib)
			continue
		}
		if i, seen := index[key]; seen {
			out[i] = lib
			continue
		}
		index[key] = len(out)
		out = append(out, lib)
	}
	return out
}

func mergeArguments(parent, child *Arguments) *Arguments {
	if parent == nil && child == nil {
		return nil
	}
	merged := &Arguments{}
	if parent != nil {
		merged.JVM = append(merged.JVM, parent.JVM...)
		merged.Game = append(merged.Game, parent.Game...)
	}
	if child != nil {
		merged.JVM = append(merged.JVM, child.JVM...)
		merged.Game = append(merged.Game, child.Game...)
	}
	return merged
}
