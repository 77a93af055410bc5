// Package members loads the static organization member directory used to
// name the sender of member messages.
package members

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Member is one entry of the directory file. The file historically uses
// "nome" for the display name; "name" is accepted too.
type Member struct {
	ID   string `json:"id" yaml:"id"`
	Nome string `json:"nome" yaml:"nome"`
	Name string `json:"name" yaml:"name"`
}

func (m Member) displayName() string {
	if m.Nome != "" {
		return m.Nome
	}
	return m.Name
}

// Directory maps member ids to display names. It is never mutated after
// Load returns, so it can be shared freely.
type Directory struct {
	names map[string]string
}

// Empty returns a directory that resolves nothing.
func Empty() *Directory {
	return &Directory{names: map[string]string{}}
}

// New builds a directory from members, skipping entries without an id.
func New(list []Member) *Directory {
	d := Empty()
	for _, m := range list {
		if m.ID == "" {
			continue
		}
		d.names[m.ID] = m.displayName()
	}
	return d
}

// Load reads the directory file at path. JSON is the default; .yaml and
// .yml files are parsed as YAML. On any failure it returns an empty
// directory along with the error, so callers can log and carry on.
func Load(path string) (*Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), fmt.Errorf("read members file: %w", err)
	}

	var list []Member
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &list)
	default:
		err = json.Unmarshal(data, &list)
	}
	if err != nil {
		return Empty(), fmt.Errorf("parse members file: %w", err)
	}
	return New(list), nil
}

// DisplayName returns the name for id and whether it was found.
func (d *Directory) DisplayName(id string) (string, bool) {
	if d == nil {
		return "", false
	}
	name, ok := d.names[id]
	return name, ok
}

// Len returns the number of members loaded.
func (d *Directory) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}
