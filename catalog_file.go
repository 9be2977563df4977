package accesskit

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// catalogFile is the on-disk form of a catalog:
//
//	version: marketplace-2024.1
//	roles:
//	  - id: buyer
//	    name: Buyer
//	    type: buyer
//	    permissions: ["service:view", "booking:*"]
type catalogFile struct {
	Version string        `yaml:"version"`
	Roles   []catalogRole `yaml:"roles"`
}

type catalogRole struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Type        RoleType `yaml:"type"`
	Tier        Tier     `yaml:"tier"`
	Permissions []string `yaml:"permissions"`
}

// LoadCatalogFile reads and builds a catalog from a YAML file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError(ErrConfiguration, fmt.Sprintf("read catalog %s: %v", path, err))
	}
	return ParseCatalog(data)
}

// ParseCatalog builds a catalog from YAML. Unknown fields, role types, tiers
// and permission tokens are all configuration errors.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, NewError(ErrConfiguration, fmt.Sprintf("decode catalog: %v", err))
	}

	b := NewCatalogBuilder(f.Version)
	for _, r := range f.Roles {
		def := b.Role(r.ID).Type(r.Type).Tier(r.Tier).Describe(r.Description).GrantPatterns(r.Permissions...)
		if r.Name != "" {
			def.Name(r.Name)
		}
	}
	return b.Build()
}
