package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of an actions extension file:
//
//	actions:
//	  - id: login
//	    label: LOGIN AS
//	    category: structure
//	    keywords: [SIGN IN]
//	    template: 'PERFORM LoginPage.loginAs WITH "{user}"'
//	    slot_template: 'PERFORM LoginPage.loginAs WITH "‹user›"'
//	    slots:
//	      - id: user
//	        kind: freeText
type File struct {
	Actions []ActionFile `yaml:"actions"`
}

// ActionFile is one action entry in an extension file.
type ActionFile struct {
	ID           string     `yaml:"id"`
	Label        string     `yaml:"label"`
	Keywords     []string   `yaml:"keywords"`
	Template     string     `yaml:"template"`
	SlotTemplate string     `yaml:"slot_template"`
	Category     string     `yaml:"category"`
	Description  string     `yaml:"description"`
	Hook         string     `yaml:"hook"`
	Slots        []SlotFile `yaml:"slots"`
}

// SlotFile is one slot entry in an extension file.
type SlotFile struct {
	ID       string   `yaml:"id"`
	Kind     string   `yaml:"kind"`
	Label    string   `yaml:"label"`
	Options  []string `yaml:"options"`
	Optional bool     `yaml:"optional"`
}

// LoadFile reads extra actions from a YAML file.
func LoadFile(path string) ([]ActionDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read actions file: %w", err)
	}
	defs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return defs, nil
}

// Parse decodes extra actions from YAML.
// Missing labels default to the slot ID; a missing slot template is derived
// from the template by replacing each {id} with ‹label›.
func Parse(data []byte) ([]ActionDef, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid actions file: %w", err)
	}

	defs := make([]ActionDef, 0, len(f.Actions))
	for i, af := range f.Actions {
		def, err := af.toDef()
		if err != nil {
			return nil, fmt.Errorf("action %d (%s): %w", i+1, af.ID, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (af ActionFile) toDef() (ActionDef, error) {
	def := ActionDef{
		ID:           af.ID,
		Label:        af.Label,
		Keywords:     af.Keywords,
		Template:     af.Template,
		SlotTemplate: af.SlotTemplate,
		Description:  af.Description,
		Category:     CategoryUtility,
	}
	if def.Label == "" {
		def.Label = af.ID
	}

	if af.Category != "" {
		cat, ok := ParseCategory(af.Category)
		if !ok {
			return ActionDef{}, fmt.Errorf("unknown category %q", af.Category)
		}
		def.Category = cat
	}

	if af.Hook != "" {
		hook, ok := ParseHookKind(af.Hook)
		if !ok {
			return ActionDef{}, fmt.Errorf("unknown hook %q", af.Hook)
		}
		def.Hook = hook
		def.Category = CategoryHooks
	}

	for _, sf := range af.Slots {
		kind := SlotFreeText
		if sf.Kind != "" {
			k, ok := ParseSlotKind(sf.Kind)
			if !ok {
				return ActionDef{}, fmt.Errorf("slot %s: unknown kind %q", sf.ID, sf.Kind)
			}
			kind = k
		}
		label := sf.Label
		if label == "" {
			label = sf.ID
		}
		def.Slots = append(def.Slots, SlotDef{
			ID:       sf.ID,
			Kind:     kind,
			Label:    label,
			Options:  sf.Options,
			Optional: sf.Optional,
		})
	}

	if def.SlotTemplate == "" && def.Template != "" && !def.IsHook() {
		def.SlotTemplate = deriveSlotTemplate(def)
	}
	return def, nil
}

// deriveSlotTemplate replaces each {id} hole with the slot's visible blank.
func deriveSlotTemplate(def ActionDef) string {
	return templateHole.ReplaceAllStringFunc(def.Template, func(hole string) string {
		id := hole[1 : len(hole)-1]
		if s, ok := def.Slot(id); ok {
			return MarkerText(s.Label)
		}
		return hole
	})
}
