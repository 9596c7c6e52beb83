package scene

import (
	"errors"
	"fmt"
	"io"

	"github.com/zeusync/scenekit/internal/core/component"
	"github.com/zeusync/scenekit/internal/core/render"
	"gopkg.in/yaml.v3"
)

// Descriptor is the YAML form of a scene.
type Descriptor struct {
	Name     string             `yaml:"name"`
	Views    []ViewDescriptor   `yaml:"views"`
	Entities []EntityDescriptor `yaml:"entities"`
}

type EntityDescriptor struct {
	Name       string                   `yaml:"name"`
	Object     *render.ObjectDescriptor `yaml:"object,omitempty"`
	Components []ComponentDescriptor    `yaml:"components"`
}

type ComponentDescriptor struct {
	Type       string         `yaml:"type"`
	Attributes map[string]any `yaml:"attributes,omitempty"`
}

type ViewDescriptor struct {
	Camera   render.Camera      `yaml:"camera"`
	Options  render.ViewOptions `yaml:",inline"`
	Disabled bool               `yaml:"disabled"`
}

// View fills unset camera fields from render.DefaultCamera.
func (v ViewDescriptor) View() render.View {
	cam := v.Camera
	def := render.DefaultCamera(cam.Name)
	if cam.Position.Len() == 0 {
		cam.Position = def.Position
	}
	if cam.Up.Len() == 0 {
		cam.Up = def.Up
	}
	if cam.FOV == 0 {
		cam.FOV = def.FOV
	}
	if cam.Near == 0 {
		cam.Near = def.Near
	}
	if cam.Far == 0 {
		cam.Far = def.Far
	}
	return render.View{Camera: &cam, Options: v.Options, Disabled: v.Disabled}
}

// LoadDescriptor decodes a single YAML scene document.
func LoadDescriptor(r io.Reader) (*Descriptor, error) {
	var d Descriptor
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidDescriptor)
		}
		return nil, fmt.Errorf("decode scene descriptor: %w", err)
	}
	return &d, nil
}

// Validate checks structure and, when reg is not nil, that every component type is
// registered.
func (d *Descriptor) Validate(reg *component.Registry) error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	for i, v := range d.Views {
		if v.Options.Viewport.Empty() {
			errs = append(errs, fmt.Errorf("views[%d]: empty viewport", i))
		}
		if v.Camera.Near < 0 || (v.Camera.Far != 0 && v.Camera.Far <= v.Camera.Near) {
			errs = append(errs, fmt.Errorf("views[%d]: invalid clip planes", i))
		}
	}
	for i, e := range d.Entities {
		if e.Object != nil && e.Object.Kind == "" {
			errs = append(errs, fmt.Errorf("entities[%d] %q: object kind is required", i, e.Name))
		}
		for j, c := range e.Components {
			switch {
			case c.Type == "":
				errs = append(errs, fmt.Errorf("entities[%d].components[%d]: type is required", i, j))
			case reg != nil && !reg.Has(c.Type):
				errs = append(errs, fmt.Errorf("entities[%d].components[%d]: %w: %s", i, j, component.ErrUnknownType, c.Type))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDescriptor, errors.Join(errs...))
	}
	return nil
}
