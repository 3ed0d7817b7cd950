package berth

import "github.com/hashicorp/go-hclog"

// Importer is the registration pipeline: it turns a fixture declaration's
// resource fields into service definitions and registers them with a
// component registry. Importing wires descriptors and factories only; no
// resource is ever started here.
type Importer struct {
	log hclog.Logger
}

// NewImporter creates an importer.
func NewImporter(opts ...Option) *Importer {
	o := newOptions(opts)
	return &Importer{log: o.log}
}

// Import scans the declaration's resource fields and registers one service
// definition per field. The imported descriptors are returned so the caller
// can hand them to a Registrar for lazy property wiring.
func (im *Importer) Import(registry ComponentRegistry, decl any) (*FieldSet, error) {
	fields, err := ScanFields(decl)
	if err != nil {
		return nil, err
	}
	if err := im.ImportDescriptors(registry, fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// ImportDescriptors registers a service definition for each descriptor in
// the set. It is the shared tail of the live-scan path and the generated
// (ahead-of-time) path, so downstream registry wiring is identical for both.
func (im *Importer) ImportDescriptors(registry ComponentRegistry, fields *FieldSet) error {
	for _, desc := range fields.All() {
		def, err := im.buildDefinition(desc)
		if err != nil {
			return err
		}
		if err := registry.RegisterDefinition(def); err != nil {
			return err
		}
		im.log.Debug("registered resource definition", "name", def.Name, "image", def.Image)
	}
	return nil
}

func (im *Importer) buildDefinition(desc *FieldDescriptor) (*ServiceDefinition, error) {
	resource, err := desc.Resource()
	if err != nil {
		return nil, err
	}
	markers, err := desc.Markers()
	if err != nil {
		return nil, err
	}
	def := &ServiceDefinition{
		Name:    desc.Key().String(),
		Field:   desc.Key(),
		Role:    RoleInfrastructure,
		Markers: markers,
		Factory: desc.Resource,
	}
	if named, ok := resource.(ImageNamed); ok {
		def.Image = named.ImageName()
	}
	return def, nil
}
