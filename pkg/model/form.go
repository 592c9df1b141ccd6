package model

// Option is one selectable value of a form field.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field describes a named control inside the prediction form.
type Field struct {
	Name        string   `json:"name"`
	Label       string   `json:"label,omitempty"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required"`
	Default     string   `json:"default,omitempty"`
	Options     []Option `json:"options,omitempty"`
}

// OptionLabel returns the label for value, or value itself when no option
// matches.
func (f Field) OptionLabel(value string) string {
	for _, opt := range f.Options {
		if opt.Value == value {
			if opt.Label != "" {
				return opt.Label
			}
			return opt.Value
		}
	}
	return value
}

// FormModel is the front-end facing description of the prediction form.
type FormModel struct {
	ID          string    `json:"id"`
	Endpoint    string    `json:"endpoint"`
	Method      string    `json:"method"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Fields      []Field   `json:"fields"`
	Subjects    []Subject `json:"subjects"`
}

// Field looks up a field by name.
func (m FormModel) Field(name string) (Field, bool) {
	for _, field := range m.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// FieldNames lists the field names in form order.
func (m FormModel) FieldNames() []string {
	names := make([]string, 0, len(m.Fields))
	for _, field := range m.Fields {
		names = append(names, field.Name)
	}
	return names
}
