package domain

type Device struct {
	Id           string
	Name         string
	Version      string
	Model        string
	Manufacturer string
	ViaDevice    string
}

type GenericSensor struct {
	Device            Device
	Id                string
	SensorType        string
	Name              string
	UniqueId          string
	UnitOfMeasurement string
	StateClass        string // measurement, total_increasing
	DeviceClass       string // power, temperature, duration, running
	EntityCategory    string // diagnostic, config, nil
	EnabledByDefault  *bool
	Icon              string
}

type GenericSwitch struct {
	Device           Device
	Id               string
	Name             string
	UniqueId         string
	Icon             string
	EntityCategory   string
	EnabledByDefault *bool
}

type GenericInputNumber struct {
	Device            Device
	Id                string
	Name              string
	UniqueId          string
	Icon              string
	UnitOfMeasurement string
	EntityCategory    string
	EnabledByDefault  *bool
	Max               float64
	Min               float64
	Step              float64
	Mode              string
	InitialValue      float64
}

type GenericSelect struct {
	Device           Device
	Id               string
	Name             string
	UniqueId         string
	Icon             string
	EntityCategory   string
	EnabledByDefault *bool
	Options          []string
}

// GenericText is a text input. Time inputs are texts with an HH:MM pattern.
type GenericText struct {
	Device           Device
	Id               string
	Name             string
	UniqueId         string
	Icon             string
	EntityCategory   string
	EnabledByDefault *bool
	Max              int
	Pattern          string
}

// Entities is the full set of components announced to Home Assistant.
type Entities struct {
	Sensors      []GenericSensor
	Switches     []GenericSwitch
	InputNumbers []GenericInputNumber
	Selects      []GenericSelect
	Texts        []GenericText
}

func (e *Entities) Append(other Entities) {
	e.Sensors = append(e.Sensors, other.Sensors...)
	e.Switches = append(e.Switches, other.Switches...)
	e.InputNumbers = append(e.InputNumbers, other.InputNumbers...)
	e.Selects = append(e.Selects, other.Selects...)
	e.Texts = append(e.Texts, other.Texts...)
}

func (e *Entities) Len() int {
	return len(e.Sensors) + len(e.Switches) + len(e.InputNumbers) + len(e.Selects) + len(e.Texts)
}
