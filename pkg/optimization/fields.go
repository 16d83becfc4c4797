package optimization

// Fields holds the current values of the form: five numbers and the raw,
// unparsed text of the solar sizes field.
type Fields struct {
	PeakPrice              float64
	OffPeakPrice           float64
	BatteryCostPerKw       float64
	PeakConsumption        float64
	OffPeakConsumption     float64
	SolarInstallationSizes string
}

// DefaultFields returns the fields pre-filled with the built-in defaults.
func DefaultFields() Fields {
	var f Fields
	f.Apply(DefaultParameters())
	return f
}

// Apply overwrites the fields present in params and leaves the rest unchanged.
func (f *Fields) Apply(params Parameters) {
	if params.PeakPrice != nil {
		f.PeakPrice = *params.PeakPrice
	}
	if params.OffPeakPrice != nil {
		f.OffPeakPrice = *params.OffPeakPrice
	}
	if params.BatteryCostPerKw != nil {
		f.BatteryCostPerKw = *params.BatteryCostPerKw
	}
	if params.PeakConsumption != nil {
		f.PeakConsumption = *params.PeakConsumption
	}
	if params.OffPeakConsumption != nil {
		f.OffPeakConsumption = *params.OffPeakConsumption
	}
	if params.SolarInstallationSizes != nil {
		f.SolarInstallationSizes = params.SolarInstallationSizes.String()
	}
}

// Request builds a fresh request from the fields. It fails with an error
// wrapping ErrInvalidSolarSizes when the solar sizes text does not parse.
func (f Fields) Request() (OptimizationRequest, error) {
	sizes, err := ParseSolarSizes(f.SolarInstallationSizes)
	if err != nil {
		return OptimizationRequest{}, err
	}
	return OptimizationRequest{
		PeakPrice:              f.PeakPrice,
		OffPeakPrice:           f.OffPeakPrice,
		BatteryCostPerKw:       f.BatteryCostPerKw,
		PeakConsumption:        f.PeakConsumption,
		OffPeakConsumption:     f.OffPeakConsumption,
		SolarInstallationSizes: sizes,
	}, nil
}
