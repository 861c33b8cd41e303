package askoheat_modbus

type AskoheatModbusReader interface {
	Open() error
	Close() error
	// ReadBlock reads the whole block in a single request and decodes it.
	ReadBlock(block *BlockDescriptor) (*DecodedBlock, error)
	// ReadRawBlock returns the undecoded registers of the block.
	ReadRawBlock(block *BlockDescriptor) ([]uint16, error)
	// WriteField encodes value into the entry named key, writes it and
	// returns the block as read back from the device.
	WriteField(block *BlockDescriptor, key string, value any) (*DecodedBlock, error)
	GetInfo() (*DeviceInfo, error)
}

type DeviceInfo struct {
	ArticleNumber   string
	SerialNumber    string
	SoftwareVersion string
	HardwareVersion string
	NumberOfHeaters int
	RatedPowerWatt  uint16
}

// DeviceInfoFromBlock picks the identity fields out of a decoded parameter
// block. Missing values are left empty.
func DeviceInfoFromBlock(block *DecodedBlock) *DeviceInfo {
	info := &DeviceInfo{}
	str := func(key string) string {
		if s, ok := block.Sensors[key].(string); ok {
			return s
		}
		return ""
	}
	info.ArticleNumber = str(PAR_KEY_ARTICLE_NUMBER)
	info.SerialNumber = str(PAR_KEY_SERIAL_NUMBER)
	info.SoftwareVersion = str(PAR_KEY_SOFTWARE_VERSION)
	info.HardwareVersion = str(PAR_KEY_HARDWARE_VERSION)
	if n, ok := block.Sensors[PAR_KEY_NUMBER_HEATERS].(int16); ok {
		info.NumberOfHeaters = int(n)
	}
	if p, ok := block.Sensors[PAR_KEY_RATED_POWER].(uint16); ok {
		info.RatedPowerWatt = p
	}
	return info
}
