package catalog

// Builtin returns the catalog of models supported out of the box.
func Builtin() *Catalog {
	return New(map[string]Entry{
		"WXKG01LM":     aqaraButton(),
		"WSDCGQ11LM":   aqaraClimateSensor(),
		"RTCGQ11LM":    aqaraMotionSensor(),
		"MCCGQ11LM":    aqaraContactSensor(),
		"LED1545G12":   tradfriBulb(),
		"ZNCZ02LM":     aqaraPlug(),
		"E1743":        tradfriOnOffSwitch(),
		"SNZB-02":      sonoffClimateSensor(),
		"TS0601_valve": tuyaRadiatorValve(),
	})
}

func batteryProperty() PropertySpec {
	return PropertySpec{
		Value: 100,
		Metadata: Metadata{
			Title:        "Battery",
			Type:         TypeInteger,
			SemanticType: "LevelProperty",
			Unit:         "percent",
			Minimum:      floatPtr(0),
			Maximum:      floatPtr(100),
			ReadOnly:     true,
		},
	}
}

func linkQualityProperty() PropertySpec {
	return PropertySpec{
		Value: 0,
		Metadata: Metadata{
			Title:    "Link Quality",
			Type:     TypeInteger,
			Minimum:  floatPtr(0),
			Maximum:  floatPtr(255),
			ReadOnly: true,
		},
	}
}

func temperatureProperty() PropertySpec {
	return PropertySpec{
		Value: 0.0,
		Metadata: Metadata{
			Title:        "Temperature",
			Type:         TypeNumber,
			SemanticType: "TemperatureProperty",
			Unit:         "degree celsius",
			ReadOnly:     true,
		},
	}
}

func humidityProperty() PropertySpec {
	return PropertySpec{
		Value: 0.0,
		Metadata: Metadata{
			Title:        "Humidity",
			Type:         TypeNumber,
			SemanticType: "LevelProperty",
			Unit:         "percent",
			Minimum:      floatPtr(0),
			Maximum:      floatPtr(100),
			ReadOnly:     true,
		},
	}
}

func onOffProperty() PropertySpec {
	return PropertySpec{
		Value:   false,
		ToBus:   BoolToString("ON", "OFF"),
		FromBus: StringToBool("ON"),
		Metadata: Metadata{
			Title:        "On/Off",
			Type:         TypeBoolean,
			SemanticType: "OnOffProperty",
		},
	}
}

func buttonEvents(actions ...string) map[string]EventSpec {
	events := make(map[string]EventSpec, len(actions))
	for _, action := range actions {
		events[action] = EventSpec{ValueField: "action", Description: action + " press"}
	}
	return events
}

func aqaraButton() Entry {
	return Entry{
		Name:  "Aqara Wireless Mini Switch",
		Types: []string{"PushButton"},
		Properties: map[string]PropertySpec{
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
			"voltage": {
				Value: 0,
				Metadata: Metadata{
					Title:        "Voltage",
					Type:         TypeInteger,
					SemanticType: "VoltageProperty",
					Unit:         "millivolt",
					ReadOnly:     true,
				},
			},
		},
		Events: map[string]EventSpec{
			"single":       {ValueField: "click", Description: "single click"},
			"double":       {ValueField: "click", Description: "double click"},
			"triple":       {ValueField: "click", Description: "triple click"},
			"quadruple":    {ValueField: "click", Description: "quadruple click"},
			"long":         {ValueField: "duration", Description: "long press"},
			"long_release": {ValueField: "duration", Description: "long press released"},
		},
	}
}

func aqaraClimateSensor() Entry {
	return Entry{
		Name:  "Aqara Temperature, Humidity and Pressure Sensor",
		Types: []string{"TemperatureSensor", "HumiditySensor", "MultiLevelSensor"},
		Properties: map[string]PropertySpec{
			"temperature": temperatureProperty(),
			"humidity":    humidityProperty(),
			"pressure": {
				Value: 0.0,
				Metadata: Metadata{
					Title:        "Pressure",
					Type:         TypeNumber,
					SemanticType: "BarometricPressureProperty",
					Unit:         "hectopascal",
					ReadOnly:     true,
				},
			},
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
	}
}

func aqaraMotionSensor() Entry {
	return Entry{
		Name:  "Aqara Motion Sensor",
		Types: []string{"MotionSensor"},
		Properties: map[string]PropertySpec{
			"occupancy": {
				Value: false,
				Metadata: Metadata{
					Title:        "Motion",
					Type:         TypeBoolean,
					SemanticType: "MotionProperty",
					ReadOnly:     true,
				},
			},
			"illuminance": {
				Value: 0,
				Metadata: Metadata{
					Title:    "Illuminance",
					Type:     TypeInteger,
					Unit:     "lux",
					ReadOnly: true,
				},
			},
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
	}
}

func aqaraContactSensor() Entry {
	// zigbee2mqtt reports contact=true when closed; the host wants "open".
	return Entry{
		Name:  "Aqara Door and Window Sensor",
		Types: []string{"DoorSensor"},
		Properties: map[string]PropertySpec{
			"contact": {
				Value:   false,
				ToBus:   Invert,
				FromBus: Invert,
				Metadata: Metadata{
					Title:        "Open",
					Type:         TypeBoolean,
					SemanticType: "OpenProperty",
					ReadOnly:     true,
				},
			},
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
	}
}

func tradfriBulb() Entry {
	return Entry{
		Name:  "IKEA TRADFRI LED Bulb E27 1000lm",
		Types: []string{"Light", "OnOffSwitch"},
		Properties: map[string]PropertySpec{
			"state": onOffProperty(),
			"brightness": {
				Value:   100,
				ToBus:   PercentToLevel,
				FromBus: LevelToPercent,
				Metadata: Metadata{
					Title:        "Brightness",
					Type:         TypeInteger,
					SemanticType: "BrightnessProperty",
					Unit:         "percent",
					Minimum:      floatPtr(0),
					Maximum:      floatPtr(100),
				},
			},
			"color_temp": {
				Value:   4000,
				ToBus:   KelvinToMired,
				FromBus: KelvinToMired,
				Metadata: Metadata{
					Title:        "Colour Temperature",
					Type:         TypeInteger,
					SemanticType: "ColorTemperatureProperty",
					Unit:         "kelvin",
					Minimum:      floatPtr(2200),
					Maximum:      floatPtr(4000),
				},
			},
			"linkquality": linkQualityProperty(),
		},
	}
}

func aqaraPlug() Entry {
	return Entry{
		Name:  "Aqara Smart Plug",
		Types: []string{"SmartPlug", "OnOffSwitch", "EnergyMonitor"},
		Properties: map[string]PropertySpec{
			"state": onOffProperty(),
			"power": {
				Value: 0.0,
				Metadata: Metadata{
					Title:        "Power",
					Type:         TypeNumber,
					SemanticType: "InstantaneousPowerProperty",
					Unit:         "watt",
					ReadOnly:     true,
				},
			},
			"energy": {
				Value: 0.0,
				Metadata: Metadata{
					Title:    "Energy",
					Type:     TypeNumber,
					Unit:     "kilowatt hour",
					ReadOnly: true,
				},
			},
			"linkquality": linkQualityProperty(),
		},
	}
}

func tradfriOnOffSwitch() Entry {
	return Entry{
		Name:  "IKEA TRADFRI ON/OFF Switch",
		Types: []string{"PushButton"},
		Properties: map[string]PropertySpec{
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
		Events: buttonEvents("on", "off", "brightness_move_up", "brightness_move_down", "brightness_stop"),
	}
}

func sonoffClimateSensor() Entry {
	return Entry{
		Name:  "SONOFF Temperature and Humidity Sensor",
		Types: []string{"TemperatureSensor", "HumiditySensor"},
		Properties: map[string]PropertySpec{
			"temperature": temperatureProperty(),
			"humidity":    humidityProperty(),
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
	}
}

func tuyaRadiatorValve() Entry {
	return Entry{
		Name:  "Tuya Thermostatic Radiator Valve",
		Types: []string{"Thermostat", "TemperatureSensor"},
		Properties: map[string]PropertySpec{
			"local_temperature": temperatureProperty(),
			"current_heating_setpoint": {
				Value: 20.0,
				Metadata: Metadata{
					Title:        "Target Temperature",
					Type:         TypeNumber,
					SemanticType: "TargetTemperatureProperty",
					Unit:         "degree celsius",
					Minimum:      floatPtr(5),
					Maximum:      floatPtr(30),
					MultipleOf:   floatPtr(0.5),
				},
			},
			"system_mode": {
				Value: "auto",
				Metadata: Metadata{
					Title:        "Mode",
					Type:         TypeString,
					SemanticType: "ThermostatModeProperty",
					Enum:         []any{"off", "auto", "heat"},
				},
			},
			"child_lock": {
				Value:   false,
				ToBus:   BoolToString("LOCK", "UNLOCK"),
				FromBus: StringToBool("LOCK"),
				Metadata: Metadata{
					Title: "Child Lock",
					Type:  TypeBoolean,
				},
			},
			"battery":     batteryProperty(),
			"linkquality": linkQualityProperty(),
		},
	}
}
