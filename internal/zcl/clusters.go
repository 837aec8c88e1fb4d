package zcl

// Standard cluster definitions, trimmed to the attributes and commands the
// supported remotes actually exercise.
var standardClusters = []ClusterDef{
	{
		ID:   IDBasic,
		Name: "Basic",
		Attributes: []AttributeDef{
			{ID: 0x0004, Name: "ManufacturerName", Type: TypeCharStr, Access: AccessRead},
			{ID: 0x0005, Name: "ModelIdentifier", Type: TypeCharStr, Access: AccessRead},
			{ID: 0x4000, Name: "SWBuildID", Type: TypeCharStr, Access: AccessRead},
		},
	},
	{
		ID:   IDPowerConfig,
		Name: "Power Configuration",
		Attributes: []AttributeDef{
			{ID: 0x0020, Name: "BatteryVoltage", Type: TypeUint8, Access: AccessRead | AccessReport},
			{ID: 0x0021, Name: "BatteryPercentageRemaining", Type: TypeUint8, Access: AccessRead | AccessReport},
		},
	},
	{
		ID:   IDScenes,
		Name: "Scenes",
		Attributes: []AttributeDef{
			{ID: 0x0001, Name: "CurrentScene", Type: TypeUint8, Access: AccessRead},
			{ID: 0x0002, Name: "CurrentGroup", Type: TypeUint16, Access: AccessRead},
		},
		Commands: []CommandDef{
			{ID: 0x00, Name: "AddScene"},
			{ID: 0x04, Name: "StoreScene"},
			{ID: 0x05, Name: "RecallScene"},
		},
	},
	{
		ID:   IDOnOff,
		Name: "On/Off",
		Attributes: []AttributeDef{
			{ID: 0x0000, Name: "OnOff", Type: TypeBool, Access: AccessRead | AccessReport},
		},
		Commands: []CommandDef{
			{ID: 0x00, Name: "Off"},
			{ID: 0x01, Name: "On"},
			{ID: 0x02, Name: "Toggle"},
		},
	},
	{
		ID:   IDLevelControl,
		Name: "Level Control",
		Attributes: []AttributeDef{
			{ID: 0x0000, Name: "CurrentLevel", Type: TypeUint8, Access: AccessRead | AccessReport},
		},
		Commands: []CommandDef{
			{ID: 0x01, Name: "Move"},
			{ID: 0x02, Name: "Step"},
			{ID: 0x03, Name: "Stop"},
			{ID: 0x05, Name: "MoveWithOnOff"},
			{ID: 0x06, Name: "StepWithOnOff"},
		},
	},
	{
		ID:   IDColorControl,
		Name: "Color Control",
		Attributes: []AttributeDef{
			{ID: 0x0000, Name: "CurrentHue", Type: TypeUint8, Access: AccessRead | AccessReport},
			{ID: 0x0001, Name: "CurrentSaturation", Type: TypeUint8, Access: AccessRead | AccessReport},
			{ID: 0x0007, Name: "ColorTemperatureMireds", Type: TypeUint16, Access: AccessRead | AccessReport},
		},
		Commands: []CommandDef{
			{ID: 0x00, Name: "MoveToHue"},
			{ID: 0x02, Name: "StepHue"},
			{ID: 0x03, Name: "MoveToSaturation"},
			{ID: 0x04, Name: "MoveSaturation"},
			{ID: 0x05, Name: "StepSaturation"},
			{ID: 0x06, Name: "MoveToHueAndSaturation"},
			{ID: 0x4C, Name: "StepColorTemperature"},
		},
	},
}
