package zcl

// Cluster IDs used by the supported remotes.
const (
	IDBasic        uint16 = 0x0000
	IDPowerConfig  uint16 = 0x0001
	IDScenes       uint16 = 0x0005
	IDOnOff        uint16 = 0x0006
	IDLevelControl uint16 = 0x0008
	IDColorControl uint16 = 0x0300
)

// ZCL data type IDs, for the attribute subset the remotes carry.
const (
	TypeBool     uint8 = 0x10
	TypeBitmap8  uint8 = 0x18
	TypeUint8    uint8 = 0x20
	TypeUint16   uint8 = 0x21
	TypeEnum8    uint8 = 0x30
	TypeCharStr  uint8 = 0x42
	TypeOctetStr uint8 = 0x41
)

// Access flags
const (
	AccessRead   uint8 = 0x01
	AccessWrite  uint8 = 0x02
	AccessReport uint8 = 0x04
)

// AttributeDef describes one cluster attribute.
type AttributeDef struct {
	ID     uint16 `json:"id"`
	Name   string `json:"name"`
	Type   uint8  `json:"type"`
	Access uint8  `json:"access"` // bitmask: 1=read, 2=write, 4=reportable
}

// CommandDef describes one cluster-specific command.
type CommandDef struct {
	ID   uint8  `json:"id"`
	Name string `json:"name"`
}

// ClusterDef describes a cluster: the command/attribute group the
// device-description protocol routes frames by.
type ClusterDef struct {
	ID         uint16         `json:"id"`
	Name       string         `json:"name"`
	Attributes []AttributeDef `json:"attributes,omitempty"`
	Commands   []CommandDef   `json:"commands,omitempty"`
}

// CommandName returns the name of a command, or "" if unknown. Used to
// render readable frame logs.
func (c *ClusterDef) CommandName(id uint8) string {
	for i := range c.Commands {
		if c.Commands[i].ID == id {
			return c.Commands[i].Name
		}
	}
	return ""
}

// FindAttribute looks up an attribute by ID.
func (c *ClusterDef) FindAttribute(id uint16) *AttributeDef {
	for i := range c.Attributes {
		if c.Attributes[i].ID == id {
			return &c.Attributes[i]
		}
	}
	return nil
}
