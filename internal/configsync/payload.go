package configsync

// DataFreshnessLive marks payloads assembled from a fresh store read.
const DataFreshnessLive = "live"

// ConfigPayload is the retained configuration document a tracker applies on receipt.
type ConfigPayload struct {
	DeviceID       string           `json:"deviceId"`
	PetID          string           `json:"petId"`
	PetName        string           `json:"petName"`
	PhoneNumber    string           `json:"phoneNumber"`
	OwnerName      string           `json:"ownerName"`
	ServerURL      string           `json:"serverUrl"`
	UpdateInterval int              `json:"updateInterval"`
	Timestamp      int64            `json:"timestamp"`
	ConfigSentAt   string           `json:"configSentAt"`
	DataFreshness  string           `json:"dataFreshness"`
	MQTT           MQTTSettings     `json:"mqtt"`
	SafeZone       *SafeZonePayload `json:"safeZone,omitempty"`
}

type MQTTSettings struct {
	Broker   string   `json:"broker"`
	Port     int      `json:"port"`
	Username string   `json:"username,omitempty"`
	Password string   `json:"password,omitempty"`
	Topics   TopicSet `json:"topics"`
}

type TopicSet struct {
	Location string `json:"location"`
	Status   string `json:"status"`
	Alert    string `json:"alert"`
	Config   string `json:"config"`
}

type SafeZonePayload struct {
	Center      Center  `json:"center"`
	Radius      float64 `json:"radius"`
	Name        string  `json:"name"`
	IsActive    bool    `json:"isActive"`
	IsPrimary   bool    `json:"isPrimary"`
	AutoCreated bool    `json:"autoCreated"`
}

type Center struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
